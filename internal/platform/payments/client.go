// Package payments wraps the external payment gateway's HTTP API. The
// gateway is an external collaborator: this client only creates hosted
// checkout sessions; settlement results arrive asynchronously through the
// webhook handled by the booking domain.
package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// CheckoutRequest describes one payment attempt sent to the gateway. The
// correlation id is generated by us and echoed back in the webhook so the
// callback can be matched to the original attempt.
type CheckoutRequest struct {
	CorrelationID string  `json:"merchant_reference"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	Description   string  `json:"description,omitempty"`
	CustomerEmail string  `json:"customer_email,omitempty"`
	ReturnURL     string  `json:"return_url"`
}

// CheckoutResponse is the gateway's reply to a session creation call.
type CheckoutResponse struct {
	SessionID  string `json:"session_id"`
	PaymentURL string `json:"payment_url"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

// Client is a thin HTTP client for the payment gateway.
type Client struct {
	http    *resty.Client
	storeID string
	logger  zerolog.Logger
}

func NewClient(baseURL, apiKey, storeID string, timeout time.Duration, logger zerolog.Logger) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("X-Api-Key", apiKey)

	return &Client{http: http, storeID: storeID, logger: logger}
}

// StoreID returns the gateway-assigned store identifier this client is
// configured for. The webhook handler compares incoming callbacks against it.
func (c *Client) StoreID() string {
	return c.storeID
}

// CreateCheckout opens a hosted checkout session and returns the URL the
// payer should be redirected to.
func (c *Client) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error) {
	body := struct {
		CheckoutRequest
		StoreID string `json:"store_id"`
	}{CheckoutRequest: req, StoreID: c.storeID}

	var out CheckoutResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		// The gateway has been seen replying without a Content-Type
		// header; parse the body as JSON regardless.
		ForceContentType("application/json").
		Post("/v1/checkout/sessions")
	if err != nil {
		return nil, fmt.Errorf("gateway checkout call: %w", err)
	}
	if resp.IsError() {
		c.logger.Error().
			Int("status_code", resp.StatusCode()).
			Str("correlation_id", req.CorrelationID).
			Str("gateway_message", out.Message).
			Msg("gateway rejected checkout request")
		return nil, fmt.Errorf("gateway checkout rejected: status %d", resp.StatusCode())
	}
	if out.PaymentURL == "" {
		return nil, fmt.Errorf("gateway returned no payment URL (status %q)", out.Status)
	}

	c.logger.Info().
		Str("correlation_id", req.CorrelationID).
		Str("session_id", out.SessionID).
		Msg("checkout session created")
	return &out, nil
}
