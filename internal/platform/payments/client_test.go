package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestCreateCheckout(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/checkout/sessions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("X-Api-Key") != "key-123" {
			t.Errorf("missing api key header")
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(CheckoutResponse{
			SessionID:  "sess-1",
			PaymentURL: "https://pay.example.com/sess-1",
			Status:     "created",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key-123", "store-9", 5*time.Second, zerolog.Nop())
	out, err := c.CreateCheckout(context.Background(), CheckoutRequest{
		CorrelationID: "corr-1",
		Amount:        150.0,
		Currency:      "SAR",
		ReturnURL:     "https://app.example.com/done",
	})
	if err != nil {
		t.Fatalf("CreateCheckout() error = %v", err)
	}
	if out.PaymentURL != "https://pay.example.com/sess-1" {
		t.Errorf("PaymentURL = %q", out.PaymentURL)
	}
	if gotBody["store_id"] != "store-9" {
		t.Errorf("store_id = %v, want store-9", gotBody["store_id"])
	}
	if gotBody["merchant_reference"] != "corr-1" {
		t.Errorf("merchant_reference = %v", gotBody["merchant_reference"])
	}
}

func TestCreateCheckoutNoContentTypeHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No Content-Type set; the sniffer would label this text/plain.
		_, _ = w.Write([]byte(`{"session_id":"sess-2","payment_url":"https://pay.example.com/sess-2","status":"created"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key-123", "store-9", 5*time.Second, zerolog.Nop())
	out, err := c.CreateCheckout(context.Background(), CheckoutRequest{CorrelationID: "corr-3"})
	if err != nil {
		t.Fatalf("CreateCheckout() error = %v", err)
	}
	if out.PaymentURL != "https://pay.example.com/sess-2" {
		t.Errorf("PaymentURL = %q", out.PaymentURL)
	}
}

func TestCreateCheckoutGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(CheckoutResponse{Message: "store suspended"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key-123", "store-9", 5*time.Second, zerolog.Nop())
	if _, err := c.CreateCheckout(context.Background(), CheckoutRequest{CorrelationID: "corr-2"}); err == nil {
		t.Fatal("expected error on gateway 5xx")
	}
}
