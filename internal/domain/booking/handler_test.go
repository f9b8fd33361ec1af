package booking

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func postWebhook(t *testing.T, h *Handler, body string) (*httptest.ResponseRecorder, Ack) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h.PaymentWebhook(e.NewContext(req, rec)); err != nil {
		t.Fatalf("PaymentWebhook() error = %v", err)
	}
	var ack Ack
	if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil {
		t.Fatalf("acknowledgment is not valid JSON: %v", err)
	}
	return rec, ack
}

func callbackJSON(correlationID, storeID string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"amount":             "150",
		"auth_code":          "A1B2C3",
		"merchant_reference": correlationID,
		"status_code":        "000",
		"status":             "APPROVED",
		"store_id":           storeID,
		"transaction_id":     "txn-77",
	})
	return string(b)
}

func TestPaymentWebhookApproved(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc, zerolog.Nop())
	_, p := f.pendingBookingWithPayment(t)

	rec, ack := postWebhook(t, h, callbackJSON(p.CorrelationID, "store-9"))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !ack.Response || ack.ErrorCode != "" {
		t.Errorf("ack = %+v, want Response true with empty ErrorCode", ack)
	}

	// The wire shape is fixed: exactly the Response and ErrorCode keys.
	var raw map[string]json.RawMessage
	_ = json.Unmarshal(rec.Body.Bytes(), &raw)
	if _, ok := raw["Response"]; !ok {
		t.Error(`acknowledgment missing "Response" key`)
	}
	if _, ok := raw["ErrorCode"]; !ok {
		t.Error(`acknowledgment missing "ErrorCode" key`)
	}
}

func TestPaymentWebhookUnknownReference(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc, zerolog.Nop())
	_, _ = f.pendingBookingWithPayment(t)

	rec, ack := postWebhook(t, h, callbackJSON("01UNKNOWN", "store-9"))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if ack.Response || ack.ErrorCode != "UNKNOWN_REFERENCE" {
		t.Errorf("ack = %+v", ack)
	}
}

func TestPaymentWebhookStoreMismatch(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc, zerolog.Nop())
	_, p := f.pendingBookingWithPayment(t)

	rec, ack := postWebhook(t, h, callbackJSON(p.CorrelationID, "other-store"))
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	if ack.Response || ack.ErrorCode != "STORE_MISMATCH" {
		t.Errorf("ack = %+v", ack)
	}
}

func TestPaymentWebhookMissingFields(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc, zerolog.Nop())
	_, _ = f.pendingBookingWithPayment(t)

	rec, ack := postWebhook(t, h, `{"merchant_reference": "x"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if ack.Response || ack.ErrorCode != "MISSING_FIELDS" {
		t.Errorf("ack = %+v", ack)
	}
}

func TestPaymentWebhookRetryAck(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc, zerolog.Nop())
	_, p := f.pendingBookingWithPayment(t)

	body := callbackJSON(p.CorrelationID, "store-9")
	if rec, _ := postWebhook(t, h, body); rec.Code != http.StatusOK {
		t.Fatalf("first delivery status = %d", rec.Code)
	}
	rec, ack := postWebhook(t, h, body)
	if rec.Code != http.StatusOK || !ack.Response {
		t.Errorf("retried delivery: status = %d, ack = %+v; want 200 success", rec.Code, ack)
	}
}
