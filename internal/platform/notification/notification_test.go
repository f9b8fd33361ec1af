package notification

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

type captureSender struct {
	to, subject, body string
	err               error
}

func (c *captureSender) SendEmail(_ context.Context, to, subject, body string) error {
	c.to, c.subject, c.body = to, subject, body
	return c.err
}

func TestRenderInvitation(t *testing.T) {
	e := NewTemplateEngine()
	subject, body, err := e.Render("invitation", map[string]string{
		"tenant_name": "Sunrise Clinic",
		"invite_link": "https://app.example.com/invites/tok123",
		"expires_at":  "2026-09-07",
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(subject, "Sunrise Clinic") {
		t.Errorf("subject missing tenant name: %q", subject)
	}
	if !strings.Contains(body, "https://app.example.com/invites/tok123") {
		t.Errorf("body missing invite link: %q", body)
	}
	if strings.Contains(body, "{{") {
		t.Errorf("body has unresolved placeholders: %q", body)
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	e := NewTemplateEngine()
	if _, _, err := e.Render("nope", nil); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestServiceSend(t *testing.T) {
	sender := &captureSender{}
	svc := NewService(sender, zerolog.Nop())
	err := svc.Send(context.Background(), "doc@example.com", "invitation", map[string]string{
		"tenant_name": "Sunrise Clinic",
		"invite_link": "https://app.example.com/invites/tok123",
		"expires_at":  "2026-09-07",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if sender.to != "doc@example.com" {
		t.Errorf("to = %q, want doc@example.com", sender.to)
	}
}

func TestServiceSendFailure(t *testing.T) {
	sender := &captureSender{err: errors.New("smtp down")}
	svc := NewService(sender, zerolog.Nop())
	err := svc.Send(context.Background(), "doc@example.com", "payment_receipt", map[string]string{
		"booking_id": "b1", "amount": "100.00",
	})
	if err == nil {
		t.Error("expected error when sender fails")
	}
}
