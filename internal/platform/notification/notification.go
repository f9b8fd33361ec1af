// Package notification delivers outbound email to invitees and patients.
// Delivery is best-effort: callers treat the sender as a collaborator whose
// failure never fails the triggering operation.
package notification

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// EmailSender is the interface for sending email messages.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// Template is a reusable notification template. Placeholders use the
// {{name}} form and are replaced verbatim from the data map.
type Template struct {
	ID      string
	Subject string
	Body    string
}

// TemplateEngine holds notification templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates
// pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{templates: make(map[string]*Template)}
	e.Register(&Template{
		ID:      "invitation",
		Subject: "You have been invited to join {{tenant_name}}",
		Body: "Hello,\n\n{{tenant_name}} has invited you to join their team on Carelink.\n" +
			"Open the link below to accept or decline. The invitation expires on {{expires_at}}.\n\n" +
			"{{invite_link}}\n",
	})
	e.Register(&Template{
		ID:      "payment_receipt",
		Subject: "Payment received for booking {{booking_id}}",
		Body:    "We received your payment of {{amount}} for booking {{booking_id}}. Your booking is confirmed.\n",
	})
	return e
}

// Register adds or replaces a template.
func (e *TemplateEngine) Register(t *Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = t
}

// Render resolves the template and substitutes placeholders.
func (e *TemplateEngine) Render(id string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[id]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("unknown template: %s", id)
	}
	subject, body = t.Subject, t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}

// Service renders templates and hands them to the configured sender.
type Service struct {
	engine *TemplateEngine
	sender EmailSender
	logger zerolog.Logger
}

func NewService(sender EmailSender, logger zerolog.Logger) *Service {
	return &Service{engine: NewTemplateEngine(), sender: sender, logger: logger}
}

// Send renders the template and delivers it. Errors are returned for the
// caller to log; they are not retried here.
func (s *Service) Send(ctx context.Context, to, templateID string, data map[string]string) error {
	subject, body, err := s.engine.Render(templateID, data)
	if err != nil {
		return err
	}
	if err := s.sender.SendEmail(ctx, to, subject, body); err != nil {
		return fmt.Errorf("send %s to %s: %w", templateID, to, err)
	}
	s.logger.Info().Str("template", templateID).Str("to", to).Msg("notification sent")
	return nil
}

// LogSender writes messages to the log instead of delivering them. The
// default in development and in deployments without an SMTP relay.
type LogSender struct {
	Logger zerolog.Logger
}

func (l *LogSender) SendEmail(_ context.Context, to, subject, body string) error {
	l.Logger.Info().
		Str("to", to).
		Str("subject", subject).
		Str("body", body).
		Msg("email (log only)")
	return nil
}
