package booking

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/carelink/internal/platform/apperr"
	"github.com/carelink/carelink/internal/platform/payments"
)

// TxRunner runs fn inside a single database transaction.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// Gateway is the slice of the payment gateway client this domain needs.
type Gateway interface {
	CreateCheckout(ctx context.Context, req payments.CheckoutRequest) (*payments.CheckoutResponse, error)
	StoreID() string
}

type Service struct {
	bookings  BookingRepository
	payments  PaymentRepository
	gateway   Gateway
	runTx     TxRunner
	returnURL string
	now       func() time.Time
	logger    zerolog.Logger
}

type ServiceConfig struct {
	Bookings  BookingRepository
	Payments  PaymentRepository
	Gateway   Gateway
	TxRunner  TxRunner
	ReturnURL string
	Now       func() time.Time
	Logger    zerolog.Logger
}

func NewService(cfg ServiceConfig) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		bookings:  cfg.Bookings,
		payments:  cfg.Payments,
		gateway:   cfg.Gateway,
		runTx:     cfg.TxRunner,
		returnURL: cfg.ReturnURL,
		now:       cfg.Now,
		logger:    cfg.Logger,
	}
}

type CreateInput struct {
	TenantID    uuid.UUID  `json:"tenant_id"`
	BranchID    *uuid.UUID `json:"branch_id,omitempty"`
	Service     string     `json:"service"`
	Amount      float64    `json:"amount"`
	Currency    string     `json:"currency"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

func (s *Service) Create(ctx context.Context, patientUserID uuid.UUID, in CreateInput) (*Booking, error) {
	if in.TenantID == uuid.Nil {
		return nil, apperr.Validation("tenant_id is required")
	}
	if in.Service == "" {
		return nil, apperr.Validation("service is required")
	}
	if in.Amount <= 0 {
		return nil, apperr.Validation("amount must be positive")
	}
	if in.Currency == "" {
		in.Currency = "SAR"
	}
	b := &Booking{
		TenantID:      in.TenantID,
		PatientUserID: patientUserID,
		BranchID:      in.BranchID,
		Service:       in.Service,
		Amount:        in.Amount,
		Currency:      in.Currency,
		Status:        BookingPending,
		ScheduledAt:   in.ScheduledAt,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

func (s *Service) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*Booking, int, error) {
	return s.bookings.ListByTenant(ctx, tenantID, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientUserID uuid.UUID, limit, offset int) ([]*Booking, int, error) {
	return s.bookings.ListByPatient(ctx, patientUserID, limit, offset)
}

func (s *Service) ListPayments(ctx context.Context, bookingID uuid.UUID) ([]*Payment, error) {
	return s.payments.ListByBooking(ctx, bookingID)
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	applied, err := s.bookings.UpdateStatus(ctx, id, BookingPending, BookingCancelled)
	if err != nil {
		return err
	}
	if !applied {
		return apperr.Conflict("only pending bookings can be cancelled")
	}
	return nil
}

// RequestPaymentLink creates a payment attempt with a fresh correlation id
// and opens a checkout session for it. The correlation id comes back in the
// gateway's webhook and is the only join key between the two.
func (s *Service) RequestPaymentLink(ctx context.Context, bookingID uuid.UUID) (*Payment, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != BookingPending {
		return nil, apperr.Conflict("booking is not awaiting payment")
	}

	p := &Payment{
		BookingID:     b.ID,
		CorrelationID: NewCorrelationID(s.now()),
		Amount:        b.Amount,
		Status:        PaymentPending,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, err
	}

	out, err := s.gateway.CreateCheckout(ctx, payments.CheckoutRequest{
		CorrelationID: p.CorrelationID,
		Amount:        p.Amount,
		Currency:      b.Currency,
		Description:   b.Service,
		ReturnURL:     s.returnURL,
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	p.PaymentURL = out.PaymentURL

	s.logger.Info().
		Str("booking_id", b.ID.String()).
		Str("correlation_id", p.CorrelationID).
		Msg("payment link requested")
	return p, nil
}

// Callback is the gateway's webhook payload. Every field is mandatory.
type Callback struct {
	Amount        json.Number `json:"amount"`
	AuthCode      string      `json:"auth_code"`
	CorrelationID string      `json:"merchant_reference"`
	StatusCode    string      `json:"status_code"`
	StatusText    string      `json:"status"`
	StoreID       string      `json:"store_id"`
	TransactionID string      `json:"transaction_id"`
}

// Approved reports whether the gateway settled the payment.
func (cb Callback) Approved() bool {
	return cb.StatusCode == "000" || strings.EqualFold(cb.StatusText, "approved")
}

// Reconcile applies a webhook callback to its payment. The whole
// read-decide-write sequence runs in one transaction with the payment row
// locked, so concurrent deliveries of the same callback serialize and the
// terminal transition is applied at most once. Replays against an already
// settled payment succeed without mutating anything.
func (s *Service) Reconcile(ctx context.Context, cb Callback) error {
	if cb.Amount == "" || cb.AuthCode == "" || cb.CorrelationID == "" || cb.StatusCode == "" ||
		cb.StatusText == "" || cb.StoreID == "" || cb.TransactionID == "" {
		return apperr.Validation("callback is missing required fields")
	}
	if cb.StoreID != s.gateway.StoreID() {
		s.logger.Warn().
			Str("store_id", cb.StoreID).
			Str("correlation_id", cb.CorrelationID).
			Msg("webhook store id mismatch")
		return apperr.Forbidden("store id mismatch")
	}

	return s.runTx(ctx, func(ctx context.Context) error {
		p, err := s.payments.GetByCorrelationIDForUpdate(ctx, cb.CorrelationID)
		if err != nil {
			return err
		}
		if p.Status != PaymentPending {
			// Retried delivery of a settled payment; acknowledge without
			// touching anything.
			return nil
		}

		if !cb.Approved() {
			if _, err := s.payments.MarkFailed(ctx, p.ID, cb.TransactionID); err != nil {
				return err
			}
			s.logger.Info().
				Str("correlation_id", cb.CorrelationID).
				Str("status_code", cb.StatusCode).
				Msg("payment failed")
			return nil
		}

		applied, err := s.payments.MarkPaid(ctx, p.ID, cb.TransactionID, cb.AuthCode, s.now())
		if err != nil {
			return err
		}
		if applied {
			if _, err := s.bookings.UpdateStatus(ctx, p.BookingID, BookingPending, BookingConfirmed); err != nil {
				return err
			}
			s.logger.Info().
				Str("correlation_id", cb.CorrelationID).
				Str("booking_id", p.BookingID.String()).
				Msg("payment reconciled")
		}
		return nil
	})
}
