package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type BookingRepository interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	// UpdateStatus applies from -> to only if the row is still in from,
	// reporting whether the update was applied.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to BookingStatus) (bool, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*Booking, int, error)
	ListByPatient(ctx context.Context, patientUserID uuid.UUID, limit, offset int) ([]*Booking, int, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
	GetByCorrelationID(ctx context.Context, correlationID string) (*Payment, error)
	// GetByCorrelationIDForUpdate row-locks the payment so concurrent
	// webhook deliveries for the same correlation id serialize. Only
	// meaningful inside a transaction.
	GetByCorrelationIDForUpdate(ctx context.Context, correlationID string) (*Payment, error)
	// MarkPaid is the guarded PENDING -> PAID transition.
	MarkPaid(ctx context.Context, id uuid.UUID, gatewayTxnID, authCode string, paidAt time.Time) (bool, error)
	// MarkFailed is the guarded PENDING -> FAILED transition.
	MarkFailed(ctx context.Context, id uuid.UUID, gatewayTxnID string) (bool, error)
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*Payment, error)
}
