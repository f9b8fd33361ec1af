package booking

import (
	"crypto/rand"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// BookingStatus tracks the patient-facing appointment lifecycle.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingCompleted BookingStatus = "COMPLETED"
)

// PaymentStatus tracks one collection attempt. PENDING moves exactly once
// to PAID or FAILED; terminal states never change.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
)

// Booking maps to the booking table.
type Booking struct {
	ID            uuid.UUID     `db:"id" json:"id"`
	TenantID      uuid.UUID     `db:"tenant_id" json:"tenant_id"`
	PatientUserID uuid.UUID     `db:"patient_user_id" json:"patient_user_id"`
	BranchID      *uuid.UUID    `db:"branch_id" json:"branch_id,omitempty"`
	Service       string        `db:"service" json:"service"`
	Amount        float64       `db:"amount" json:"amount"`
	Currency      string        `db:"currency" json:"currency"`
	Status        BookingStatus `db:"status" json:"status"`
	ScheduledAt   *time.Time    `db:"scheduled_at" json:"scheduled_at,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// Payment maps to the payment table: one attempt to collect a booking's
// amount through the gateway. A booking may accumulate attempts but at
// most one may reach PAID. Rows are never deleted.
type Payment struct {
	ID            uuid.UUID     `db:"id" json:"id"`
	BookingID     uuid.UUID     `db:"booking_id" json:"booking_id"`
	CorrelationID string        `db:"correlation_id" json:"correlation_id"`
	Amount        float64       `db:"amount" json:"amount"`
	Status        PaymentStatus `db:"status" json:"status"`
	GatewayTxnID  *string       `db:"gateway_txn_id" json:"gateway_txn_id,omitempty"`
	AuthCode      *string       `db:"auth_code" json:"auth_code,omitempty"`
	PaymentURL    string        `db:"-" json:"payment_url,omitempty"`
	PaidAt        *time.Time    `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}

// NewCorrelationID returns a ULID: unique, lexicographically sortable by
// creation time, and safe to hand to the gateway as a merchant reference.
func NewCorrelationID(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), rand.Reader).String()
}
