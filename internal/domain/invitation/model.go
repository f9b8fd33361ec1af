package invitation

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/domain/identity"
)

// Status is the invitation lifecycle state. Transitions are one-way:
// pending moves to exactly one of accepted, rejected or expired, and the
// terminal states never change again.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// Invitation maps to the shared.invitation table: a time-limited,
// token-bearing offer for an email address to join a tenant. Rows are kept
// forever as an audit trail.
type Invitation struct {
	ID         uuid.UUID     `db:"id" json:"id"`
	TenantID   uuid.UUID     `db:"tenant_id" json:"tenant_id"`
	Email      string        `db:"email" json:"email"`
	Role       identity.Role `db:"role" json:"role"`
	Token      string        `db:"token" json:"-"`
	Status     Status        `db:"status" json:"status"`
	ExpiresAt  time.Time     `db:"expires_at" json:"expires_at"`
	AcceptedBy *uuid.UUID    `db:"accepted_by" json:"accepted_by,omitempty"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at" json:"updated_at"`
}

// Expired reports whether the invitation's deadline has passed. Status is
// not consulted; callers pair this with a status check.
func (i *Invitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

const tokenBytes = 32

// NewToken returns an unpadded base64url token over 32 random bytes.
func NewToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate invitation token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
