package invitation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, inv *Invitation) error
	GetByToken(ctx context.Context, token string) (*Invitation, error)
	// HasPending reports whether an unexpired pending invitation exists
	// for the (tenant, email) pair.
	HasPending(ctx context.Context, tenantID uuid.UUID, email string, now time.Time) (bool, error)
	// ExpireOverdue flips overdue pending invitations for the pair to
	// expired so they stop occupying the pending slot.
	ExpireOverdue(ctx context.Context, tenantID uuid.UUID, email string, now time.Time) error
	// Transition applies from -> to only if the row is still in from,
	// reporting whether the update was applied.
	Transition(ctx context.Context, id uuid.UUID, from, to Status) (bool, error)
	// MarkAccepted is the guarded pending -> accepted transition, recording
	// the identity that accepted.
	MarkAccepted(ctx context.Context, id, userID uuid.UUID) (bool, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*Invitation, int, error)
}
