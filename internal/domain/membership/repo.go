package membership

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, m *Membership) error
	GetByTenantAndUser(ctx context.Context, tenantID, userID uuid.UUID) (*Membership, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*Membership, int, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Membership, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}
