package tenant

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, t *Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	Update(ctx context.Context, t *Tenant) error
	List(ctx context.Context, approval ApprovalStatus, limit, offset int) ([]*Tenant, int, error)

	// Branches
	AddBranch(ctx context.Context, b *Branch) error
	GetBranches(ctx context.Context, tenantID uuid.UUID) ([]*Branch, error)
	UpdateBranch(ctx context.Context, b *Branch) error
}
