package membership

import (
	"context"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/domain/identity"
	"github.com/carelink/carelink/internal/platform/apperr"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Add creates a direct (non-invited) membership. The invitation flow
// creates invited memberships through the repository inside its own
// transaction.
func (s *Service) Add(ctx context.Context, tenantID, userID uuid.UUID, role identity.Role) (*Membership, error) {
	if tenantID == uuid.Nil || userID == uuid.Nil {
		return nil, apperr.Validation("tenant_id and user_id are required")
	}
	if !role.Professional() {
		return nil, apperr.Validation("role cannot hold tenant memberships")
	}
	m := &Membership{
		TenantID: tenantID,
		UserID:   userID,
		Role:     role,
		Active:   true,
		Invited:  false,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) Get(ctx context.Context, tenantID, userID uuid.UUID) (*Membership, error) {
	return s.repo.GetByTenantAndUser(ctx, tenantID, userID)
}

// IsActiveMember reports whether the user currently holds an active
// membership of the tenant.
func (s *Service) IsActiveMember(ctx context.Context, tenantID, userID uuid.UUID) (bool, error) {
	m, err := s.repo.GetByTenantAndUser(ctx, tenantID, userID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return false, nil
		}
		return false, err
	}
	return m.Active, nil
}

func (s *Service) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*Membership, int, error) {
	return s.repo.ListByTenant(ctx, tenantID, limit, offset)
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Membership, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Deactivate soft-removes a member. The row stays for audit.
func (s *Service) Deactivate(ctx context.Context, tenantID, userID uuid.UUID) error {
	m, err := s.repo.GetByTenantAndUser(ctx, tenantID, userID)
	if err != nil {
		return err
	}
	if !m.Active {
		return apperr.Conflict("membership is already deactivated")
	}
	return s.repo.Deactivate(ctx, m.ID)
}
