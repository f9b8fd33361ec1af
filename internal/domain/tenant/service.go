package tenant

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/carelink/internal/platform/apperr"
)

// SchemaProvisioner creates the tenant's isolated database schema. Invoked
// once, when a registration is approved.
type SchemaProvisioner interface {
	CreateTenantSchema(ctx context.Context, tenantID string) error
}

type Service struct {
	repo        Repository
	provisioner SchemaProvisioner
	logger      zerolog.Logger
}

func NewService(repo Repository, provisioner SchemaProvisioner, logger zerolog.Logger) *Service {
	return &Service{repo: repo, provisioner: provisioner, logger: logger}
}

type RegisterInput struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	City    string `json:"city"`
	Country string `json:"country"`
}

// Register files a provider registration for platform review. The tenant
// starts in pending_review and cannot operate until approved.
func (s *Service) Register(ctx context.Context, ownerUserID uuid.UUID, in RegisterInput) (*Tenant, error) {
	if in.Name == "" {
		return nil, apperr.Validation("name is required")
	}
	if in.Email == "" {
		return nil, apperr.Validation("email is required")
	}
	if ownerUserID == uuid.Nil {
		return nil, apperr.Validation("owner is required")
	}
	kind, err := ParseKind(in.Kind)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}

	t := &Tenant{
		Name:        in.Name,
		Kind:        kind,
		Approval:    ApprovalPending,
		OwnerUserID: ownerUserID,
		Email:       in.Email,
	}
	if in.Phone != "" {
		t.Phone = &in.Phone
	}
	if in.City != "" {
		t.City = &in.City
	}
	if in.Country != "" {
		t.Country = &in.Country
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info().Str("tenant_id", t.ID.String()).Str("kind", string(kind)).Msg("tenant registration filed")
	return t, nil
}

// Approve moves a pending registration to approved and provisions the
// tenant's schema. Only pending_review tenants can be approved.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Approval != ApprovalPending {
		return nil, apperr.Conflict(fmt.Sprintf("tenant is %s, only pending_review can be approved", t.Approval))
	}
	if err := s.provisioner.CreateTenantSchema(ctx, t.ID.String()); err != nil {
		return nil, apperr.Internal(fmt.Errorf("provision tenant schema: %w", err))
	}
	t.Approval = ApprovalApproved
	t.ReviewNote = nil
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info().Str("tenant_id", t.ID.String()).Msg("tenant approved")
	return t, nil
}

// Reject closes a pending registration with a moderator note.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, note string) (*Tenant, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Approval != ApprovalPending {
		return nil, apperr.Conflict(fmt.Sprintf("tenant is %s, only pending_review can be rejected", t.Approval))
	}
	t.Approval = ApprovalRejected
	if note != "" {
		t.ReviewNote = &note
	}
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Suspend takes an approved tenant off the platform without deleting it.
func (s *Service) Suspend(ctx context.Context, id uuid.UUID, note string) (*Tenant, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Approval != ApprovalApproved {
		return nil, apperr.Conflict(fmt.Sprintf("tenant is %s, only approved can be suspended", t.Approval))
	}
	t.Approval = ApprovalSuspended
	if note != "" {
		t.ReviewNote = &note
	}
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Warn().Str("tenant_id", t.ID.String()).Str("note", note).Msg("tenant suspended")
	return t, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, approval ApprovalStatus, limit, offset int) ([]*Tenant, int, error) {
	return s.repo.List(ctx, approval, limit, offset)
}

func (s *Service) AddBranch(ctx context.Context, b *Branch) error {
	if b.TenantID == uuid.Nil {
		return apperr.Validation("tenant_id is required")
	}
	if b.Name == "" {
		return apperr.Validation("name is required")
	}
	t, err := s.repo.GetByID(ctx, b.TenantID)
	if err != nil {
		return err
	}
	if t.Approval != ApprovalApproved {
		return apperr.Conflict("tenant is not approved")
	}
	b.Active = true
	return s.repo.AddBranch(ctx, b)
}

func (s *Service) ListBranches(ctx context.Context, tenantID uuid.UUID) ([]*Branch, error) {
	return s.repo.GetBranches(ctx, tenantID)
}

func (s *Service) UpdateBranch(ctx context.Context, b *Branch) error {
	if b.Name == "" {
		return apperr.Validation("name is required")
	}
	return s.repo.UpdateBranch(ctx, b)
}
