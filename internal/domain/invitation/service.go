package invitation

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/carelink/carelink/internal/domain/identity"
	"github.com/carelink/carelink/internal/domain/membership"
	"github.com/carelink/carelink/internal/domain/tenant"
	"github.com/carelink/carelink/internal/platform/apperr"
)

// DefaultTTL is how long an invitation stays acceptable.
const DefaultTTL = 7 * 24 * time.Hour

// TxRunner runs fn inside a single database transaction. Repositories
// invoked from fn pick the transaction up from the context.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// TenantDirectory is the slice of the tenant domain this workflow needs.
type TenantDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error)
}

// Notifier delivers the invitation link. Failures are logged, never fatal.
type Notifier interface {
	Send(ctx context.Context, to, templateID string, data map[string]string) error
}

// SessionIssuer mints a bearer credential for a freshly created identity.
type SessionIssuer interface {
	Mint(userID, email, tenantID string, roles []string) (string, error)
}

type Service struct {
	invitations Repository
	users       identity.UserRepository
	profiles    identity.ProfileRepository
	memberships membership.Repository
	tenants     TenantDirectory
	sessions    SessionIssuer
	notify      Notifier
	runTx       TxRunner
	baseURL     string
	ttl         time.Duration
	now         func() time.Time
	logger      zerolog.Logger
}

type ServiceConfig struct {
	Invitations Repository
	Users       identity.UserRepository
	Profiles    identity.ProfileRepository
	Memberships membership.Repository
	Tenants     TenantDirectory
	Sessions    SessionIssuer
	Notifier    Notifier
	TxRunner    TxRunner
	BaseURL     string
	TTL         time.Duration
	Now         func() time.Time
	Logger      zerolog.Logger
}

func NewService(cfg ServiceConfig) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		invitations: cfg.Invitations,
		users:       cfg.Users,
		profiles:    cfg.Profiles,
		memberships: cfg.Memberships,
		tenants:     cfg.Tenants,
		sessions:    cfg.Sessions,
		notify:      cfg.Notifier,
		runTx:       cfg.TxRunner,
		baseURL:     cfg.BaseURL,
		ttl:         cfg.TTL,
		now:         cfg.Now,
		logger:      cfg.Logger,
	}
}

// Issue creates a pending invitation for (tenant, email) and sends the
// invite link. At most one unexpired pending invitation may exist per
// pair, and an email that is already an active member cannot be invited.
func (s *Service) Issue(ctx context.Context, tenantID uuid.UUID, email, role string) (*Invitation, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.Validation("a valid email is required")
	}
	parsedRole, err := identity.ParseRole(role)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if !parsedRole.Professional() {
		return nil, apperr.Validation("invitations are only for professional roles")
	}

	t, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if t.Approval != tenant.ApprovalApproved {
		return nil, apperr.Conflict("tenant is not approved")
	}

	if u, err := s.users.GetByEmail(ctx, email); err == nil {
		member, merr := s.memberships.GetByTenantAndUser(ctx, tenantID, u.ID)
		if merr == nil && member.Active {
			return nil, apperr.Conflict("email is already an active member of this tenant")
		}
		if merr != nil && apperr.KindOf(merr) != apperr.KindNotFound {
			return nil, merr
		}
	} else if apperr.KindOf(err) != apperr.KindNotFound {
		return nil, err
	}

	now := s.now()
	// An overdue pending row still holds the unique pending slot for the
	// pair until something reads it. Retire it here so re-inviting works.
	if err := s.invitations.ExpireOverdue(ctx, tenantID, email, now); err != nil {
		return nil, err
	}
	pending, err := s.invitations.HasPending(ctx, tenantID, email, now)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, apperr.Conflict("a pending invitation already exists for this email")
	}

	token, err := NewToken()
	if err != nil {
		return nil, apperr.Internal(err)
	}
	inv := &Invitation{
		TenantID:  tenantID,
		Email:     email,
		Role:      parsedRole,
		Token:     token,
		Status:    StatusPending,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.invitations.Create(ctx, inv); err != nil {
		return nil, err
	}

	if s.notify != nil {
		data := map[string]string{
			"tenant_name": t.Name,
			"invite_link": s.baseURL + "/invitations/" + token,
			"expires_at":  inv.ExpiresAt.Format("2006-01-02"),
		}
		if err := s.notify.Send(ctx, email, "invitation", data); err != nil {
			s.logger.Warn().Err(err).Str("invitation_id", inv.ID.String()).Msg("invitation email failed")
		}
	}

	s.logger.Info().
		Str("invitation_id", inv.ID.String()).
		Str("tenant_id", tenantID.String()).
		Msg("invitation issued")
	return inv, nil
}

// Validation is what untrusted callers learn about a token. The token
// itself is never echoed back.
type Validation struct {
	IsValid    bool       `json:"is_valid"`
	Email      string     `json:"email,omitempty"`
	TenantID   *uuid.UUID `json:"tenant_id,omitempty"`
	TenantName string     `json:"tenant_name,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// Validate looks a token up. An unknown token is a negative result, not an
// error: this endpoint is probed by untrusted callers. Reading an
// overdue pending invitation flips it to expired as a side effect.
func (s *Service) Validate(ctx context.Context, token string) (*Validation, error) {
	inv, err := s.invitations.GetByToken(ctx, token)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return &Validation{IsValid: false}, nil
		}
		return nil, err
	}

	if inv.Status == StatusPending && inv.Expired(s.now()) {
		if _, err := s.invitations.Transition(ctx, inv.ID, StatusPending, StatusExpired); err != nil {
			return nil, err
		}
		return &Validation{IsValid: false}, nil
	}
	if inv.Status != StatusPending {
		return &Validation{IsValid: false}, nil
	}

	v := &Validation{
		IsValid:   true,
		Email:     inv.Email,
		TenantID:  &inv.TenantID,
		ExpiresAt: &inv.ExpiresAt,
	}
	if t, err := s.tenants.GetByID(ctx, inv.TenantID); err == nil {
		v.TenantName = t.Name
	}
	return v, nil
}

// AcceptInput is the registration payload accompanying an accept. The
// password block is only consulted when the invited email has no identity
// yet.
type AcceptInput struct {
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// AcceptResult reports what accepting produced. SessionToken is set only
// when a new identity was created.
type AcceptResult struct {
	Invitation   *Invitation            `json:"invitation"`
	Membership   *membership.Membership `json:"membership"`
	User         *identity.User         `json:"user"`
	SessionToken string                 `json:"session_token,omitempty"`
}

// Accept finalizes an invitation. When the invited email already has an
// identity the caller must be authenticated as that identity; otherwise the
// payload registers a new one. Either branch runs in a single transaction,
// and replaying an accept returns the existing membership instead of
// creating a duplicate.
func (s *Service) Accept(ctx context.Context, token string, in AcceptInput, callerUserID string) (*AcceptResult, error) {
	inv, err := s.invitations.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	switch inv.Status {
	case StatusPending:
		if inv.Expired(s.now()) {
			if _, err := s.invitations.Transition(ctx, inv.ID, StatusPending, StatusExpired); err != nil {
				return nil, err
			}
			return nil, apperr.Expired("invitation has expired")
		}
	case StatusAccepted:
		// Replay of a completed accept: succeed idempotently when the
		// caller is the identity that accepted, otherwise conflict.
		return s.replayAccepted(ctx, inv, callerUserID)
	case StatusRejected:
		return nil, apperr.Conflict("invitation was rejected")
	case StatusExpired:
		return nil, apperr.Expired("invitation has expired")
	}

	existing, err := s.users.GetByEmail(ctx, inv.Email)
	switch {
	case err == nil:
		return s.acceptExisting(ctx, inv, existing, callerUserID)
	case apperr.KindOf(err) == apperr.KindNotFound:
		return s.acceptNew(ctx, inv, in)
	default:
		return nil, err
	}
}

// acceptExisting links an already-registered identity to the tenant. The
// caller must be authenticated as the invited identity; a missing or
// mismatched auth context is rejected outright.
func (s *Service) acceptExisting(ctx context.Context, inv *Invitation, u *identity.User, callerUserID string) (*AcceptResult, error) {
	if callerUserID == "" {
		return nil, apperr.Forbidden("authentication required: the invited email already has an account")
	}
	if callerUserID != u.ID.String() {
		return nil, apperr.Forbidden("invitation was issued to a different account")
	}

	result := &AcceptResult{User: u}
	err := s.runTx(ctx, func(ctx context.Context) error {
		member, err := s.memberships.GetByTenantAndUser(ctx, inv.TenantID, u.ID)
		if err == nil {
			// Already a member; mark the invitation done and succeed.
			if _, err := s.invitations.MarkAccepted(ctx, inv.ID, u.ID); err != nil {
				return err
			}
			result.Membership = member
			return nil
		}
		if apperr.KindOf(err) != apperr.KindNotFound {
			return err
		}

		member = &membership.Membership{
			TenantID: inv.TenantID,
			UserID:   u.ID,
			Role:     inv.Role,
			Active:   true,
			Invited:  true,
		}
		if err := s.memberships.Create(ctx, member); err != nil {
			return err
		}
		applied, err := s.invitations.MarkAccepted(ctx, inv.ID, u.ID)
		if err != nil {
			return err
		}
		if !applied {
			// Lost a race with a concurrent accept; roll everything back.
			return apperr.Conflict("invitation was already processed")
		}
		result.Membership = member
		return nil
	})
	if err != nil {
		return nil, err
	}

	inv.Status = StatusAccepted
	acceptedBy := u.ID
	inv.AcceptedBy = &acceptedBy
	result.Invitation = inv
	s.logger.Info().
		Str("invitation_id", inv.ID.String()).
		Str("user_id", u.ID.String()).
		Msg("invitation accepted by existing identity")
	return result, nil
}

// acceptNew registers the invitee and joins them to the tenant in one
// transaction: identity, profile, membership and the status flip all land
// or none do.
func (s *Service) acceptNew(ctx context.Context, inv *Invitation, in AcceptInput) (*AcceptResult, error) {
	if len(in.Password) < 8 {
		return nil, apperr.Validation("password must be at least 8 characters")
	}
	if in.FirstName == "" || in.LastName == "" {
		return nil, apperr.Validation("first_name and last_name are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	result := &AcceptResult{}
	err = s.runTx(ctx, func(ctx context.Context) error {
		u := &identity.User{
			Email:        inv.Email,
			PasswordHash: string(hash),
			Role:         inv.Role,
			FirstName:    in.FirstName,
			LastName:     in.LastName,
			Active:       true,
		}
		if in.Phone != "" {
			u.Phone = &in.Phone
		}
		if err := s.users.Create(ctx, u); err != nil {
			return err
		}
		if err := s.profiles.Create(ctx, &identity.Profile{UserID: u.ID}); err != nil {
			return err
		}
		member := &membership.Membership{
			TenantID: inv.TenantID,
			UserID:   u.ID,
			Role:     inv.Role,
			Active:   true,
			Invited:  false,
		}
		if err := s.memberships.Create(ctx, member); err != nil {
			return err
		}
		applied, err := s.invitations.MarkAccepted(ctx, inv.ID, u.ID)
		if err != nil {
			return err
		}
		if !applied {
			return apperr.Conflict("invitation was already processed")
		}
		result.User = u
		result.Membership = member
		return nil
	})
	if err != nil {
		return nil, err
	}

	sessionToken, err := s.sessions.Mint(result.User.ID.String(), result.User.Email,
		inv.TenantID.String(), []string{string(inv.Role)})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	result.SessionToken = sessionToken

	inv.Status = StatusAccepted
	acceptedBy := result.User.ID
	inv.AcceptedBy = &acceptedBy
	result.Invitation = inv
	s.logger.Info().
		Str("invitation_id", inv.ID.String()).
		Str("user_id", result.User.ID.String()).
		Msg("invitation accepted with new identity")
	return result, nil
}

func (s *Service) replayAccepted(ctx context.Context, inv *Invitation, callerUserID string) (*AcceptResult, error) {
	if inv.AcceptedBy == nil || callerUserID != inv.AcceptedBy.String() {
		return nil, apperr.Conflict("invitation was already accepted")
	}
	member, err := s.memberships.GetByTenantAndUser(ctx, inv.TenantID, *inv.AcceptedBy)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, *inv.AcceptedBy)
	if err != nil {
		return nil, err
	}
	return &AcceptResult{Invitation: inv, Membership: member, User: u}, nil
}

// Reject declines a pending invitation. Anything else, including a second
// reject, conflicts.
func (s *Service) Reject(ctx context.Context, token string) (*Invitation, error) {
	inv, err := s.invitations.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if inv.Status == StatusPending && inv.Expired(s.now()) {
		if _, err := s.invitations.Transition(ctx, inv.ID, StatusPending, StatusExpired); err != nil {
			return nil, err
		}
		return nil, apperr.Expired("invitation has expired")
	}
	applied, err := s.invitations.Transition(ctx, inv.ID, StatusPending, StatusRejected)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, apperr.Conflict("invitation was already processed")
	}
	inv.Status = StatusRejected
	s.logger.Info().Str("invitation_id", inv.ID.String()).Msg("invitation rejected")
	return inv, nil
}

func (s *Service) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*Invitation, int, error) {
	return s.invitations.ListByTenant(ctx, tenantID, limit, offset)
}
