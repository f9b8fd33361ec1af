package identity

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/carelink/carelink/internal/platform/apperr"
)

// SessionIssuer mints a bearer credential for an authenticated identity.
type SessionIssuer interface {
	Mint(userID, email, tenantID string, roles []string) (string, error)
}

type Service struct {
	users    UserRepository
	profiles ProfileRepository
	sessions SessionIssuer
}

func NewService(users UserRepository, profiles ProfileRepository, sessions SessionIssuer) *Service {
	return &Service{users: users, profiles: profiles, sessions: sessions}
}

// RegisterInput carries everything needed to create an identity. Role is
// the raw client string and is normalized through ParseRole.
type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, apperr.Validation("a valid email is required")
	}
	if len(in.Password) < 8 {
		return nil, apperr.Validation("password must be at least 8 characters")
	}
	if in.FirstName == "" || in.LastName == "" {
		return nil, apperr.Validation("first_name and last_name are required")
	}
	role, err := ParseRole(in.Role)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if role == RolePlatformAdmin {
		return nil, apperr.Forbidden("platform_admin cannot self-register")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	u := &User{
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: string(hash),
		Role:         role,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Active:       true,
	}
	if in.Phone != "" {
		u.Phone = &in.Phone
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	if role.Professional() {
		if err := s.profiles.Create(ctx, &Profile{UserID: u.ID}); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// Authenticate verifies credentials and mints a session token. Unknown
// email and wrong password produce the same error so probes learn nothing.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, string, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, "", apperr.Forbidden("invalid credentials")
		}
		return nil, "", err
	}
	if !u.Active {
		return nil, "", apperr.Forbidden("account is deactivated")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", apperr.Forbidden("invalid credentials")
	}
	token, err := s.sessions.Mint(u.ID.String(), u.Email, "", []string{string(u.Role)})
	if err != nil {
		return nil, "", apperr.Internal(err)
	}
	return u, token, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.users.GetByEmail(ctx, email)
}

func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	return s.profiles.GetByUserID(ctx, userID)
}

func (s *Service) UpdateProfile(ctx context.Context, p *Profile) error {
	if p.UserID == uuid.Nil {
		return apperr.Validation("user_id is required")
	}
	return s.profiles.Update(ctx, p)
}

func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	if len(next) < 8 {
		return apperr.Validation("password must be at least 8 characters")
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
		return apperr.Forbidden("current password is incorrect")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Internal(err)
	}
	return s.users.UpdatePassword(ctx, userID, string(hash))
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.users.List(ctx, limit, offset)
}
