package identity

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/platform/apperr"
)

// -- Mock User Repository --

type mockUserRepo struct {
	users map[uuid.UUID]*User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uuid.UUID]*User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return apperr.Conflict("email already registered")
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	return u, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, apperr.NotFound("user not found")
}

func (m *mockUserRepo) Update(_ context.Context, u *User) error {
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	u, ok := m.users[id]
	if !ok {
		return apperr.NotFound("user not found")
	}
	u.PasswordHash = hash
	return nil
}

func (m *mockUserRepo) List(_ context.Context, limit, offset int) ([]*User, int, error) {
	var result []*User
	for _, u := range m.users {
		result = append(result, u)
	}
	return result, len(result), nil
}

// -- Mock Profile Repository --

type mockProfileRepo struct {
	profiles map[uuid.UUID]*Profile
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{profiles: make(map[uuid.UUID]*Profile)}
}

func (m *mockProfileRepo) Create(_ context.Context, p *Profile) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.profiles[p.UserID] = p
	return nil
}

func (m *mockProfileRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*Profile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return nil, apperr.NotFound("profile not found")
	}
	return p, nil
}

func (m *mockProfileRepo) Update(_ context.Context, p *Profile) error {
	m.profiles[p.UserID] = p
	return nil
}

type stubIssuer struct{}

func (stubIssuer) Mint(userID, email, tenantID string, roles []string) (string, error) {
	return "token-" + userID, nil
}

func newTestService() (*Service, *mockUserRepo, *mockProfileRepo) {
	users := newMockUserRepo()
	profiles := newMockProfileRepo()
	return NewService(users, profiles, stubIssuer{}), users, profiles
}

func TestRegister(t *testing.T) {
	svc, _, profiles := newTestService()

	u, err := svc.Register(context.Background(), RegisterInput{
		Email:     "Dr.X@Example.com",
		Password:  "supersecret",
		Role:      "DOCTOR",
		FirstName: "Xavier",
		LastName:  "Xu",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if u.Email != "dr.x@example.com" {
		t.Errorf("email not normalized: %q", u.Email)
	}
	if u.Role != RoleDoctor {
		t.Errorf("role = %q, want doctor", u.Role)
	}
	if u.PasswordHash == "supersecret" || u.PasswordHash == "" {
		t.Error("password stored unhashed")
	}
	if _, err := profiles.GetByUserID(context.Background(), u.ID); err != nil {
		t.Error("professional registration should create a profile")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	cases := []RegisterInput{
		{Email: "no-at-sign", Password: "supersecret", Role: "doctor", FirstName: "A", LastName: "B"},
		{Email: "a@b.com", Password: "short", Role: "doctor", FirstName: "A", LastName: "B"},
		{Email: "a@b.com", Password: "supersecret", Role: "wizard", FirstName: "A", LastName: "B"},
		{Email: "a@b.com", Password: "supersecret", Role: "doctor", FirstName: "", LastName: "B"},
	}
	for i, in := range cases {
		if _, err := svc.Register(ctx, in); apperr.KindOf(err) != apperr.KindValidation {
			t.Errorf("case %d: error = %v, want validation error", i, err)
		}
	}

	if _, err := svc.Register(ctx, RegisterInput{
		Email: "a@b.com", Password: "supersecret", Role: "platform_admin", FirstName: "A", LastName: "B",
	}); apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("platform_admin self-registration: error = %v, want forbidden", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	in := RegisterInput{Email: "a@b.com", Password: "supersecret", Role: "patient", FirstName: "A", LastName: "B"}
	if _, err := svc.Register(ctx, in); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	if _, err := svc.Register(ctx, in); apperr.KindOf(err) != apperr.KindConflict {
		t.Errorf("second Register() error = %v, want conflict", err)
	}
}

func TestAuthenticate(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{
		Email: "a@b.com", Password: "supersecret", Role: "patient", FirstName: "A", LastName: "B",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	got, token, err := svc.Authenticate(ctx, "a@b.com", "supersecret")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if got.ID != u.ID {
		t.Error("authenticated wrong user")
	}
	if token == "" {
		t.Error("expected a session token")
	}

	if _, _, err := svc.Authenticate(ctx, "a@b.com", "wrongpass"); apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("wrong password: error = %v, want forbidden", err)
	}
	if _, _, err := svc.Authenticate(ctx, "ghost@b.com", "supersecret"); apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("unknown email: error = %v, want forbidden (not not-found)", err)
	}
}

func TestAuthenticateDeactivated(t *testing.T) {
	svc, users, _ := newTestService()
	ctx := context.Background()

	u, _ := svc.Register(ctx, RegisterInput{
		Email: "a@b.com", Password: "supersecret", Role: "patient", FirstName: "A", LastName: "B",
	})
	u.Active = false
	_ = users.Update(ctx, u)

	if _, _, err := svc.Authenticate(ctx, "a@b.com", "supersecret"); apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("deactivated account: error = %v, want forbidden", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	u, _ := svc.Register(ctx, RegisterInput{
		Email: "a@b.com", Password: "supersecret", Role: "patient", FirstName: "A", LastName: "B",
	})

	if err := svc.ChangePassword(ctx, u.ID, "wrong", "newsecret99"); apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("wrong current password: error = %v, want forbidden", err)
	}
	if err := svc.ChangePassword(ctx, u.ID, "supersecret", "newsecret99"); err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}
	if _, _, err := svc.Authenticate(ctx, "a@b.com", "newsecret99"); err != nil {
		t.Errorf("Authenticate() with new password error = %v", err)
	}
}
