package identity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of roles an identity can hold. Free-text role
// strings from clients go through ParseRole; nothing else constructs one.
type Role string

const (
	RoleDoctor        Role = "doctor"
	RoleNurse         Role = "nurse"
	RolePharmacist    Role = "pharmacist"
	RoleLabTech       Role = "lab_tech"
	RolePatient       Role = "patient"
	RoleTenantAdmin   Role = "tenant_admin"
	RolePlatformAdmin Role = "platform_admin"
)

// ParseRole is the single normalization point for role strings. It folds
// case and common aliases onto the canonical value and rejects anything
// outside the closed set.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "doctor", "physician":
		return RoleDoctor, nil
	case "nurse":
		return RoleNurse, nil
	case "pharmacist":
		return RolePharmacist, nil
	case "lab_tech", "laboratory_technician":
		return RoleLabTech, nil
	case "patient":
		return RolePatient, nil
	case "tenant_admin", "clinic_admin":
		return RoleTenantAdmin, nil
	case "platform_admin":
		return RolePlatformAdmin, nil
	default:
		return "", fmt.Errorf("unknown role: %q", s)
	}
}

// Professional reports whether the role can hold tenant memberships.
func (r Role) Professional() bool {
	switch r {
	case RoleDoctor, RoleNurse, RolePharmacist, RoleLabTech:
		return true
	}
	return false
}

// User maps to the app_user table. PasswordHash never leaves the server.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         Role      `db:"role" json:"role"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	Phone        *string   `db:"phone" json:"phone,omitempty"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Profile maps to the professional_profile table. One row per professional
// user; patients have none.
type Profile struct {
	ID            uuid.UUID `db:"id" json:"id"`
	UserID        uuid.UUID `db:"user_id" json:"user_id"`
	Specialty     *string   `db:"specialty" json:"specialty,omitempty"`
	LicenseNumber *string   `db:"license_number" json:"license_number,omitempty"`
	Bio           *string   `db:"bio" json:"bio,omitempty"`
	YearsOfExp    *int      `db:"years_of_exp" json:"years_of_exp,omitempty"`
	PhotoURL      *string   `db:"photo_url" json:"photo_url,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
