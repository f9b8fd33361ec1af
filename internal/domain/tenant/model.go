package tenant

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind is the closed set of provider organization types on the platform.
type Kind string

const (
	KindClinic     Kind = "clinic"
	KindPharmacy   Kind = "pharmacy"
	KindLaboratory Kind = "laboratory"
	KindAmbulance  Kind = "ambulance"
	KindStore      Kind = "store"
)

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "clinic":
		return KindClinic, nil
	case "pharmacy":
		return KindPharmacy, nil
	case "laboratory", "lab":
		return KindLaboratory, nil
	case "ambulance":
		return KindAmbulance, nil
	case "store", "medical_supply_store":
		return KindStore, nil
	default:
		return "", fmt.Errorf("unknown tenant kind: %q", s)
	}
}

// ApprovalStatus tracks platform moderation of a tenant's registration.
// It is independent of membership activity: a member can be deactivated
// without touching the tenant's approval, and vice versa.
type ApprovalStatus string

const (
	ApprovalPending   ApprovalStatus = "pending_review"
	ApprovalApproved  ApprovalStatus = "approved"
	ApprovalRejected  ApprovalStatus = "rejected"
	ApprovalSuspended ApprovalStatus = "suspended"
)

// Tenant maps to the shared.tenant table.
type Tenant struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Kind        Kind           `db:"kind" json:"kind"`
	Approval    ApprovalStatus `db:"approval" json:"approval"`
	OwnerUserID uuid.UUID      `db:"owner_user_id" json:"owner_user_id"`
	Email       string         `db:"email" json:"email"`
	Phone       *string        `db:"phone" json:"phone,omitempty"`
	City        *string        `db:"city" json:"city,omitempty"`
	Country     *string        `db:"country" json:"country,omitempty"`
	ReviewNote  *string        `db:"review_note" json:"review_note,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// Branch maps to the shared.tenant_branch table. A tenant serves patients
// out of one or more branches.
type Branch struct {
	ID        uuid.UUID `db:"id" json:"id"`
	TenantID  uuid.UUID `db:"tenant_id" json:"tenant_id"`
	Name      string    `db:"name" json:"name"`
	Address   *string   `db:"address" json:"address,omitempty"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
