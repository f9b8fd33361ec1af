package membership

import (
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/domain/identity"
)

// Membership maps to the shared.tenant_member table: the accepted
// association between a professional identity and a tenant. At most one
// row per (tenant, user). Rows are deactivated, never deleted.
type Membership struct {
	ID            uuid.UUID     `db:"id" json:"id"`
	TenantID      uuid.UUID     `db:"tenant_id" json:"tenant_id"`
	UserID        uuid.UUID     `db:"user_id" json:"user_id"`
	Role          identity.Role `db:"role" json:"role"`
	Active        bool          `db:"active" json:"active"`
	Invited       bool          `db:"invited" json:"invited"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	DeactivatedAt *time.Time    `db:"deactivated_at" json:"deactivated_at,omitempty"`
}
