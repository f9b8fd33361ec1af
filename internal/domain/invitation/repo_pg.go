package invitation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelink/carelink/internal/platform/apperr"
	"github.com/carelink/carelink/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	if q := db.QuerierFromContext(ctx); q != nil {
		return q
	}
	return r.pool
}

const invCols = `id, tenant_id, email, role, token, status, expires_at, accepted_by, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, inv *Invitation) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO shared.invitation (id, tenant_id, email, role, token, status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		inv.ID, inv.TenantID, inv.Email, inv.Role, inv.Token, inv.Status, inv.ExpiresAt,
	)
	if db.IsUniqueViolation(err) {
		// Either the partial (tenant, email, pending) index or the token
		// index fired; callers see both as a duplicate invitation.
		return apperr.Conflict("a pending invitation already exists for this email")
	}
	return err
}

func (r *repoPG) GetByToken(ctx context.Context, token string) (*Invitation, error) {
	inv := &Invitation{}
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+invCols+` FROM shared.invitation WHERE token = $1`, token).
		Scan(&inv.ID, &inv.TenantID, &inv.Email, &inv.Role, &inv.Token, &inv.Status,
			&inv.ExpiresAt, &inv.AcceptedBy, &inv.CreatedAt, &inv.UpdatedAt)
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("invitation not found")
	}
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *repoPG) HasPending(ctx context.Context, tenantID uuid.UUID, email string, now time.Time) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM shared.invitation
			WHERE tenant_id = $1 AND lower(email) = lower($2) AND status = 'pending' AND expires_at > $3
		)`, tenantID, email, now).Scan(&exists)
	return exists, err
}

func (r *repoPG) ExpireOverdue(ctx context.Context, tenantID uuid.UUID, email string, now time.Time) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE shared.invitation SET status = 'expired', updated_at = NOW()
		WHERE tenant_id = $1 AND lower(email) = lower($2) AND status = 'pending' AND expires_at <= $3`,
		tenantID, email, now)
	return err
}

func (r *repoPG) Transition(ctx context.Context, id uuid.UUID, from, to Status) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE shared.invitation SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`,
		id, from, to)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repoPG) MarkAccepted(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE shared.invitation SET status = 'accepted', accepted_by = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`, id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repoPG) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*Invitation, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM shared.invitation WHERE tenant_id = $1`, tenantID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+invCols+` FROM shared.invitation WHERE tenant_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		tenantID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var invs []*Invitation
	for rows.Next() {
		inv := &Invitation{}
		if err := rows.Scan(&inv.ID, &inv.TenantID, &inv.Email, &inv.Role, &inv.Token, &inv.Status,
			&inv.ExpiresAt, &inv.AcceptedBy, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, 0, err
		}
		invs = append(invs, inv)
	}
	return invs, total, rows.Err()
}
