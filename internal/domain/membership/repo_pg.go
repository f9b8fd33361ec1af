package membership

import (
	"context"

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

const memberCols = `id, tenant_id, user_id, role, active, invited, created_at, deactivated_at`

func (r *repoPG) Create(ctx context.Context, m *Membership) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO shared.tenant_member (id, tenant_id, user_id, role, active, invited)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.TenantID, m.UserID, m.Role, m.Active, m.Invited,
	)
	if db.IsUniqueViolation(err) {
		return apperr.Conflict("already a member of this tenant")
	}
	return err
}

func (r *repoPG) GetByTenantAndUser(ctx context.Context, tenantID, userID uuid.UUID) (*Membership, error) {
	m := &Membership{}
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+memberCols+` FROM shared.tenant_member WHERE tenant_id = $1 AND user_id = $2`,
		tenantID, userID).
		Scan(&m.ID, &m.TenantID, &m.UserID, &m.Role, &m.Active, &m.Invited, &m.CreatedAt, &m.DeactivatedAt)
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("membership not found")
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *repoPG) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*Membership, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM shared.tenant_member WHERE tenant_id = $1`, tenantID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+memberCols+` FROM shared.tenant_member WHERE tenant_id = $1 ORDER BY created_at LIMIT $2 OFFSET $3`,
		tenantID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var members []*Membership
	for rows.Next() {
		m := &Membership{}
		if err := rows.Scan(&m.ID, &m.TenantID, &m.UserID, &m.Role, &m.Active, &m.Invited,
			&m.CreatedAt, &m.DeactivatedAt); err != nil {
			return nil, 0, err
		}
		members = append(members, m)
	}
	return members, total, rows.Err()
}

func (r *repoPG) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Membership, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+memberCols+` FROM shared.tenant_member WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*Membership
	for rows.Next() {
		m := &Membership{}
		if err := rows.Scan(&m.ID, &m.TenantID, &m.UserID, &m.Role, &m.Active, &m.Invited,
			&m.CreatedAt, &m.DeactivatedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *repoPG) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE shared.tenant_member SET active = false, deactivated_at = NOW() WHERE id = $1 AND active`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("active membership not found")
	}
	return nil
}
