package tenant

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelink/carelink/internal/platform/apperr"
	"github.com/carelink/carelink/internal/platform/db"
)

// Tenants live in the shared schema so they are visible regardless of the
// request's tenant search_path.

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

const tenantCols = `id, name, kind, approval, owner_user_id, email, phone, city, country, review_note, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, t *Tenant) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO shared.tenant (id, name, kind, approval, owner_user_id, email, phone, city, country)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.Name, t.Kind, t.Approval, t.OwnerUserID, t.Email, t.Phone, t.City, t.Country,
	)
	if db.IsUniqueViolation(err) {
		return apperr.Conflict("tenant name already taken")
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	t := &Tenant{}
	err := r.conn(ctx).QueryRow(ctx, `SELECT `+tenantCols+` FROM shared.tenant WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Kind, &t.Approval, &t.OwnerUserID, &t.Email, &t.Phone,
			&t.City, &t.Country, &t.ReviewNote, &t.CreatedAt, &t.UpdatedAt)
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("tenant not found")
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *repoPG) Update(ctx context.Context, t *Tenant) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE shared.tenant SET name=$2, approval=$3, email=$4, phone=$5, city=$6, country=$7, review_note=$8, updated_at=NOW()
		WHERE id = $1`,
		t.ID, t.Name, t.Approval, t.Email, t.Phone, t.City, t.Country, t.ReviewNote,
	)
	return err
}

func (r *repoPG) List(ctx context.Context, approval ApprovalStatus, limit, offset int) ([]*Tenant, int, error) {
	where, args := "", []interface{}{}
	if approval != "" {
		where = " WHERE approval = $1"
		args = append(args, approval)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM shared.tenant`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limitArgs := append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		fmt.Sprintf(`SELECT `+tenantCols+` FROM shared.tenant`+where+
			` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2),
		limitArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var tenants []*Tenant
	for rows.Next() {
		t := &Tenant{}
		if err := rows.Scan(&t.ID, &t.Name, &t.Kind, &t.Approval, &t.OwnerUserID, &t.Email,
			&t.Phone, &t.City, &t.Country, &t.ReviewNote, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, 0, err
		}
		tenants = append(tenants, t)
	}
	return tenants, total, rows.Err()
}

func (r *repoPG) AddBranch(ctx context.Context, b *Branch) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO shared.tenant_branch (id, tenant_id, name, address, phone, active)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		b.ID, b.TenantID, b.Name, b.Address, b.Phone, b.Active,
	)
	return err
}

func (r *repoPG) GetBranches(ctx context.Context, tenantID uuid.UUID) ([]*Branch, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, tenant_id, name, address, phone, active, created_at
		FROM shared.tenant_branch WHERE tenant_id = $1 ORDER BY name`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var branches []*Branch
	for rows.Next() {
		b := &Branch{}
		if err := rows.Scan(&b.ID, &b.TenantID, &b.Name, &b.Address, &b.Phone, &b.Active, &b.CreatedAt); err != nil {
			return nil, err
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

func (r *repoPG) UpdateBranch(ctx context.Context, b *Branch) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE shared.tenant_branch SET name=$2, address=$3, phone=$4, active=$5 WHERE id = $1`,
		b.ID, b.Name, b.Address, b.Phone, b.Active,
	)
	return err
}
