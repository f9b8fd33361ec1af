package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelink/carelink/internal/platform/apperr"
	"github.com/carelink/carelink/internal/platform/db"
)

// -- Booking Repository --

type bookingRepoPG struct {
	pool *pgxpool.Pool
}

func NewBookingRepo(pool *pgxpool.Pool) BookingRepository {
	return &bookingRepoPG{pool: pool}
}

func (r *bookingRepoPG) conn(ctx context.Context) db.Querier {
	if q := db.QuerierFromContext(ctx); q != nil {
		return q
	}
	return r.pool
}

const bookingCols = `id, tenant_id, patient_user_id, branch_id, service, amount, currency, status, scheduled_at, created_at, updated_at`

func (r *bookingRepoPG) Create(ctx context.Context, b *Booking) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO booking (id, tenant_id, patient_user_id, branch_id, service, amount, currency, status, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		b.ID, b.TenantID, b.PatientUserID, b.BranchID, b.Service, b.Amount, b.Currency, b.Status, b.ScheduledAt,
	)
	return err
}

func (r *bookingRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	b := &Booking{}
	err := r.conn(ctx).QueryRow(ctx, `SELECT `+bookingCols+` FROM booking WHERE id = $1`, id).
		Scan(&b.ID, &b.TenantID, &b.PatientUserID, &b.BranchID, &b.Service, &b.Amount, &b.Currency,
			&b.Status, &b.ScheduledAt, &b.CreatedAt, &b.UpdatedAt)
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("booking not found")
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *bookingRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, from, to BookingStatus) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE booking SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`, id, from, to)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *bookingRepoPG) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*Booking, int, error) {
	return r.list(ctx, `tenant_id`, tenantID, limit, offset)
}

func (r *bookingRepoPG) ListByPatient(ctx context.Context, patientUserID uuid.UUID, limit, offset int) ([]*Booking, int, error) {
	return r.list(ctx, `patient_user_id`, patientUserID, limit, offset)
}

func (r *bookingRepoPG) list(ctx context.Context, col string, key uuid.UUID, limit, offset int) ([]*Booking, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM booking WHERE `+col+` = $1`, key).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+bookingCols+` FROM booking WHERE `+col+` = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		key, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var bookings []*Booking
	for rows.Next() {
		b := &Booking{}
		if err := rows.Scan(&b.ID, &b.TenantID, &b.PatientUserID, &b.BranchID, &b.Service, &b.Amount,
			&b.Currency, &b.Status, &b.ScheduledAt, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, 0, err
		}
		bookings = append(bookings, b)
	}
	return bookings, total, rows.Err()
}

// -- Payment Repository --

type paymentRepoPG struct {
	pool *pgxpool.Pool
}

func NewPaymentRepo(pool *pgxpool.Pool) PaymentRepository {
	return &paymentRepoPG{pool: pool}
}

func (r *paymentRepoPG) conn(ctx context.Context) db.Querier {
	if q := db.QuerierFromContext(ctx); q != nil {
		return q
	}
	return r.pool
}

const paymentCols = `id, booking_id, correlation_id, amount, status, gateway_txn_id, auth_code, paid_at, created_at`

func (r *paymentRepoPG) Create(ctx context.Context, p *Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO payment (id, booking_id, correlation_id, amount, status)
		VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.BookingID, p.CorrelationID, p.Amount, p.Status,
	)
	if db.IsUniqueViolation(err) {
		return apperr.Conflict("correlation id already used")
	}
	return err
}

func (r *paymentRepoPG) GetByCorrelationID(ctx context.Context, correlationID string) (*Payment, error) {
	return r.getByCorrelationID(ctx, correlationID, "")
}

func (r *paymentRepoPG) GetByCorrelationIDForUpdate(ctx context.Context, correlationID string) (*Payment, error) {
	return r.getByCorrelationID(ctx, correlationID, " FOR UPDATE")
}

func (r *paymentRepoPG) getByCorrelationID(ctx context.Context, correlationID, suffix string) (*Payment, error) {
	p := &Payment{}
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+paymentCols+` FROM payment WHERE correlation_id = $1`+suffix, correlationID).
		Scan(&p.ID, &p.BookingID, &p.CorrelationID, &p.Amount, &p.Status, &p.GatewayTxnID,
			&p.AuthCode, &p.PaidAt, &p.CreatedAt)
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("payment not found")
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *paymentRepoPG) MarkPaid(ctx context.Context, id uuid.UUID, gatewayTxnID, authCode string, paidAt time.Time) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE payment SET status = 'PAID', gateway_txn_id = $2, auth_code = $3, paid_at = $4
		WHERE id = $1 AND status = 'PENDING'`,
		id, gatewayTxnID, authCode, paidAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *paymentRepoPG) MarkFailed(ctx context.Context, id uuid.UUID, gatewayTxnID string) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE payment SET status = 'FAILED', gateway_txn_id = $2
		WHERE id = $1 AND status = 'PENDING'`,
		id, gatewayTxnID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *paymentRepoPG) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*Payment, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+paymentCols+` FROM payment WHERE booking_id = $1 ORDER BY created_at`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*Payment
	for rows.Next() {
		p := &Payment{}
		if err := rows.Scan(&p.ID, &p.BookingID, &p.CorrelationID, &p.Amount, &p.Status,
			&p.GatewayTxnID, &p.AuthCode, &p.PaidAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
