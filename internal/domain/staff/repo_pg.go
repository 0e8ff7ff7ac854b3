package staff

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/apperr"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/auth"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const staffCols = `id, email, first_name, last_name, phone, role, area_id, active, created_at`

func scanStaff(row pgx.Row) (*StaffUser, error) {
	var u StaffUser
	var role string
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Phone, &role, &u.AreaID, &u.Active, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = auth.Role(role)
	return &u, nil
}

func (r *repoPG) Create(ctx context.Context, u *StaffUser) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO staff_user (id, email, first_name, last_name, phone, role, area_id, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		u.ID, u.Email, u.FirstName, u.LastName, u.Phone, string(u.Role), u.AreaID, u.Active).Scan(&u.CreatedAt)
	return db.MapError(err, "area not found", "a staff user with that email already exists")
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*StaffUser, error) {
	u, err := scanStaff(r.conn(ctx).QueryRow(ctx, `SELECT `+staffCols+` FROM staff_user WHERE id = $1`, id))
	if err != nil {
		return nil, db.MapError(err, "staff user not found", "")
	}
	return u, nil
}

func (r *repoPG) GetByEmail(ctx context.Context, email string) (*StaffUser, error) {
	u, err := scanStaff(r.conn(ctx).QueryRow(ctx,
		`SELECT `+staffCols+` FROM staff_user WHERE lower(email) = lower($1)`, email))
	if err != nil {
		return nil, db.MapError(err, "staff user not found", "")
	}
	return u, nil
}

func (r *repoPG) ListByRole(ctx context.Context, role auth.Role) ([]*StaffUser, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+staffCols+` FROM staff_user WHERE role = $1 ORDER BY email`, string(role))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*StaffUser, error) {
		return scanStaff(row)
	})
}

func (r *repoPG) Update(ctx context.Context, u *StaffUser) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE staff_user
		SET first_name = $2, last_name = $3, phone = $4, area_id = $5, active = $6
		WHERE id = $1`,
		u.ID, u.FirstName, u.LastName, u.Phone, u.AreaID, u.Active)
	if err != nil {
		return db.MapError(err, "area not found", "")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("staff user not found")
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM staff_user WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("staff user not found")
	}
	return nil
}
