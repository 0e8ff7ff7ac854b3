package request

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/apperr"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/db"
	"github.com/TomasArancibia/TallerIntegracion-Back/pkg/pagination"
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

const requestCols = `r.id, r.bed_id, r.area_id, r.request_type, r.description, r.status,
	r.created_at, r.updated_at, r.closed_at, r.requester_name, r.requester_email,
	a.name, b.label, b.qr_token, rm.id, rm.name, i.id, i.name`

const requestFrom = `
	FROM request r
	JOIN area a ON a.id = r.area_id
	JOIN bed b ON b.id = r.bed_id
	JOIN room rm ON rm.id = b.room_id
	JOIN floor f ON f.id = rm.floor_id
	JOIN building bl ON bl.id = f.building_id
	JOIN institution i ON i.id = bl.institution_id`

func (r *repoPG) scanRow(row pgx.Row) (*Request, error) {
	var req Request
	var status string
	err := row.Scan(&req.ID, &req.BedID, &req.AreaID, &req.RequestType, &req.Description, &status,
		&req.CreatedAt, &req.UpdatedAt, &req.ClosedAt, &req.RequesterName, &req.RequesterEmail,
		&req.AreaName, &req.BedLabel, &req.QRToken, &req.RoomID, &req.RoomName, &req.InstitutionID, &req.InstitutionName)
	if err != nil {
		return nil, err
	}
	st, err := ParseStatus(status)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "stored request has unknown status "+status)
	}
	req.Status = st
	return &req, nil
}

func (r *repoPG) Create(ctx context.Context, req *Request) error {
	req.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO request (id, bed_id, area_id, request_type, description, status,
			created_at, updated_at, closed_at, requester_name, requester_email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		req.ID, req.BedID, req.AreaID, req.RequestType, req.Description, req.Status.String(),
		req.CreatedAt, req.UpdatedAt, req.ClosedAt, req.RequesterName, req.RequesterEmail)
	return db.MapError(err, "bed or area not found", "request already exists")
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	req, err := r.scanRow(r.conn(ctx).QueryRow(ctx, `SELECT `+requestCols+requestFrom+` WHERE r.id = $1`, id))
	if err != nil {
		return nil, db.MapError(err, "request not found", "")
	}
	return req, nil
}

func (r *repoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Request, error) {
	req, err := r.scanRow(r.conn(ctx).QueryRow(ctx,
		`SELECT `+requestCols+requestFrom+` WHERE r.id = $1 FOR UPDATE OF r`, id))
	if err != nil {
		return nil, db.MapError(err, "request not found", "")
	}
	return req, nil
}

func (r *repoPG) UpdateStatus(ctx context.Context, req *Request) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE request SET status = $2, updated_at = $3, closed_at = $4
		WHERE id = $1`,
		req.ID, req.Status.String(), req.UpdatedAt, req.ClosedAt)
	if err != nil {
		return db.MapError(err, "request not found", "")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("request not found")
	}
	return nil
}

const filterWhere = `
	WHERE ($1::varchar IS NULL OR r.status = $1)
	  AND ($2::uuid IS NULL OR i.id = $2)
	  AND ($3::uuid IS NULL OR rm.id = $3)
	  AND ($4::uuid IS NULL OR r.bed_id = $4)
	  AND ($5::uuid IS NULL OR r.area_id = $5)`

func filterArgs(f Filter) []interface{} {
	var status *string
	if f.Status != nil {
		s := f.Status.String()
		status = &s
	}
	return []interface{}{status, f.InstitutionID, f.RoomID, f.BedID, f.AreaID}
}

func (r *repoPG) List(ctx context.Context, f Filter, page pagination.Params) ([]*Request, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+requestCols+requestFrom+filterWhere+`
		ORDER BY r.created_at DESC, r.id `+page.SQL(), filterArgs(f)...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Request, error) {
		return r.scanRow(row)
	})
}

func (r *repoPG) Count(ctx context.Context, f Filter) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*)`+requestFrom+filterWhere, filterArgs(f)...).Scan(&n)
	return n, err
}
