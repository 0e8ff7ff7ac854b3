package area

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *repoPG) List(ctx context.Context) ([]*Area, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT id, name FROM area ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Area, error) {
		var a Area
		return &a, row.Scan(&a.ID, &a.Name)
	})
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Area, error) {
	var a Area
	err := r.conn(ctx).QueryRow(ctx, `SELECT id, name FROM area WHERE id = $1`, id).Scan(&a.ID, &a.Name)
	if err != nil {
		return nil, db.MapError(err, "area not found", "")
	}
	return &a, nil
}

func (r *repoPG) GetByName(ctx context.Context, name string) (*Area, error) {
	var a Area
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, name FROM area WHERE lower(name) = lower(btrim($1))`, name).Scan(&a.ID, &a.Name)
	if err != nil {
		return nil, db.MapError(err, "area not found", "")
	}
	return &a, nil
}

func (r *repoPG) Upsert(ctx context.Context, a *Area) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO area (id, name) VALUES ($1, $2)
		ON CONFLICT ((lower(name))) DO UPDATE SET name = area.name
		RETURNING id, name`, uuid.New(), a.Name).Scan(&a.ID, &a.Name)
	return db.MapError(err, "area not found", "area already exists")
}
