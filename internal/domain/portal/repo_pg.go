package portal

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
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *repoPG) Insert(ctx context.Context, e *Event) error {
	var payload interface{}
	if len(e.Payload) > 0 {
		payload = []byte(e.Payload)
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO portal_event (id, button_code, button_label, category, source_path, target_path,
		                          bed_id, qr_token, session_id, payload, clicked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		uuid.New(), e.ButtonCode, e.ButtonLabel, e.Category, e.SourcePath, e.TargetPath,
		e.BedID, e.QRToken, e.SessionID, payload, e.ClickedAt).Scan(&e.ID)
	return db.MapError(err, "portal event not found", "")
}
