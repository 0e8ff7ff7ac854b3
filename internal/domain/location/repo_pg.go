package location

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/apperr"
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

// -- Institutions, buildings, floors, services --

func (r *repoPG) UpsertInstitution(ctx context.Context, inst *Institution) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO institution (id, name) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`, uuid.New(), inst.Name).Scan(&inst.ID)
	return db.MapError(err, "institution not found", "institution already exists")
}

func (r *repoPG) GetInstitution(ctx context.Context, id uuid.UUID) (*Institution, error) {
	var inst Institution
	err := r.conn(ctx).QueryRow(ctx, `SELECT id, name FROM institution WHERE id = $1`, id).Scan(&inst.ID, &inst.Name)
	if err != nil {
		return nil, db.MapError(err, "institution not found", "")
	}
	return &inst, nil
}

func (r *repoPG) ListInstitutions(ctx context.Context) ([]*Institution, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT id, name FROM institution ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Institution, error) {
		var inst Institution
		return &inst, row.Scan(&inst.ID, &inst.Name)
	})
}

func (r *repoPG) UpsertBuilding(ctx context.Context, b *Building) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO building (id, institution_id, name) VALUES ($1, $2, $3)
		ON CONFLICT (institution_id, name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`, uuid.New(), b.InstitutionID, b.Name).Scan(&b.ID)
	return db.MapError(err, "institution not found", "building already exists")
}

func (r *repoPG) ListBuildings(ctx context.Context, institutionID *uuid.UUID) ([]*Building, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, institution_id, name FROM building
		WHERE ($1::uuid IS NULL OR institution_id = $1)
		ORDER BY name`, institutionID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Building, error) {
		var b Building
		return &b, row.Scan(&b.ID, &b.InstitutionID, &b.Name)
	})
}

func (r *repoPG) UpsertFloor(ctx context.Context, f *Floor) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO floor (id, building_id, number) VALUES ($1, $2, $3)
		ON CONFLICT (building_id, number) DO UPDATE SET number = EXCLUDED.number
		RETURNING id`, uuid.New(), f.BuildingID, f.Number).Scan(&f.ID)
	return db.MapError(err, "building not found", "floor already exists")
}

func (r *repoPG) GetFloor(ctx context.Context, id uuid.UUID) (*Floor, error) {
	var f Floor
	err := r.conn(ctx).QueryRow(ctx, `SELECT id, building_id, number FROM floor WHERE id = $1`, id).
		Scan(&f.ID, &f.BuildingID, &f.Number)
	if err != nil {
		return nil, db.MapError(err, "floor not found", "")
	}
	return &f, nil
}

func (r *repoPG) ListFloors(ctx context.Context, buildingID *uuid.UUID) ([]*Floor, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, building_id, number FROM floor
		WHERE ($1::uuid IS NULL OR building_id = $1)
		ORDER BY building_id, number`, buildingID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Floor, error) {
		var f Floor
		return &f, row.Scan(&f.ID, &f.BuildingID, &f.Number)
	})
}

func (r *repoPG) UpsertService(ctx context.Context, s *ClinicalService) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO service (id, name) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`, uuid.New(), s.Name).Scan(&s.ID)
	return db.MapError(err, "service not found", "service already exists")
}

func (r *repoPG) GetService(ctx context.Context, id uuid.UUID) (*ClinicalService, error) {
	var s ClinicalService
	err := r.conn(ctx).QueryRow(ctx, `SELECT id, name FROM service WHERE id = $1`, id).Scan(&s.ID, &s.Name)
	if err != nil {
		return nil, db.MapError(err, "service not found", "")
	}
	return &s, nil
}

func (r *repoPG) ListServices(ctx context.Context) ([]*ClinicalService, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT id, name FROM service ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*ClinicalService, error) {
		var s ClinicalService
		return &s, row.Scan(&s.ID, &s.Name)
	})
}

// -- Rooms --

const roomCols = `rm.id, rm.floor_id, rm.service_id, rm.name`

func scanRoom(row pgx.Row) (*Room, error) {
	var rm Room
	if err := row.Scan(&rm.ID, &rm.FloorID, &rm.ServiceID, &rm.Name); err != nil {
		return nil, err
	}
	return &rm, nil
}

func (r *repoPG) CreateRoom(ctx context.Context, rm *Room) error {
	rm.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO room (id, floor_id, service_id, name) VALUES ($1, $2, $3, $4)`,
		rm.ID, rm.FloorID, rm.ServiceID, rm.Name)
	return db.MapError(err, "floor or service not found", "a room with that name already exists on the floor")
}

func (r *repoPG) GetRoom(ctx context.Context, id uuid.UUID) (*Room, error) {
	rm, err := scanRoom(r.conn(ctx).QueryRow(ctx, `SELECT `+roomCols+` FROM room rm WHERE rm.id = $1`, id))
	if err != nil {
		return nil, db.MapError(err, "room not found", "")
	}
	return rm, nil
}

func (r *repoPG) ListRooms(ctx context.Context, institutionID *uuid.UUID) ([]*Room, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+roomCols+`
		FROM room rm
		JOIN floor f ON f.id = rm.floor_id
		JOIN building b ON b.id = f.building_id
		WHERE ($1::uuid IS NULL OR b.institution_id = $1)
		ORDER BY b.name, f.number, rm.name`, institutionID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Room, error) {
		return scanRoom(row)
	})
}

// -- Beds --

const bedCols = `bd.id, bd.room_id, bd.label, bd.qr_token, bd.active`

func scanBed(row pgx.Row) (*Bed, error) {
	var b Bed
	if err := row.Scan(&b.ID, &b.RoomID, &b.Label, &b.QRToken, &b.Active); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repoPG) CreateBed(ctx context.Context, b *Bed) error {
	b.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO bed (id, room_id, label, qr_token, active) VALUES ($1, $2, $3, $4, $5)`,
		b.ID, b.RoomID, b.Label, b.QRToken, b.Active)
	if db.IsUniqueViolation(err, "uq_bed_qr_token") {
		return apperr.Wrap(apperr.KindConflict, ErrTokenTaken, ErrTokenTaken.Error())
	}
	return db.MapError(err, "room not found", "a bed with that label already exists in the room")
}

func (r *repoPG) GetBed(ctx context.Context, id uuid.UUID) (*Bed, error) {
	b, err := scanBed(r.conn(ctx).QueryRow(ctx, `SELECT `+bedCols+` FROM bed bd WHERE bd.id = $1`, id))
	if err != nil {
		return nil, db.MapError(err, "bed not found", "")
	}
	return b, nil
}

func (r *repoPG) GetBedByToken(ctx context.Context, token string) (*Bed, error) {
	b, err := scanBed(r.conn(ctx).QueryRow(ctx, `SELECT `+bedCols+` FROM bed bd WHERE bd.qr_token = $1`, token))
	if err != nil {
		return nil, db.MapError(err, "bed not found", "")
	}
	return b, nil
}

func (r *repoPG) ListBeds(ctx context.Context, roomID *uuid.UUID) ([]*Bed, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+bedCols+` FROM bed bd
		WHERE ($1::uuid IS NULL OR bd.room_id = $1)
		ORDER BY bd.room_id, bd.label`, roomID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Bed, error) {
		return scanBed(row)
	})
}

func (r *repoPG) SetBedActive(ctx context.Context, id uuid.UUID, active bool) (*Bed, error) {
	b, err := scanBed(r.conn(ctx).QueryRow(ctx, `
		UPDATE bed bd SET active = $2 WHERE bd.id = $1
		RETURNING `+bedCols, id, active))
	if err != nil {
		return nil, db.MapError(err, "bed not found", "")
	}
	return b, nil
}

// -- Hierarchy walks --

func (r *repoPG) BedContextByToken(ctx context.Context, token string) (*BedContext, error) {
	var bc BedContext
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT i.id, i.name,
		       b.id, b.institution_id, b.name,
		       f.id, f.building_id, f.number,
		       rm.id, rm.floor_id, rm.service_id, rm.name,
		       s.id, s.name,
		       `+bedCols+`
		FROM bed bd
		JOIN room rm ON rm.id = bd.room_id
		JOIN service s ON s.id = rm.service_id
		JOIN floor f ON f.id = rm.floor_id
		JOIN building b ON b.id = f.building_id
		JOIN institution i ON i.id = b.institution_id
		WHERE bd.qr_token = $1`, token).Scan(
		&bc.Institution.ID, &bc.Institution.Name,
		&bc.Building.ID, &bc.Building.InstitutionID, &bc.Building.Name,
		&bc.Floor.ID, &bc.Floor.BuildingID, &bc.Floor.Number,
		&bc.Room.ID, &bc.Room.FloorID, &bc.Room.ServiceID, &bc.Room.Name,
		&bc.Service.ID, &bc.Service.Name,
		&bc.Bed.ID, &bc.Bed.RoomID, &bc.Bed.Label, &bc.Bed.QRToken, &bc.Bed.Active,
	)
	if err != nil {
		return nil, db.MapError(err, "bed not found", "")
	}
	return &bc, nil
}

func (r *repoPG) InstitutionOfBed(ctx context.Context, bedID uuid.UUID) (*Institution, error) {
	var inst Institution
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT i.id, i.name
		FROM bed bd
		JOIN room rm ON rm.id = bd.room_id
		JOIN floor f ON f.id = rm.floor_id
		JOIN building b ON b.id = f.building_id
		JOIN institution i ON i.id = b.institution_id
		WHERE bd.id = $1`, bedID).Scan(&inst.ID, &inst.Name)
	if err != nil {
		return nil, db.MapError(err, "bed not found", "")
	}
	return &inst, nil
}
