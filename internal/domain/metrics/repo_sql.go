package metrics

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/TomasArancibia/TallerIntegracion-Back/internal/domain/request"
)

type repoSQL struct {
	db *sql.DB
}

// NewRepo returns a Store over database/sql. In production db is the pgx pool
// seen through db.SQLDB.
func NewRepo(db *sql.DB) Store {
	return &repoSQL{db: db}
}

const inRange = `r.created_at >= $1 AND r.created_at < $2`

const joinInstitution = `
	JOIN bed b ON b.id = r.bed_id
	JOIN room rm ON rm.id = b.room_id
	JOIN floor f ON f.id = rm.floor_id
	JOIN building bl ON bl.id = f.building_id
	JOIN institution i ON i.id = bl.institution_id`

const closedOnly = ` AND r.status = 'CLOSED' AND r.closed_at IS NOT NULL`

const avgHours = `COALESCE(AVG(EXTRACT(EPOCH FROM (r.closed_at - r.created_at))), 0)::float8 / 3600.0`

func (s *repoSQL) Total(ctx context.Context, r Range) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM request r WHERE `+inRange, r.From, r.To).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count requests: %w", err)
	}
	return n, nil
}

func (s *repoSQL) ByArea(ctx context.Context, r Range) ([]AreaCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.name, COUNT(r.id)
		FROM request r JOIN area a ON a.id = r.area_id
		WHERE `+inRange+`
		GROUP BY a.id, a.name
		ORDER BY a.name`, r.From, r.To)
	if err != nil {
		return nil, fmt.Errorf("count by area: %w", err)
	}
	defer rows.Close()

	out := []AreaCount{}
	for rows.Next() {
		var c AreaCount
		if err := rows.Scan(&c.AreaID, &c.AreaName, &c.Total); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *repoSQL) ByInstitutionStatus(ctx context.Context, r Range) ([]InstitutionStatusCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.name, r.status, COUNT(r.id)
		FROM request r`+joinInstitution+`
		WHERE `+inRange+`
		GROUP BY i.id, i.name, r.status
		ORDER BY i.name, r.status`, r.From, r.To)
	if err != nil {
		return nil, fmt.Errorf("count by institution and status: %w", err)
	}
	defer rows.Close()

	out := []InstitutionStatusCount{}
	for rows.Next() {
		var (
			c      InstitutionStatusCount
			status string
		)
		if err := rows.Scan(&c.InstitutionID, &c.InstitutionName, &status, &c.Total); err != nil {
			return nil, err
		}
		if c.Status, err = request.ParseStatus(status); err != nil {
			return nil, fmt.Errorf("stored status %q: %w", status, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *repoSQL) ByInstitutionArea(ctx context.Context, r Range) ([]InstitutionAreaCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.name, a.id, a.name, COUNT(r.id)
		FROM request r`+joinInstitution+`
		JOIN area a ON a.id = r.area_id
		WHERE `+inRange+`
		GROUP BY i.id, i.name, a.id, a.name
		ORDER BY i.name, a.name`, r.From, r.To)
	if err != nil {
		return nil, fmt.Errorf("count by institution and area: %w", err)
	}
	defer rows.Close()

	out := []InstitutionAreaCount{}
	for rows.Next() {
		var c InstitutionAreaCount
		if err := rows.Scan(&c.InstitutionID, &c.InstitutionName, &c.AreaID, &c.AreaName, &c.Total); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ByAreaDay buckets by the calendar day in the range's location, not UTC.
func (s *repoSQL) ByAreaDay(ctx context.Context, r Range) ([]AreaDayCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.name, to_char(r.created_at AT TIME ZONE $3, 'YYYY-MM-DD') AS day, COUNT(r.id)
		FROM request r JOIN area a ON a.id = r.area_id
		WHERE `+inRange+`
		GROUP BY a.id, a.name, day
		ORDER BY day, a.name`, r.From, r.To, r.Location.String())
	if err != nil {
		return nil, fmt.Errorf("count by area and day: %w", err)
	}
	defer rows.Close()

	out := []AreaDayCount{}
	for rows.Next() {
		var c AreaDayCount
		if err := rows.Scan(&c.AreaID, &c.AreaName, &c.Day, &c.Total); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *repoSQL) AvgResolutionHours(ctx context.Context, r Range) (float64, error) {
	var h sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT `+avgHours+` FROM request r WHERE `+inRange+closedOnly, r.From, r.To).Scan(&h)
	if err != nil {
		return 0, fmt.Errorf("average resolution: %w", err)
	}
	return finiteHours(h.Float64), nil
}

func (s *repoSQL) ResolutionByArea(ctx context.Context, r Range) ([]AreaResolution, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.name, `+avgHours+`
		FROM request r JOIN area a ON a.id = r.area_id
		WHERE `+inRange+closedOnly+`
		GROUP BY a.id, a.name
		ORDER BY a.name`, r.From, r.To)
	if err != nil {
		return nil, fmt.Errorf("average resolution by area: %w", err)
	}
	defer rows.Close()

	out := []AreaResolution{}
	for rows.Next() {
		var (
			c AreaResolution
			h sql.NullFloat64
		)
		if err := rows.Scan(&c.AreaID, &c.AreaName, &h); err != nil {
			return nil, err
		}
		c.Hours = finiteHours(h.Float64)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *repoSQL) ResolutionByInstitution(ctx context.Context, r Range) ([]InstitutionResolution, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.name, `+avgHours+`
		FROM request r`+joinInstitution+`
		WHERE `+inRange+closedOnly+`
		GROUP BY i.id, i.name
		ORDER BY i.name`, r.From, r.To)
	if err != nil {
		return nil, fmt.Errorf("average resolution by institution: %w", err)
	}
	defer rows.Close()

	out := []InstitutionResolution{}
	for rows.Next() {
		var (
			c InstitutionResolution
			h sql.NullFloat64
		)
		if err := rows.Scan(&c.InstitutionID, &c.InstitutionName, &h); err != nil {
			return nil, err
		}
		c.Hours = finiteHours(h.Float64)
		out = append(out, c)
	}
	return out, rows.Err()
}

// PortalEvents loads clicks ordered by bed and time, with the bed's place
// when the bed still exists.
func (s *repoSQL) PortalEvents(ctx context.Context, r Range) ([]PortalEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.bed_id, e.button_code, COALESCE(e.button_label, ''), COALESCE(e.category, ''),
		       COALESCE(e.source_path, ''), COALESCE(e.target_path, ''), COALESCE(e.session_id, ''),
		       e.clicked_at, b.label, rm.name, sv.name, f.number, bl.name, i.name
		FROM portal_event e
		LEFT JOIN bed b ON b.id = e.bed_id
		LEFT JOIN room rm ON rm.id = b.room_id
		LEFT JOIN service sv ON sv.id = rm.service_id
		LEFT JOIN floor f ON f.id = rm.floor_id
		LEFT JOIN building bl ON bl.id = f.building_id
		LEFT JOIN institution i ON i.id = bl.institution_id
		WHERE e.clicked_at >= $1 AND e.clicked_at < $2
		ORDER BY e.bed_id NULLS LAST, e.clicked_at`, r.From, r.To)
	if err != nil {
		return nil, fmt.Errorf("load portal events: %w", err)
	}
	defer rows.Close()

	out := []PortalEvent{}
	for rows.Next() {
		var (
			e                                      PortalEvent
			bedID                                  uuid.NullUUID
			label, room, service, building, instit sql.NullString
			floor                                  sql.NullInt64
		)
		if err := rows.Scan(&bedID, &e.ButtonCode, &e.ButtonLabel, &e.Category,
			&e.SourcePath, &e.TargetPath, &e.SessionID, &e.ClickedAt,
			&label, &room, &service, &floor, &building, &instit); err != nil {
			return nil, err
		}
		if bedID.Valid {
			id := bedID.UUID
			e.BedID = &id
		}
		if label.Valid {
			e.Place = &BedPlace{
				Bed:         label.String,
				Room:        room.String,
				Service:     service.String,
				Floor:       int(floor.Int64),
				Building:    building.String,
				Institution: instit.String,
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
