package metrics

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/TomasArancibia/TallerIntegracion-Back/internal/domain/request"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/apperr"
)

const dateLayout = "2006-01-02"

// Range is a window of whole local calendar days. From is inclusive and To
// exclusive; both are in UTC.
type Range struct {
	StartDate string
	EndDate   string
	From      time.Time
	To        time.Time
	Location  *time.Location
}

// ParseRange turns two YYYY-MM-DD dates into the window
// [start 00:00, end+1day 00:00) in loc.
func ParseRange(start, end string, loc *time.Location) (Range, error) {
	if loc == nil {
		loc = time.UTC
	}
	s, err := time.ParseInLocation(dateLayout, start, loc)
	if err != nil {
		return Range{}, apperr.Validation("invalid start_date %q, use YYYY-MM-DD", start)
	}
	e, err := time.ParseInLocation(dateLayout, end, loc)
	if err != nil {
		return Range{}, apperr.Validation("invalid end_date %q, use YYYY-MM-DD", end)
	}
	if s.After(e) {
		return Range{}, apperr.Validation("start_date must not be after end_date")
	}
	return Range{
		StartDate: start,
		EndDate:   end,
		From:      s.UTC(),
		To:        e.AddDate(0, 0, 1).UTC(),
		Location:  loc,
	}, nil
}

type AreaCount struct {
	AreaID   uuid.UUID `json:"area_id"`
	AreaName string    `json:"area_name"`
	Total    int       `json:"total"`
}

type InstitutionStatusCount struct {
	InstitutionID   uuid.UUID      `json:"institution_id"`
	InstitutionName string         `json:"institution_name"`
	Status          request.Status `json:"status"`
	Total           int            `json:"total"`
}

type InstitutionAreaCount struct {
	InstitutionID   uuid.UUID `json:"institution_id"`
	InstitutionName string    `json:"institution_name"`
	AreaID          uuid.UUID `json:"area_id"`
	AreaName        string    `json:"area_name"`
	Total           int       `json:"total"`
}

// AreaDayCount counts requests per area per local calendar day.
type AreaDayCount struct {
	AreaID   uuid.UUID `json:"area_id"`
	AreaName string    `json:"area_name"`
	Day      string    `json:"day"`
	Total    int       `json:"total"`
}

type AreaResolution struct {
	AreaID   uuid.UUID `json:"area_id"`
	AreaName string    `json:"area_name"`
	Hours    float64   `json:"hours"`
}

type InstitutionResolution struct {
	InstitutionID   uuid.UUID `json:"institution_id"`
	InstitutionName string    `json:"institution_name"`
	Hours           float64   `json:"hours"`
}

// Resolution holds average hours from creation to close over closed
// requests. An empty set averages to 0.
type Resolution struct {
	Hours         float64                 `json:"hours"`
	ByArea        []AreaResolution        `json:"by_area"`
	ByInstitution []InstitutionResolution `json:"by_institution"`
}

// Dashboard bundles every grouping for one range.
type Dashboard struct {
	StartDate           string                   `json:"start_date"`
	EndDate             string                   `json:"end_date"`
	Timezone            string                   `json:"timezone"`
	Total               int                      `json:"total"`
	ByArea              []AreaCount              `json:"by_area"`
	ByInstitutionStatus []InstitutionStatusCount `json:"by_institution_status"`
	ByInstitutionArea   []InstitutionAreaCount   `json:"by_institution_area"`
	ByAreaDay           []AreaDayCount           `json:"by_area_day"`
	Resolution          Resolution               `json:"resolution"`
	Portal              PortalActivity           `json:"portal"`
}

// finiteHours keeps NaN and Inf out of JSON encoding.
func finiteHours(h float64) float64 {
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return 0
	}
	return h
}

func roundHours(h float64) float64 {
	return math.Round(finiteHours(h)*100) / 100
}

// Rounded returns a copy with every average rounded to two decimals, the
// precision of the standalone resolution-time endpoint. Dashboards keep the
// exact values.
func (r Resolution) Rounded() Resolution {
	out := Resolution{
		Hours:         roundHours(r.Hours),
		ByArea:        make([]AreaResolution, len(r.ByArea)),
		ByInstitution: make([]InstitutionResolution, len(r.ByInstitution)),
	}
	for i, a := range r.ByArea {
		a.Hours = roundHours(a.Hours)
		out.ByArea[i] = a
	}
	for i, in := range r.ByInstitution {
		in.Hours = roundHours(in.Hours)
		out.ByInstitution[i] = in
	}
	return out
}
