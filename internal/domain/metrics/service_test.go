package metrics

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/TomasArancibia/TallerIntegracion-Back/internal/domain/request"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/apperr"
)

type fakeStore struct {
	calls int
	last  Range
	hours float64
}

func (f *fakeStore) avg() float64 {
	if f.hours == 0 {
		return 1.5
	}
	return f.hours
}

func (f *fakeStore) touch(r Range) { f.calls++; f.last = r }

func (f *fakeStore) Total(_ context.Context, r Range) (int, error) {
	f.touch(r)
	return 3, nil
}
func (f *fakeStore) ByArea(_ context.Context, r Range) ([]AreaCount, error) {
	f.touch(r)
	return []AreaCount{{AreaID: uuid.New(), AreaName: "Cleaning", Total: 3}}, nil
}
func (f *fakeStore) ByInstitutionStatus(_ context.Context, r Range) ([]InstitutionStatusCount, error) {
	f.touch(r)
	return []InstitutionStatusCount{{InstitutionName: "Hospital Demo", Status: request.StatusClosed, Total: 1}}, nil
}
func (f *fakeStore) ByInstitutionArea(_ context.Context, r Range) ([]InstitutionAreaCount, error) {
	f.touch(r)
	return []InstitutionAreaCount{}, nil
}
func (f *fakeStore) ByAreaDay(_ context.Context, r Range) ([]AreaDayCount, error) {
	f.touch(r)
	return []AreaDayCount{{AreaName: "Cleaning", Day: "2025-03-02", Total: 3}}, nil
}
func (f *fakeStore) AvgResolutionHours(_ context.Context, r Range) (float64, error) {
	f.touch(r)
	return f.avg(), nil
}
func (f *fakeStore) ResolutionByArea(_ context.Context, r Range) ([]AreaResolution, error) {
	f.touch(r)
	return []AreaResolution{{AreaName: "Cleaning", Hours: f.avg()}}, nil
}
func (f *fakeStore) ResolutionByInstitution(_ context.Context, r Range) ([]InstitutionResolution, error) {
	f.touch(r)
	return []InstitutionResolution{{InstitutionName: "Hospital Demo", Hours: f.avg()}}, nil
}

var portalBed = uuid.MustParse("7a1f2c3d-0000-4000-8000-000000000001")

func (f *fakeStore) PortalEvents(_ context.Context, r Range) ([]PortalEvent, error) {
	f.touch(r)
	at := r.From.Add(9 * time.Hour)
	place := &BedPlace{Bed: "A", Room: "101", Service: "Medicine", Floor: 1, Building: "Main", Institution: "Hospital Demo"}
	return []PortalEvent{
		{BedID: &portalBed, Place: place, ButtonCode: "info_visits", Category: "info", TargetPath: "/info/visits", SessionID: "s1", ClickedAt: at},
		{BedID: &portalBed, Place: place, ButtonCode: "open_chat", TargetPath: "/chat", SessionID: "s1", ClickedAt: at.Add(time.Minute)},
	}, nil
}

type failingStore struct{ fakeStore }

func (f *failingStore) ByAreaDay(context.Context, Range) ([]AreaDayCount, error) {
	return nil, errors.New("connection reset")
}

func TestService_ValidatesBeforeStore(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, santiago, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Dashboard(ctx, "2025-03-05", "2025-03-01")
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	_, err = svc.Total(ctx, "nope", "2025-03-01")
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	_, err = svc.Resolution(ctx, "2025-03-05", "2025-03-01")
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	assert.Zero(t, store.calls, "store must not be touched on invalid ranges")
}

func TestService_Dashboard(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, santiago, zerolog.Nop())

	d, err := svc.Dashboard(context.Background(), "2025-03-01", "2025-03-07")
	require.NoError(t, err)
	assert.Equal(t, 3, d.Total)
	assert.Equal(t, "CLT", d.Timezone)
	assert.Equal(t, 1.5, d.Resolution.Hours)
	assert.Len(t, d.Resolution.ByInstitution, 1)
	assert.Equal(t, 9, store.calls)
	assert.Equal(t, "2025-03-07", store.last.EndDate)
	assert.Equal(t, 1, d.Portal.Sessions)
	assert.Equal(t, 2, d.Portal.Clicks)
	require.Len(t, d.Portal.TopBeds, 1)
	assert.Equal(t, "101", d.Portal.TopBeds[0].Place.Room)
}

func TestService_ResolutionRoundsDashboardDoesNot(t *testing.T) {
	store := &fakeStore{hours: 10.0 / 3.0}
	svc := NewService(store, santiago, zerolog.Nop())
	ctx := context.Background()

	res, err := svc.Resolution(ctx, "2025-03-01", "2025-03-07")
	require.NoError(t, err)
	assert.Equal(t, 3.33, res.Hours)
	assert.Equal(t, 3.33, res.ByArea[0].Hours)
	assert.Equal(t, 3.33, res.ByInstitution[0].Hours)

	d, err := svc.Dashboard(ctx, "2025-03-01", "2025-03-07")
	require.NoError(t, err)
	assert.Equal(t, 10.0/3.0, d.Resolution.Hours)
	assert.Equal(t, 10.0/3.0, d.Resolution.ByArea[0].Hours)
}

func TestService_Portal(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, santiago, zerolog.Nop())

	out, err := svc.Portal(context.Background(), "2025-03-01", "2025-03-01")
	require.NoError(t, err)
	assert.Equal(t, 1, store.calls)
	require.Len(t, out.Sections, 2)
	assert.Equal(t, CategoryAssistant, out.Sections[0].Category)
	assert.Equal(t, "/chat", out.Sections[0].Section)
	assert.Equal(t, 100.0, out.Sections[1].SessionShare)

	_, err = svc.Portal(context.Background(), "2025-03-02", "2025-03-01")
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Equal(t, 1, store.calls)
}

func TestService_DashboardStoreError(t *testing.T) {
	svc := NewService(&failingStore{}, santiago, zerolog.Nop())
	_, err := svc.Dashboard(context.Background(), "2025-03-01", "2025-03-07")
	assert.EqualError(t, err, "connection reset")
}

func newTestHandler() (*Handler, *fakeStore, *echo.Echo) {
	store := &fakeStore{}
	return NewHandler(NewService(store, santiago, zerolog.Nop())), store, echo.New()
}

func TestHandler_Dashboard(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/admin/metrics?start_date=2025-03-01&end_date=2025-03-07", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, h.Dashboard(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"CLOSED"`)
	assert.Contains(t, rec.Body.String(), `"total":3`)
}

func TestHandler_InvalidRange(t *testing.T) {
	h, store, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/admin/metrics/by-area?start_date=2025-03-09&end_date=2025-03-07", nil)
	rec := httptest.NewRecorder()

	err := h.ByArea(e.NewContext(req, rec))
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadRequest, he.Code)
	assert.Zero(t, store.calls)
}

func TestHandler_Total(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/admin/metrics/total?start_date=2025-03-01&end_date=2025-03-01", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, h.Total(e.NewContext(req, rec)))
	assert.JSONEq(t, `{"start_date":"2025-03-01","end_date":"2025-03-01","total":3}`, rec.Body.String())
}

func TestHandler_Export(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/admin/metrics/export.xlsx?start_date=2025-03-01&end_date=2025-03-07", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, h.Export(e.NewContext(req, rec)))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "metrics_2025-03-01_2025-03-07.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{
		"Summary", "By area", "By institution status", "By institution area",
		"By area day", "Resolution", "Portal sections", "Portal beds",
	}, f.GetSheetList())

	rows, err := f.GetRows("Resolution")
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	rows, err = f.GetRows("Portal beds")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Hospital Demo", "Main", "1", "101", "Medicine", "A", "1"}, rows[1])
}

func TestHandler_Portal(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/admin/metrics/portal?start_date=2025-03-01&end_date=2025-03-01", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, h.Portal(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sessions":1`)
	assert.Contains(t, rec.Body.String(), `"section":"/info/visits"`)
}
