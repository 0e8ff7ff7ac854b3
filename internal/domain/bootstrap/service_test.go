package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/TomasArancibia/TallerIntegracion-Back/internal/domain/area"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/domain/location"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/domain/request"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/domain/staff"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/apperr"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/auth"
	"github.com/TomasArancibia/TallerIntegracion-Back/pkg/pagination"
)

type fakeHierarchy struct {
	inst *location.Institution
	err  error
}

func (f *fakeHierarchy) ListInstitutions(context.Context) ([]*location.Institution, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []*location.Institution{f.inst}, nil
}
func (f *fakeHierarchy) ListBuildings(_ context.Context, id *uuid.UUID) ([]*location.Building, error) {
	if id != nil {
		return nil, errors.New("expected unfiltered buildings")
	}
	return []*location.Building{{ID: uuid.New(), InstitutionID: f.inst.ID, Name: "Main"}}, nil
}
func (f *fakeHierarchy) ListFloors(context.Context, *uuid.UUID) ([]*location.Floor, error) {
	return nil, nil
}
func (f *fakeHierarchy) ListServices(context.Context) ([]*location.ClinicalService, error) {
	return []*location.ClinicalService{{ID: uuid.New(), Name: "Medicine"}}, nil
}
func (f *fakeHierarchy) ListRooms(context.Context, *uuid.UUID) ([]*location.Room, error) {
	return []*location.Room{{ID: uuid.New(), Name: "101"}}, nil
}
func (f *fakeHierarchy) ListBeds(context.Context, *uuid.UUID) ([]*location.Bed, error) {
	return []*location.Bed{{ID: uuid.New(), Label: "A", QRToken: "H1-101-A", Active: true}}, nil
}

type fakeAreas []*area.Area

func (f fakeAreas) List(context.Context) ([]*area.Area, error) { return f, nil }

type fakeRequests struct {
	all    []*request.Request
	viewer *auth.Principal
	page   pagination.Params
}

func (f *fakeRequests) List(_ context.Context, flt request.Filter, page pagination.Params, viewer *auth.Principal) ([]*request.Request, error) {
	f.viewer, f.page = viewer, page
	var out []*request.Request
	for _, r := range f.all {
		if viewer.IsAdmin() || (viewer.AreaID != nil && r.AreaID.String() == *viewer.AreaID) {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeProfiles map[string]*staff.StaffUser

func (f fakeProfiles) Profile(_ context.Context, id string) (*staff.StaffUser, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, apperr.NotFound("staff user not found")
}

type fixture struct {
	svc       *Service
	hierarchy *fakeHierarchy
	requests  *fakeRequests
	cleaning  *area.Area
	admin     auth.Principal
}

func newFixture() *fixture {
	cleaning := &area.Area{ID: uuid.New(), Name: "Cleaning"}
	maint := &area.Area{ID: uuid.New(), Name: "Maintenance"}
	adminID := uuid.New()
	fx := &fixture{
		hierarchy: &fakeHierarchy{inst: &location.Institution{ID: uuid.New(), Name: "Hospital Demo"}},
		requests: &fakeRequests{all: []*request.Request{
			{ID: uuid.New(), AreaID: cleaning.ID, RequestType: "spill"},
			{ID: uuid.New(), AreaID: maint.ID, RequestType: "AC repair"},
		}},
		cleaning: cleaning,
		admin:    auth.Principal{UserID: adminID.String(), Role: auth.RoleAdmin},
	}
	profiles := fakeProfiles{adminID.String(): {ID: adminID, Email: "admin@example.org", Role: auth.RoleAdmin, Active: true}}
	fx.svc = NewService(fx.hierarchy, fakeAreas{cleaning, maint}, fx.requests, profiles)
	return fx
}

func TestLoad_Admin(t *testing.T) {
	fx := newFixture()
	out, err := fx.svc.Load(context.Background(), fx.admin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.User == nil || out.User.Email != "admin@example.org" {
		t.Errorf("expected admin profile, got %+v", out.User)
	}
	if len(out.Institutions) != 1 || len(out.Buildings) != 1 || len(out.Rooms) != 1 || len(out.Beds) != 1 {
		t.Errorf("unexpected hierarchy: %+v", out)
	}
	if len(out.Areas) != 2 || len(out.Requests) != 2 {
		t.Errorf("expected 2 areas and 2 requests, got %d / %d", len(out.Areas), len(out.Requests))
	}
	if out.Floors == nil {
		t.Error("empty lists must not be nil")
	}
	if fx.requests.page.Limit != 0 || fx.requests.viewer.UserID != fx.admin.UserID {
		t.Errorf("requests loaded with page %+v viewer %+v", fx.requests.page, fx.requests.viewer)
	}
}

func TestLoad_AreaLeadSeesOwnRequests(t *testing.T) {
	fx := newFixture()
	areaID := fx.cleaning.ID.String()
	lead := auth.Principal{UserID: "not-a-uuid", Role: auth.RoleAreaLead, AreaID: &areaID}

	out, err := fx.svc.Load(context.Background(), lead)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.User != nil {
		t.Errorf("unknown profile should be omitted, got %+v", out.User)
	}
	if len(out.Requests) != 1 || out.Requests[0].AreaID != fx.cleaning.ID {
		t.Errorf("expected only cleaning requests, got %+v", out.Requests)
	}
	if len(out.Areas) != 2 {
		t.Errorf("areas are not scoped, got %d", len(out.Areas))
	}
}

func TestLoad_Error(t *testing.T) {
	fx := newFixture()
	fx.hierarchy.err = errors.New("connection refused")
	if _, err := fx.svc.Load(context.Background(), fx.admin); err == nil || err.Error() != "connection refused" {
		t.Fatalf("expected hierarchy error, got %v", err)
	}
}

func TestHandler_Get(t *testing.T) {
	fx := newFixture()
	h := NewHandler(fx.svc)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/admin/bootstrap", nil)
	req = req.WithContext(auth.WithPrincipal(req.Context(), fx.admin))
	rec := httptest.NewRecorder()
	if err := h.Get(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"user", "institutions", "buildings", "floors", "services", "rooms", "beds", "areas", "requests"} {
		if _, ok := body[key]; !ok {
			t.Errorf("response missing %q", key)
		}
	}
	if string(body["floors"]) != "[]" {
		t.Errorf("floors = %s, want []", body["floors"])
	}
}

func TestHandler_GetRequiresPrincipal(t *testing.T) {
	h := NewHandler(newFixture().svc)
	req := httptest.NewRequest(http.MethodGet, "/admin/bootstrap", nil)
	err := h.Get(echo.New().NewContext(req, httptest.NewRecorder()))
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}
