package location

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestHandler(t *testing.T) (*Handler, *fixture, *echo.Echo) {
	fx := newFixture(t)
	return NewHandler(fx.svc, "https://front.example.org/"), fx, echo.New()
}

func TestHandler_ValidateQR(t *testing.T) {
	h, fx, e := newTestHandler(t)
	if _, err := fx.svc.CreateBed(context.Background(), CreateBedInput{RoomID: fx.room.ID, Label: "A", QRToken: "H1-101-A"}); err != nil {
		t.Fatalf("CreateBed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/qr/validate?code=H1-101-A", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.ValidateQR(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var res Resolution
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.OK || res.Context == nil {
		t.Errorf("expected ok with context, got %+v", res)
	}
}

func TestHandler_ValidateQR_Unknown(t *testing.T) {
	h, _, e := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/qr/validate?code=missing", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.ValidateQR(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"reason":"not_found"`) {
		t.Errorf("expected not_found reason, got %s", rec.Body.String())
	}
}

func TestHandler_RedirectQR(t *testing.T) {
	h, _, e := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("code")
	c.SetParamValues("H1 101&A")
	if err := h.RedirectQR(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusFound {
		t.Errorf("expected 302, got %d", rec.Code)
	}
	want := "https://front.example.org/landing?qr=H1+101%26A"
	if got := rec.Header().Get(echo.HeaderLocation); got != want {
		t.Errorf("expected location %q, got %q", want, got)
	}
}

func TestHandler_GetBed_InvalidID(t *testing.T) {
	h, _, e := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")
	err := h.GetBed(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_ListBeds_InvalidFilter(t *testing.T) {
	h, _, e := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/beds?room_id=xyz", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := h.ListBeds(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_ListBeds_ByRoom(t *testing.T) {
	h, fx, e := newTestHandler(t)
	ctx := context.Background()
	fx.svc.CreateBed(ctx, CreateBedInput{RoomID: fx.room.ID, Label: "A"})
	fx.svc.CreateBed(ctx, CreateBedInput{RoomID: fx.room.ID, Label: "B"})

	req := httptest.NewRequest(http.MethodGet, "/beds?room_id="+fx.room.ID.String(), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.ListBeds(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var beds []Bed
	if err := json.Unmarshal(rec.Body.Bytes(), &beds); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(beds) != 2 {
		t.Errorf("expected 2 beds, got %d", len(beds))
	}
}

func TestHandler_CreateBed(t *testing.T) {
	h, fx, e := newTestHandler(t)
	body := `{"room_id":"` + fx.room.ID.String() + `","label":"d"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.CreateBed(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"label":"D"`) {
		t.Errorf("expected upper-cased label, got %s", rec.Body.String())
	}
}

func TestHandler_CreateBed_Conflict(t *testing.T) {
	h, fx, e := newTestHandler(t)
	fx.svc.CreateBed(context.Background(), CreateBedInput{RoomID: fx.room.ID, Label: "A", QRToken: "X1"})

	body := `{"room_id":"` + fx.room.ID.String() + `","label":"B","qr_token":"X1"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := h.CreateBed(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusConflict {
		t.Errorf("expected 409, got %v", err)
	}
}

func TestHandler_CreateRoom_MissingName(t *testing.T) {
	h, fx, e := newTestHandler(t)
	body := `{"floor_id":"` + fx.room.FloorID.String() + `","service_id":"` + fx.room.ServiceID.String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := h.CreateRoom(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_PatchBed(t *testing.T) {
	h, fx, e := newTestHandler(t)
	bed, _ := fx.svc.CreateBed(context.Background(), CreateBedInput{RoomID: fx.room.ID, Label: "A"})

	req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"active":false}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(bed.ID.String())
	if err := h.PatchBed(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if fx.repo.beds[bed.ID].Active {
		t.Error("expected bed to be deactivated")
	}
}
