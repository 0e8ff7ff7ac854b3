package request

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/apperr"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/auth"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/spreadsheet"
	"github.com/TomasArancibia/TallerIntegracion-Back/pkg/pagination"
)

// Paged listings report their size in these headers; the body stays a
// plain array.
const (
	HeaderTotalCount = "X-Total-Count"
	HeaderNextOffset = "X-Next-Offset"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts request intake on public and the staff views on admin.
func (h *Handler) RegisterRoutes(public *echo.Group, admin *echo.Group) {
	public.POST("/requests", h.Create)

	admin.GET("/requests", h.List)
	admin.GET("/requests/export.xlsx", h.Export)
	admin.GET("/requests/:id", h.Get)
	admin.PUT("/requests/:id/status", h.UpdateStatus)
}

func viewer(c echo.Context) (*auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return &p, nil
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	r, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) Get(c echo.Context) error {
	p, err := viewer(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	r, err := h.svc.Get(c.Request().Context(), id, p)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	p, err := viewer(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var body struct {
		Status string `json:"status"`
	}
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&body); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
	}
	status := body.Status
	if strings.TrimSpace(status) == "" {
		status = c.QueryParam("status")
	}

	r, err := h.svc.Transition(c.Request().Context(), id, status, p)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, r)
}

func filterFromQuery(c echo.Context) (Filter, error) {
	var f Filter
	if raw := strings.TrimSpace(c.QueryParam("status")); raw != "" {
		st, err := ParseStatus(raw)
		if err != nil {
			return f, apperr.ToHTTP(err)
		}
		f.Status = &st
	}
	for name, dst := range map[string]**uuid.UUID{
		"institution_id": &f.InstitutionID,
		"room_id":        &f.RoomID,
		"bed_id":         &f.BedID,
		"area_id":        &f.AreaID,
	} {
		raw := strings.TrimSpace(c.QueryParam(name))
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
		}
		*dst = &id
	}
	return f, nil
}

func (h *Handler) List(c echo.Context) error {
	p, err := viewer(c)
	if err != nil {
		return err
	}
	f, err := filterFromQuery(c)
	if err != nil {
		return err
	}
	page := pagination.FromContext(c)
	out, err := h.svc.List(c.Request().Context(), f, page, p)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	if page.Paged() {
		total, err := h.svc.Count(c.Request().Context(), f, p)
		if err != nil {
			return apperr.ToHTTP(err)
		}
		c.Response().Header().Set(HeaderTotalCount, strconv.Itoa(total))
		if page.HasNext(total) {
			c.Response().Header().Set(HeaderNextOffset, strconv.Itoa(page.NextOffset()))
		}
	}
	return c.JSON(http.StatusOK, out)
}

// Export writes the filtered listing as an XLSX workbook. Pagination does not
// apply.
func (h *Handler) Export(c echo.Context) error {
	p, err := viewer(c)
	if err != nil {
		return err
	}
	f, err := filterFromQuery(c)
	if err != nil {
		return err
	}
	out, err := h.svc.List(c.Request().Context(), f, pagination.Params{}, p)
	if err != nil {
		return apperr.ToHTTP(err)
	}

	data, err := spreadsheet.Build(ExportSheet(out))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	filename := fmt.Sprintf("requests_%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, spreadsheet.ContentType, data)
}

// ExportSheet lays requests out one per row.
func ExportSheet(reqs []*Request) spreadsheet.Sheet {
	sh := spreadsheet.Sheet{
		Name: "Requests",
		Headers: []string{
			"ID", "Institution", "Room", "Bed", "QR", "Area", "Type", "Description",
			"Status", "Created", "Updated", "Closed", "Requester", "Requester email",
		},
		Widths: []float64{38, 24, 12, 8, 20, 18, 24, 40, 14, 20, 20, 20, 24, 28},
	}
	for _, r := range reqs {
		closed := ""
		if r.ClosedAt != nil {
			closed = r.ClosedAt.Format(time.RFC3339)
		}
		sh.Rows = append(sh.Rows, []interface{}{
			r.ID.String(), r.InstitutionName, r.RoomName, r.BedLabel, r.QRToken, r.AreaName,
			r.RequestType, r.Description, r.Status.String(),
			r.CreatedAt.Format(time.RFC3339), r.UpdatedAt.Format(time.RFC3339), closed,
			deref(r.RequesterName), deref(r.RequesterEmail),
		})
	}
	return sh
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
