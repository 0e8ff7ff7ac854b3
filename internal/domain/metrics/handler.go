package metrics

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/apperr"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/spreadsheet"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the metrics endpoints. Every staff role sees global
// figures.
func (h *Handler) RegisterRoutes(admin *echo.Group) {
	g := admin.Group("/metrics")
	g.GET("", h.Dashboard)
	g.GET("/total", h.Total)
	g.GET("/by-area", h.ByArea)
	g.GET("/by-institution-status", h.ByInstitutionStatus)
	g.GET("/by-institution-area", h.ByInstitutionArea)
	g.GET("/by-area-day", h.ByAreaDay)
	g.GET("/resolution-time", h.Resolution)
	g.GET("/portal", h.Portal)
	g.GET("/export.xlsx", h.Export)
}

func dates(c echo.Context) (string, string) {
	return c.QueryParam("start_date"), c.QueryParam("end_date")
}

type listResponse struct {
	StartDate string      `json:"start_date"`
	EndDate   string      `json:"end_date"`
	Metrics   interface{} `json:"metrics"`
}

func (h *Handler) Dashboard(c echo.Context) error {
	start, end := dates(c)
	d, err := h.svc.Dashboard(c.Request().Context(), start, end)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Total(c echo.Context) error {
	start, end := dates(c)
	n, err := h.svc.Total(c.Request().Context(), start, end)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"start_date": start,
		"end_date":   end,
		"total":      n,
	})
}

func (h *Handler) ByArea(c echo.Context) error {
	start, end := dates(c)
	out, err := h.svc.ByArea(c.Request().Context(), start, end)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, listResponse{start, end, out})
}

func (h *Handler) ByInstitutionStatus(c echo.Context) error {
	start, end := dates(c)
	out, err := h.svc.ByInstitutionStatus(c.Request().Context(), start, end)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, listResponse{start, end, out})
}

func (h *Handler) ByInstitutionArea(c echo.Context) error {
	start, end := dates(c)
	out, err := h.svc.ByInstitutionArea(c.Request().Context(), start, end)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, listResponse{start, end, out})
}

func (h *Handler) ByAreaDay(c echo.Context) error {
	start, end := dates(c)
	out, err := h.svc.ByAreaDay(c.Request().Context(), start, end)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, listResponse{start, end, out})
}

func (h *Handler) Resolution(c echo.Context) error {
	start, end := dates(c)
	out, err := h.svc.Resolution(c.Request().Context(), start, end)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, listResponse{start, end, out})
}

func (h *Handler) Portal(c echo.Context) error {
	start, end := dates(c)
	out, err := h.svc.Portal(c.Request().Context(), start, end)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, listResponse{start, end, out})
}

func (h *Handler) Export(c echo.Context) error {
	start, end := dates(c)
	d, err := h.svc.Dashboard(c.Request().Context(), start, end)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	data, err := spreadsheet.Build(DashboardSheets(d)...)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	filename := fmt.Sprintf("metrics_%s_%s.xlsx", d.StartDate, d.EndDate)
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, spreadsheet.ContentType, data)
}

// DashboardSheets lays a dashboard out as one worksheet per grouping.
func DashboardSheets(d *Dashboard) []spreadsheet.Sheet {
	summary := spreadsheet.Sheet{
		Name:    "Summary",
		Headers: []string{"Start", "End", "Timezone", "Total requests", "Avg resolution (h)", "Portal sessions"},
		Widths:  []float64{14, 14, 22, 16, 20, 16},
		Rows:    [][]interface{}{{d.StartDate, d.EndDate, d.Timezone, d.Total, d.Resolution.Hours, d.Portal.Sessions}},
	}

	byArea := spreadsheet.Sheet{Name: "By area", Headers: []string{"Area", "Total"}, Widths: []float64{28, 10}}
	for _, r := range d.ByArea {
		byArea.Rows = append(byArea.Rows, []interface{}{r.AreaName, r.Total})
	}

	byInstStatus := spreadsheet.Sheet{
		Name:    "By institution status",
		Headers: []string{"Institution", "Status", "Total"},
		Widths:  []float64{28, 14, 10},
	}
	for _, r := range d.ByInstitutionStatus {
		byInstStatus.Rows = append(byInstStatus.Rows, []interface{}{r.InstitutionName, r.Status.String(), r.Total})
	}

	byInstArea := spreadsheet.Sheet{
		Name:    "By institution area",
		Headers: []string{"Institution", "Area", "Total"},
		Widths:  []float64{28, 28, 10},
	}
	for _, r := range d.ByInstitutionArea {
		byInstArea.Rows = append(byInstArea.Rows, []interface{}{r.InstitutionName, r.AreaName, r.Total})
	}

	byDay := spreadsheet.Sheet{Name: "By area day", Headers: []string{"Day", "Area", "Total"}, Widths: []float64{14, 28, 10}}
	for _, r := range d.ByAreaDay {
		byDay.Rows = append(byDay.Rows, []interface{}{r.Day, r.AreaName, r.Total})
	}

	resolution := spreadsheet.Sheet{
		Name:    "Resolution",
		Headers: []string{"Scope", "Name", "Avg hours"},
		Widths:  []float64{14, 28, 12},
	}
	for _, r := range d.Resolution.ByArea {
		resolution.Rows = append(resolution.Rows, []interface{}{"Area", r.AreaName, r.Hours})
	}
	for _, r := range d.Resolution.ByInstitution {
		resolution.Rows = append(resolution.Rows, []interface{}{"Institution", r.InstitutionName, r.Hours})
	}

	sections := spreadsheet.Sheet{
		Name:    "Portal sections",
		Headers: []string{"Section", "Label", "Category", "Clicks", "Sessions (%)"},
		Widths:  []float64{28, 28, 18, 10, 14},
	}
	for _, s := range d.Portal.Sections {
		sections.Rows = append(sections.Rows, []interface{}{s.Section, s.Label, s.Category, s.Clicks, s.SessionShare})
	}

	portalBeds := spreadsheet.Sheet{
		Name:    "Portal beds",
		Headers: []string{"Institution", "Building", "Floor", "Room", "Service", "Bed", "Sessions"},
		Widths:  []float64{24, 18, 8, 12, 20, 8, 10},
	}
	for _, b := range d.Portal.TopBeds {
		p := b.Place
		if p == nil {
			p = &BedPlace{Bed: b.BedID.String()}
		}
		portalBeds.Rows = append(portalBeds.Rows, []interface{}{p.Institution, p.Building, p.Floor, p.Room, p.Service, p.Bed, b.Sessions})
	}

	return []spreadsheet.Sheet{summary, byArea, byInstStatus, byInstArea, byDay, resolution, sections, portalBeds}
}
