package portal

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/apperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(public *echo.Group) {
	public.POST("/analytics/button-click", h.ButtonClick)
}

// ButtonClick records a portal click. The stored event is not echoed back.
func (h *Handler) ButtonClick(c echo.Context) error {
	var in ClickInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if _, err := h.svc.Record(c.Request().Context(), in); err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, map[string]bool{"ok": true})
}
