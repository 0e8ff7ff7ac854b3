package area

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
	public.GET("/areas", h.List)
}

func (h *Handler) List(c echo.Context) error {
	areas, err := h.svc.List(c.Request().Context())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, areas)
}
