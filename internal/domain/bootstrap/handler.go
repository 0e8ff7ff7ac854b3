package bootstrap

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/apperr"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/bootstrap", h.Get)
}

func (h *Handler) Get(c echo.Context) error {
	p, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	out, err := h.svc.Load(c.Request().Context(), p)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, out)
}
