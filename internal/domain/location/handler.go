package location

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/apperr"
	"github.com/TomasArancibia/TallerIntegracion-Back/internal/platform/auth"
)

type Handler struct {
	svc             *Service
	frontendBaseURL string
}

func NewHandler(svc *Service, frontendBaseURL string) *Handler {
	return &Handler{svc: svc, frontendBaseURL: strings.TrimRight(frontendBaseURL, "/")}
}

// RegisterRoutes mounts the public scanning and read endpoints on public and
// the ADMIN-only writes on admin.
func (h *Handler) RegisterRoutes(public *echo.Group, admin *echo.Group) {
	public.GET("/qr/validate", h.ValidateQR)
	public.GET("/qr/redirect/:code", h.RedirectQR)

	public.GET("/institutions", h.ListInstitutions)
	public.GET("/institutions/:id", h.GetInstitution)
	public.GET("/buildings", h.ListBuildings)
	public.GET("/floors", h.ListFloors)
	public.GET("/services", h.ListServices)
	public.GET("/rooms", h.ListRooms)
	public.GET("/rooms/:id", h.GetRoom)
	public.GET("/beds", h.ListBeds)
	public.GET("/beds/by-token/:token", h.GetBedByToken)
	public.GET("/beds/:id", h.GetBed)

	writes := admin.Group("", auth.RequireRole(auth.RoleAdmin))
	writes.POST("/rooms", h.CreateRoom)
	writes.POST("/beds", h.CreateBed)
	writes.PATCH("/beds/:id", h.PatchBed)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func optionalUUID(c echo.Context, name string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return &id, nil
}

// -- QR --

func (h *Handler) ValidateQR(c echo.Context) error {
	res, err := h.svc.ResolveByToken(c.Request().Context(), c.QueryParam("code"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) RedirectQR(c echo.Context) error {
	target := h.frontendBaseURL + "/landing?qr=" + url.QueryEscape(c.Param("code"))
	return c.Redirect(http.StatusFound, target)
}

// -- Reads --

func (h *Handler) ListInstitutions(c echo.Context) error {
	out, err := h.svc.ListInstitutions(c.Request().Context())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) GetInstitution(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	inst, err := h.svc.GetInstitution(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, inst)
}

func (h *Handler) ListBuildings(c echo.Context) error {
	instID, err := optionalUUID(c, "institution_id")
	if err != nil {
		return err
	}
	out, err := h.svc.ListBuildings(c.Request().Context(), instID)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) ListFloors(c echo.Context) error {
	buildingID, err := optionalUUID(c, "building_id")
	if err != nil {
		return err
	}
	out, err := h.svc.ListFloors(c.Request().Context(), buildingID)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) ListServices(c echo.Context) error {
	out, err := h.svc.ListServices(c.Request().Context())
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) ListRooms(c echo.Context) error {
	instID, err := optionalUUID(c, "institution_id")
	if err != nil {
		return err
	}
	out, err := h.svc.ListRooms(c.Request().Context(), instID)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) GetRoom(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	room, err := h.svc.GetRoom(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, room)
}

func (h *Handler) ListBeds(c echo.Context) error {
	roomID, err := optionalUUID(c, "room_id")
	if err != nil {
		return err
	}
	out, err := h.svc.ListBeds(c.Request().Context(), roomID)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) GetBed(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	bed, err := h.svc.GetBed(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, bed)
}

func (h *Handler) GetBedByToken(c echo.Context) error {
	bed, err := h.svc.GetBedByToken(c.Request().Context(), c.Param("token"))
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, bed)
}

// -- Admin writes --

func (h *Handler) CreateRoom(c echo.Context) error {
	var in CreateRoomInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	room, err := h.svc.CreateRoom(c.Request().Context(), in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, room)
}

func (h *Handler) CreateBed(c echo.Context) error {
	var in CreateBedInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	bed, err := h.svc.CreateBed(c.Request().Context(), in)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, bed)
}

func (h *Handler) PatchBed(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var body struct {
		Active *bool `json:"active"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()

	if body.Active == nil {
		bed, err := h.svc.GetBed(ctx, id)
		if err != nil {
			return apperr.ToHTTP(err)
		}
		return c.JSON(http.StatusOK, bed)
	}

	bed, err := h.svc.SetActive(ctx, id, *body.Active)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, bed)
}
