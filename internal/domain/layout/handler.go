package layout

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/praxis/praxis/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/layouts", h.List)
	api.GET("/layouts/current", h.GetCurrent)
	api.POST("/layouts", h.Create)
}

func (h *Handler) Create(c echo.Context) error {
	doc := auth.DoctorFromContext(c.Request().Context())
	var l Layout
	if err := c.Bind(&l); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	l.DoctorEmail = doc.Email
	if err := h.svc.Create(c.Request().Context(), &l); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return c.JSON(http.StatusCreated, l)
}

func (h *Handler) GetCurrent(c echo.Context) error {
	doc := auth.DoctorFromContext(c.Request().Context())
	l, err := h.svc.GetActive(c.Request().Context(), doc.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "no active layout")
	}
	return c.JSON(http.StatusOK, l)
}

func (h *Handler) List(c echo.Context) error {
	doc := auth.DoctorFromContext(c.Request().Context())
	layouts, err := h.svc.List(c.Request().Context(), doc.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if layouts == nil {
		layouts = []*Layout{}
	}
	return c.JSON(http.StatusOK, layouts)
}
