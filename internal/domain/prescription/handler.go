package prescription

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/praxis/praxis/internal/domain/verification"
	"github.com/praxis/praxis/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/consultations/:id/pdf", h.DownloadPDF)
}

// DownloadPDF renders and returns the prescription for printing or review.
func (h *Handler) DownloadPDF(c echo.Context) error {
	doc := auth.DoctorFromContext(c.Request().Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	rendered, err := h.svc.Render(c.Request().Context(), doc.Email, id)
	switch {
	case err == nil:
	case errors.Is(err, verification.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "consultation not found")
	case errors.Is(err, verification.ErrEmptyDocument):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "consultation has no diagnosis or treatment")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="receta-%s.pdf"`, id))
	return c.Blob(http.StatusOK, "application/pdf", rendered.PDF)
}
