package verification

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// PublicHandler serves the anonymous verification surface scanned from
// printed prescriptions. Both endpoints count toward the same scan counter.
type PublicHandler struct {
	svc      *Service
	renderer DocumentRenderer
}

func NewPublicHandler(svc *Service, renderer DocumentRenderer) *PublicHandler {
	return &PublicHandler{svc: svc, renderer: renderer}
}

func (h *PublicHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/v/:token", h.Verify)
	g.GET("/v/:token/pdf", h.DownloadPDF)
}

func (h *PublicHandler) Verify(c echo.Context) error {
	view, err := h.svc.Scan(c.Request().Context(), c.Param("token"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "verification not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "verification failed")
	}
	return c.JSON(http.StatusOK, view)
}

func (h *PublicHandler) DownloadPDF(c echo.Context) error {
	ctx := c.Request().Context()
	rec, err := h.svc.ScanRecord(ctx, c.Param("token"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "verification not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "verification failed")
	}

	rendered, err := h.renderer.Render(ctx, rec.DoctorEmail, rec.ConsultationID)
	if err != nil {
		// uniform not-found if the underlying consultation is gone or empty
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrEmptyDocument) {
			return echo.NewHTTPError(http.StatusNotFound, "verification not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "document rendering failed")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`inline; filename="receta-%s.pdf"`, rec.IssueDate.Format("2006-01-02")))
	return c.Blob(http.StatusOK, "application/pdf", rendered.PDF)
}
