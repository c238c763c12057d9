package diagnosis

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/praxis/praxis/internal/platform/icd"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/diagnosis/suggest", h.Suggest)
}

type suggestRequest struct {
	Text string `json:"text"`
}

type suggestResponse struct {
	Suggestions []icd.Suggestion `json:"suggestions"`
}

// Suggest proxies the term to the code index. Upstream failures surface as a
// generic 503: the caller cannot act on WHO API details and the doctor can
// always type the diagnosis by hand.
func (h *Handler) Suggest(c echo.Context) error {
	var req suggestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	suggestions, err := h.svc.Suggest(c.Request().Context(), req.Text)
	if err != nil {
		if errors.Is(err, ErrQueryTooShort) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		h.logger.Error().Err(err).Msg("diagnosis suggestion lookup failed")
		return echo.NewHTTPError(http.StatusServiceUnavailable, "diagnosis suggestions are temporarily unavailable")
	}
	if suggestions == nil {
		suggestions = []icd.Suggestion{}
	}
	return c.JSON(http.StatusOK, suggestResponse{Suggestions: suggestions})
}
