package verification

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/praxis/praxis/internal/platform/auth"
	"github.com/praxis/praxis/internal/platform/mail"
	"github.com/praxis/praxis/pkg/pagination"
)

// mailSendTimeout bounds background SMTP delivery.
const mailSendTimeout = 15 * time.Second

// RenderedDocument is a prescription ready for delivery.
type RenderedDocument struct {
	PDF          []byte
	PatientName  string
	PatientEmail string
	DoctorName   string
}

// DocumentRenderer produces the prescription PDF for a consultation. The
// concrete renderer lives in the prescription package; the indirection keeps
// the ledger deliverable-agnostic.
type DocumentRenderer interface {
	Render(ctx context.Context, doctorEmail string, consultationID uuid.UUID) (*RenderedDocument, error)
}

// ErrEmptyDocument is returned by renderers when the consultation carries no
// prescribable content.
var ErrEmptyDocument = errors.New("consultation has no diagnosis or treatment")

// Handler serves the doctor-facing verification and dispatch surface.
type Handler struct {
	svc      *Service
	renderer DocumentRenderer
	mailer   mail.Sender
	logger   zerolog.Logger
}

func NewHandler(svc *Service, renderer DocumentRenderer, mailer mail.Sender, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, renderer: renderer, mailer: mailer, logger: logger}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/consultations/:id/create-verification", h.EnsureVerification)
	api.POST("/consultations/:id/send-email", h.SendEmail)
	api.POST("/consultations/:id/mark-whatsapp-sent", h.MarkWhatsAppSent)
	api.GET("/consultations/:id/dispatch-status", h.DispatchStatus)
	api.GET("/audit/dispatch-summary", h.DispatchSummary)
}

type ensureResponse struct {
	*Record
	VerifyURL string `json:"verify_url"`
}

func (h *Handler) EnsureVerification(c echo.Context) error {
	doc := auth.DoctorFromContext(c.Request().Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	rec, err := h.svc.Ensure(c.Request().Context(), doc.Email, doc.DisplayName, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "consultation not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, ensureResponse{Record: rec, VerifyURL: h.svc.VerifyURL(rec.Token)})
}

// SendEmail renders the prescription and queues delivery to the patient's
// address. Delivery runs in the background; the dispatch mark reflects the
// handoff, not SMTP completion.
func (h *Handler) SendEmail(c echo.Context) error {
	doc := auth.DoctorFromContext(c.Request().Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if h.mailer == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "email delivery is not configured")
	}

	ctx := c.Request().Context()
	rendered, err := h.renderer.Render(ctx, doc.Email, id)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "consultation not found")
	case errors.Is(err, ErrEmptyDocument):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "consultation has no diagnosis or treatment")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if rendered.PatientEmail == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "patient has no email address")
	}

	if err := h.svc.MarkEmailSent(ctx, doc.Email, doc.DisplayName, id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), mailSendTimeout)
		defer cancel()
		if err := h.mailer.SendPrescription(sendCtx, rendered.PatientEmail, rendered.PatientName, rendered.DoctorName, rendered.PDF); err != nil {
			h.logger.Error().Err(err).
				Str("consultation_id", id.String()).
				Msg("prescription email delivery failed")
		}
	}()

	return c.JSON(http.StatusAccepted, map[string]string{"status": "queued", "to": rendered.PatientEmail})
}

func (h *Handler) MarkWhatsAppSent(c echo.Context) error {
	doc := auth.DoctorFromContext(c.Request().Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	err = h.svc.MarkWhatsAppSent(c.Request().Context(), doc.Email, id)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, map[string]string{"status": "marked"})
	case errors.Is(err, ErrNoVerification):
		return echo.NewHTTPError(http.StatusBadRequest, "prescription has not been issued")
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "consultation not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

type dispatchStatusResponse struct {
	*Record
	Status    string `json:"status"`
	VerifyURL string `json:"verify_url"`
}

func (h *Handler) DispatchStatus(c echo.Context) error {
	doc := auth.DoctorFromContext(c.Request().Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	rec, status, err := h.svc.DispatchStatus(c.Request().Context(), doc.Email, id)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, dispatchStatusResponse{Record: rec, Status: status, VerifyURL: h.svc.VerifyURL(rec.Token)})
	case errors.Is(err, ErrNoVerification):
		return c.JSON(http.StatusOK, map[string]string{"status": StatusPending})
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "consultation not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) DispatchSummary(c echo.Context) error {
	doc := auth.DoctorFromContext(c.Request().Context())
	pg := pagination.FromContext(c)
	entries, total, err := h.svc.DispatchSummary(c.Request().Context(), doc.Email, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if entries == nil {
		entries = []*DispatchEntry{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(entries, total, pg.Limit, pg.Offset))
}
