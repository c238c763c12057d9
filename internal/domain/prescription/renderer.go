package prescription

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog"

	"github.com/praxis/praxis/internal/domain/consultation"
	"github.com/praxis/praxis/internal/domain/identity"
	"github.com/praxis/praxis/internal/domain/layout"
	"github.com/praxis/praxis/internal/domain/verification"
	"github.com/praxis/praxis/internal/platform/db"
	"github.com/praxis/praxis/internal/platform/qr"
)

// mmToPt converts layout millimeters to PDF points.
const mmToPt = 2.83465

// qrSizeMM is the default printed QR size.
const qrSizeMM = 25.0

// Default signature stamp dimensions when the placement sets none.
const (
	signatureWidthMM  = 40.0
	signatureHeightMM = 15.0
)

// qrPNG generates the verification QR image. Indirection so tests can force
// generation failure.
var qrPNG = func(content string) ([]byte, error) {
	return qr.PNG(content, 0)
}

type DoctorGetter interface {
	GetByEmail(ctx context.Context, email string) (*identity.Doctor, error)
}

type PatientGetter interface {
	GetPatient(ctx context.Context, doctorEmail string, id uuid.UUID) (*identity.Patient, error)
}

type ConsultationGetter interface {
	Get(ctx context.Context, doctorEmail string, id uuid.UUID) (*consultation.Consultation, error)
}

type LayoutGetter interface {
	GetActive(ctx context.Context, doctorEmail string) (*layout.Layout, error)
}

// Ledger issues and resolves verification records for rendered documents.
type Ledger interface {
	Ensure(ctx context.Context, doctorEmail, doctorName string, consultationID uuid.UUID) (*verification.Record, error)
	VerifyURL(token string) string
}

// Service assembles the render context and drives the active strategy.
type Service struct {
	doctors       DoctorGetter
	patients      PatientGetter
	consultations ConsultationGetter
	layouts       LayoutGetter
	ledger        Ledger
	assets        *http.Client
	logger        zerolog.Logger
}

func NewService(doctors DoctorGetter, patients PatientGetter, consultations ConsultationGetter,
	layouts LayoutGetter, ledger Ledger, logger zerolog.Logger) *Service {
	return &Service{
		doctors:       doctors,
		patients:      patients,
		consultations: consultations,
		layouts:       layouts,
		ledger:        ledger,
		assets:        &http.Client{Timeout: 5 * time.Second},
		logger:        logger,
	}
}

// Render produces the prescription PDF for a consultation. The coordinate
// strategy is used when the doctor has an active layout; otherwise the named
// template fallback draws a self-contained document.
func (s *Service) Render(ctx context.Context, doctorEmail string, consultationID uuid.UUID) (*verification.RenderedDocument, error) {
	con, err := s.consultations.Get(ctx, doctorEmail, consultationID)
	if err != nil {
		return nil, verification.ErrNotFound
	}

	if strings.TrimSpace(con.Diagnosis) == "" && strings.TrimSpace(con.Treatment) == "" {
		return nil, verification.ErrEmptyDocument
	}

	patient, err := s.patients.GetPatient(ctx, doctorEmail, con.PatientID)
	if err != nil {
		return nil, fmt.Errorf("consultation %s: patient record missing: %w", consultationID, err)
	}

	doctor, err := s.doctors.GetByEmail(ctx, doctorEmail)
	if err != nil {
		if !db.IsNoRows(err) {
			return nil, err
		}
		doctor = &identity.Doctor{Email: doctorEmail}
	}

	rc := &RenderContext{Doctor: doctor, Patient: patient, Consultation: con}

	var pdfBytes []byte
	l, err := s.layouts.GetActive(ctx, doctorEmail)
	switch {
	case err == nil:
		pdfBytes, err = s.renderCoordinate(ctx, rc, l)
	case db.IsNoRows(err):
		pdfBytes, err = s.renderTemplate(ctx, rc, doctor.PDFTemplate)
	}
	if err != nil {
		return nil, err
	}

	return &verification.RenderedDocument{
		PDF:          pdfBytes,
		PatientName:  patient.FullName(),
		PatientEmail: patient.Email,
		DoctorName:   doctor.FullName,
	}, nil
}

// ensureRecord issues the verification record exactly once per render.
func (s *Service) ensureRecord(ctx context.Context, rc *RenderContext) error {
	if rc.Record != nil {
		return nil
	}
	rec, err := s.ledger.Ensure(ctx, rc.Doctor.Email, rc.Doctor.FullName, rc.Consultation.ID)
	if err != nil {
		return fmt.Errorf("issuing verification record: %w", err)
	}
	rc.Record = rec
	rc.VerifyURL = s.ledger.VerifyURL(rec.Token)
	return nil
}

// renderCoordinate draws resolved field values at their layout positions on
// a page matching the doctor's pre-printed stationery.
func (s *Service) renderCoordinate(ctx context.Context, rc *RenderContext, l *layout.Layout) ([]byte, error) {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: l.PageWidthMM * mmToPt, Ht: l.PageHeightMM * mmToPt},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if l.BackgroundImageURL != "" {
		s.placeRemoteImage(pdf, l.BackgroundImageURL, 0, 0, l.PageWidthMM*mmToPt, l.PageHeightMM*mmToPt)
	}

	for _, f := range l.Fields {
		x := f.XMM * mmToPt
		y := f.YMM * mmToPt

		if f.Field == fieldQRCode {
			if err := s.ensureRecord(ctx, rc); err != nil {
				return nil, err
			}
			s.drawQR(pdf, rc, x, y, f.MaxWidth)
			continue
		}

		if f.Field == fieldSignature {
			w, h := f.MaxWidth, f.MaxHeight
			if w <= 0 {
				w = signatureWidthMM
			}
			if h <= 0 {
				h = signatureHeightMM
			}
			s.placeRemoteImage(pdf, rc.Doctor.SignatureURL, x, y, w*mmToPt, h*mmToPt)
			continue
		}

		val := resolveField(f.Field, rc)
		if val == "" {
			continue
		}

		size := f.FontSize
		if size <= 0 {
			size = 10
		}
		style := ""
		if f.Bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, size)

		if f.MaxWidth > 0 {
			pdf.SetXY(x, y)
			pdf.MultiCell(f.MaxWidth*mmToPt, size*1.35, tr(val), "", "L", false)
		} else {
			pdf.Text(x, y, tr(val))
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("coordinate render: %w", err)
	}
	return buf.Bytes(), nil
}

// drawQR places the verification QR code. QR generation failure is logged
// and the rest of the document still renders.
func (s *Service) drawQR(pdf *gofpdf.Fpdf, rc *RenderContext, x, y, sizeMM float64) {
	png, err := qrPNG(rc.VerifyURL)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("consultation_id", rc.Consultation.ID.String()).
			Msg("qr generation failed, rendering without qr")
		return
	}
	if sizeMM <= 0 {
		sizeMM = qrSizeMM
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("verify-qr", opts, bytes.NewReader(png))
	pdf.ImageOptions("verify-qr", x, y, sizeMM*mmToPt, sizeMM*mmToPt, false, opts, 0, "")
}

// placeRemoteImage fetches a branding asset and draws it. Any failure is
// logged and skipped so a dead logo URL cannot block issuance.
func (s *Service) placeRemoteImage(pdf *gofpdf.Fpdf, url string, x, y, w, h float64) {
	if url == "" {
		return
	}
	resp, err := s.assets.Get(url)
	if err != nil {
		s.logger.Warn().Err(err).Str("url", url).Msg("branding asset fetch failed")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		s.logger.Warn().Int("status", resp.StatusCode).Str("url", url).Msg("branding asset fetch failed")
		return
	}

	imgType := "PNG"
	switch {
	case strings.Contains(resp.Header.Get("Content-Type"), "jpeg"),
		strings.HasSuffix(strings.ToLower(url), ".jpg"),
		strings.HasSuffix(strings.ToLower(url), ".jpeg"):
		imgType = "JPG"
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		s.logger.Warn().Err(err).Str("url", url).Msg("branding asset read failed")
		return
	}

	opts := gofpdf.ImageOptions{ImageType: imgType}
	pdf.RegisterImageOptionsReader(url, opts, bytes.NewReader(data))
	if pdf.Err() {
		// malformed image data; reset and continue without it
		s.logger.Warn().Str("url", url).Msg("branding asset rejected")
		pdf.ClearError()
		return
	}
	pdf.ImageOptions(url, x, y, w, h, false, opts, 0, "")
}
