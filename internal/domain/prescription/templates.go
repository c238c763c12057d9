package prescription

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Named fallback templates. Unknown names fall back to the default.
const (
	TemplateMinimal = "minimal"
	TemplateModern  = "modern"
	TemplateClassic = "classic"

	DefaultTemplate = TemplateModern
)

// renderTemplate draws a self-contained A5 document in the requested style.
// Every template embeds the verification QR and URL, so the record is issued
// before drawing.
func (s *Service) renderTemplate(ctx context.Context, rc *RenderContext, name string) ([]byte, error) {
	if err := s.ensureRecord(ctx, rc); err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetAutoPageBreak(true, 18)
	pdf.AddPage()

	switch name {
	case TemplateMinimal:
		s.templateMinimal(pdf, rc)
	case TemplateClassic:
		s.templateClassic(pdf, rc)
	default:
		s.templateModern(pdf, rc)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("template render: %w", err)
	}
	return buf.Bytes(), nil
}

// parseHexColor decodes "#RRGGBB". The ok result is false for anything else.
func parseHexColor(s string) (r, g, b int, ok bool) {
	if len(s) != 7 || s[0] != '#' {
		return 0, 0, 0, false
	}
	rv, err1 := strconv.ParseUint(s[1:3], 16, 8)
	gv, err2 := strconv.ParseUint(s[3:5], 16, 8)
	bv, err3 := strconv.ParseUint(s[5:7], 16, 8)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, 0, 0, false
	}
	return int(rv), int(gv), int(bv), true
}

func (s *Service) brandColor(rc *RenderContext) (int, int, int) {
	if r, g, b, ok := parseHexColor(rc.Doctor.PrimaryColor); ok {
		return r, g, b
	}
	return 13, 110, 110
}

func patientLine(rc *RenderContext) string {
	line := rc.Patient.FullName()
	if age := rc.Patient.Age(time.Now()); age >= 0 {
		line += fmt.Sprintf("  ·  %d años", age)
	}
	if rc.Patient.DNI != "" {
		line += "  ·  DNI " + rc.Patient.DNI
	}
	return line
}

// templateFooter draws the shared verification block: QR, lookup URL and
// issue date.
func (s *Service) templateFooter(pdf *gofpdf.Fpdf, rc *RenderContext) {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, pageH := pdf.GetPageSize()

	footTop := pageH - 42
	s.drawTemplateQR(pdf, rc, 12, footTop, 26)

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetTextColor(90, 90, 90)
	pdf.SetXY(42, footTop+6)
	pdf.MultiCell(pageW-54, 3.4,
		tr(fmt.Sprintf("Verifique esta receta en\n%s\nEmitida el %s",
			rc.VerifyURL, rc.Record.IssueDate.Format("02/01/2006"))),
		"", "L", false)
	pdf.SetTextColor(0, 0, 0)
}

func (s *Service) drawTemplateQR(pdf *gofpdf.Fpdf, rc *RenderContext, x, y, sizeMM float64) {
	png, err := qrPNG(rc.VerifyURL)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("consultation_id", rc.Consultation.ID.String()).
			Msg("qr generation failed, rendering without qr")
		return
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("verify-qr", opts, bytes.NewReader(png))
	pdf.ImageOptions("verify-qr", x, y, sizeMM, sizeMM, false, opts, 0, "")
}

func (s *Service) templateModern(pdf *gofpdf.Fpdf, rc *RenderContext) {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, _ := pdf.GetPageSize()
	r, g, b := s.brandColor(rc)

	// header band
	pdf.SetFillColor(r, g, b)
	pdf.Rect(0, 0, pageW, 26, "F")
	s.placeRemoteImage(pdf, rc.Doctor.LogoURL, pageW-30, 4, 18, 18)

	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(12, 6)
	pdf.CellFormat(0, 7, tr(rc.Doctor.FullName), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetX(12)
	sub := rc.Doctor.Specialty
	if rc.Doctor.LicenseNumber != "" {
		if sub != "" {
			sub += "  ·  "
		}
		sub += "Lic. " + rc.Doctor.LicenseNumber
	}
	pdf.CellFormat(0, 5, tr(sub), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	// patient block
	pdf.SetXY(12, 34)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 6, tr(patientLine(rc)), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetX(12)
	pdf.CellFormat(0, 5, tr("Fecha: "+rc.Consultation.Date.Format("02/01/2006")), "", 1, "L", false, 0, "")

	if rc.Consultation.Diagnosis != "" {
		pdf.SetX(12)
		diag := rc.Consultation.Diagnosis
		if rc.Consultation.DiagnosisCode != "" {
			diag += " (" + rc.Consultation.DiagnosisCode + ")"
		}
		pdf.CellFormat(0, 5, tr("Diagnóstico: "+diag), "", 1, "L", false, 0, "")
	}

	// treatment body
	pdf.SetDrawColor(r, g, b)
	pdf.Line(12, pdf.GetY()+3, pageW-12, pdf.GetY()+3)
	pdf.SetXY(12, pdf.GetY()+7)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 6, tr("Indicaciones"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetX(12)
	pdf.MultiCell(pageW-24, 5, tr(rc.Consultation.Treatment), "", "L", false)

	s.placeRemoteImage(pdf, rc.Doctor.SignatureURL, pageW-52, pdf.GetY()+6, 40, 15)
	s.templateFooter(pdf, rc)
}

func (s *Service) templateClassic(pdf *gofpdf.Fpdf, rc *RenderContext) {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, _ := pdf.GetPageSize()

	// centered letterhead with rules
	pdf.SetFont("Times", "B", 14)
	pdf.SetXY(0, 10)
	pdf.CellFormat(pageW, 7, tr(rc.Doctor.FullName), "", 1, "C", false, 0, "")
	pdf.SetFont("Times", "I", 10)
	pdf.CellFormat(pageW, 5, tr(rc.Doctor.Specialty), "", 1, "C", false, 0, "")
	if rc.Doctor.ClinicName != "" {
		pdf.SetFont("Times", "", 9)
		pdf.CellFormat(pageW, 5, tr(rc.Doctor.ClinicName+"  ·  "+rc.Doctor.ClinicAddress), "", 1, "C", false, 0, "")
	}
	pdf.SetDrawColor(0, 0, 0)
	pdf.Line(12, pdf.GetY()+2, pageW-12, pdf.GetY()+2)
	pdf.Line(12, pdf.GetY()+3, pageW-12, pdf.GetY()+3)

	pdf.SetXY(12, pdf.GetY()+10)
	pdf.SetFont("Times", "", 10)
	pdf.CellFormat(0, 5, tr("Paciente: "+patientLine(rc)), "", 1, "L", false, 0, "")
	pdf.SetX(12)
	pdf.CellFormat(0, 5, tr("Fecha: "+rc.Consultation.Date.Format("02/01/2006")), "", 1, "L", false, 0, "")

	// Rx body
	pdf.SetXY(12, pdf.GetY()+8)
	pdf.SetFont("Times", "B", 16)
	pdf.CellFormat(0, 8, "Rp.", "", 1, "L", false, 0, "")
	pdf.SetFont("Times", "", 11)
	pdf.SetX(18)
	pdf.MultiCell(pageW-30, 5.5, tr(rc.Consultation.Treatment), "", "L", false)

	if rc.Doctor.LicenseNumber != "" {
		pdf.SetXY(pageW-64, pdf.GetY()+12)
		pdf.SetFont("Times", "", 9)
		pdf.CellFormat(52, 5, tr("Reg. "+rc.Doctor.LicenseNumber), "T", 1, "C", false, 0, "")
	}

	s.templateFooter(pdf, rc)
}

func (s *Service) templateMinimal(pdf *gofpdf.Fpdf, rc *RenderContext) {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, _ := pdf.GetPageSize()

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(12, 12)
	pdf.CellFormat(0, 6, tr(rc.Doctor.FullName), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetX(12)
	pdf.CellFormat(0, 5, tr(rc.Consultation.Date.Format("02/01/2006")), "", 1, "L", false, 0, "")

	pdf.SetXY(12, 30)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, tr(patientLine(rc)), "", 1, "L", false, 0, "")

	pdf.SetXY(12, 42)
	pdf.MultiCell(pageW-24, 5, tr(rc.Consultation.Treatment), "", "L", false)

	s.templateFooter(pdf, rc)
}
