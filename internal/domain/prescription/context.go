// Package prescription renders consultation data into the PDF document
// handed to the patient. Two strategies exist: coordinate rendering onto the
// doctor's pre-printed stationery, and self-contained template rendering.
package prescription

import (
	"fmt"
	"time"

	"github.com/praxis/praxis/internal/domain/consultation"
	"github.com/praxis/praxis/internal/domain/identity"
	"github.com/praxis/praxis/internal/domain/verification"
)

// RenderContext carries everything a strategy needs to draw a document.
type RenderContext struct {
	Doctor       *identity.Doctor
	Patient      *identity.Patient
	Consultation *consultation.Consultation
	Record       *verification.Record
	VerifyURL    string
}

// fieldResolvers maps layout field names to their values. The set is closed:
// a placement naming a field outside it resolves to the empty string and is
// skipped, so stale layouts never break rendering.
var fieldResolvers = map[string]func(*RenderContext) string{
	"patient_name": func(rc *RenderContext) string { return rc.Patient.FullName() },
	"patient_age": func(rc *RenderContext) string {
		age := rc.Patient.Age(time.Now())
		if age < 0 {
			return ""
		}
		return fmt.Sprintf("%d años", age)
	},
	"patient_dni":      func(rc *RenderContext) string { return rc.Patient.DNI },
	"date":             func(rc *RenderContext) string { return rc.Consultation.Date.Format("02/01/2006") },
	"reason":           func(rc *RenderContext) string { return rc.Consultation.Reason },
	"diagnosis":        func(rc *RenderContext) string { return rc.Consultation.Diagnosis },
	"diagnosis_code":   func(rc *RenderContext) string { return rc.Consultation.DiagnosisCode },
	"treatment":        func(rc *RenderContext) string { return rc.Consultation.Treatment },
	"notes":            func(rc *RenderContext) string { return rc.Consultation.Notes },
	"doctor_name":      func(rc *RenderContext) string { return rc.Doctor.FullName },
	"doctor_specialty": func(rc *RenderContext) string { return rc.Doctor.Specialty },
	"doctor_license":   func(rc *RenderContext) string { return rc.Doctor.LicenseNumber },
	"clinic_name":      func(rc *RenderContext) string { return rc.Doctor.ClinicName },
	"clinic_address":   func(rc *RenderContext) string { return rc.Doctor.ClinicAddress },
}

// Reserved placements drawn as images instead of text.
const (
	fieldQRCode    = "qr_code"
	fieldSignature = "doctor_signature"
)

func resolveField(name string, rc *RenderContext) string {
	fn, ok := fieldResolvers[name]
	if !ok {
		return ""
	}
	return fn(rc)
}
