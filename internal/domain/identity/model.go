package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Doctor is a practice owner. Doctors are keyed by email, which is the
// tenant key carried by the authentication token: every doctor-owned row in
// the system references it.
type Doctor struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	FullName      string    `json:"full_name"`
	Specialty     string    `json:"specialty,omitempty"`
	LicenseNumber string    `json:"license_number,omitempty"`
	ClinicName    string    `json:"clinic_name,omitempty"`
	ClinicAddress string    `json:"clinic_address,omitempty"`
	Phone         string    `json:"phone,omitempty"`

	// Branding assets referenced by rendered prescriptions. All optional;
	// rendering degrades gracefully when absent.
	LogoURL        string `json:"logo_url,omitempty"`
	SignatureURL   string `json:"signature_url,omitempty"`
	PrimaryColor   string `json:"primary_color,omitempty"`
	SecondaryColor string `json:"secondary_color,omitempty"`

	// PDFTemplate selects the fallback document style used when the doctor
	// has no coordinate layout: minimal, modern or classic.
	PDFTemplate string `json:"pdf_template,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Patient is a person under a doctor's care. DoctorEmail scopes the row to
// its owning doctor.
type Patient struct {
	ID              uuid.UUID  `json:"id"`
	DoctorEmail     string     `json:"-"`
	GivenName       string     `json:"given_name"`
	PaternalSurname string     `json:"paternal_surname"`
	MaternalSurname string     `json:"maternal_surname,omitempty"`
	DNI             string     `json:"dni,omitempty"`
	Email           string     `json:"email,omitempty"`
	Phone           string     `json:"phone,omitempty"`
	BirthDate       *time.Time `json:"birth_date,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// FullName returns the patient's display name.
func (p *Patient) FullName() string {
	parts := []string{p.GivenName, p.PaternalSurname, p.MaternalSurname}
	nonEmpty := parts[:0]
	for _, s := range parts {
		if s != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	return strings.Join(nonEmpty, " ")
}

// Age returns the patient's age in whole years, or -1 when the birth date is
// unknown.
func (p *Patient) Age(now time.Time) int {
	if p.BirthDate == nil {
		return -1
	}
	years := now.Year() - p.BirthDate.Year()
	anniversary := p.BirthDate.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	return years
}
