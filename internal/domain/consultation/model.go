package consultation

import (
	"time"

	"github.com/google/uuid"
)

// Consultation is a single visit record. It is the unit a prescription
// document is issued for.
type Consultation struct {
	ID            uuid.UUID `json:"id"`
	PatientID     uuid.UUID `json:"patient_id"`
	DoctorEmail   string    `json:"-"`
	Date          time.Time `json:"date"`
	Reason        string    `json:"reason,omitempty"`
	Diagnosis     string    `json:"diagnosis,omitempty"`
	DiagnosisCode string    `json:"diagnosis_code,omitempty"`
	Treatment     string    `json:"treatment,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
