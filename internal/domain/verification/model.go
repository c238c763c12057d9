// Package verification maintains the tamper-evidence ledger behind issued
// prescriptions. Each consultation gets at most one verification record; its
// token backs the QR code printed on the document and the public lookup
// endpoint patients and pharmacists scan.
package verification

import (
	"time"

	"github.com/google/uuid"
)

// Record is one entry in the verification ledger.
type Record struct {
	ID             uuid.UUID  `json:"id"`
	Token          string     `json:"token"`
	ConsultationID uuid.UUID  `json:"consultation_id"`
	DoctorEmail    string     `json:"-"`
	DoctorName     string     `json:"doctor_name"`
	IssueDate      time.Time  `json:"issue_date"`
	ScannedCount   int        `json:"scanned_count"`
	LastScannedAt  *time.Time `json:"last_scanned_at,omitempty"`
	EmailSentAt    *time.Time `json:"email_sent_at,omitempty"`
	WhatsAppSentAt *time.Time `json:"whatsapp_sent_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// PublicView is the anonymous verification response. It deliberately carries
// no patient or clinical data.
type PublicView struct {
	Valid               bool   `json:"valid"`
	DoctorName          string `json:"doctor_name"`
	IssueDate           string `json:"issue_date"`
	VerificationMessage string `json:"verification_message"`
	ScannedCount        int    `json:"scanned_count"`
}

// DispatchStatus classifies how far a prescription has traveled to the
// patient.
const (
	StatusPending = "pending"
	StatusSent    = "sent"
)

// DispatchEntry is one row of the dispatch audit summary. Patient identity is
// reduced to initials.
type DispatchEntry struct {
	ConsultationID  uuid.UUID  `json:"consultation_id"`
	Token           string     `json:"token"`
	PatientInitials string     `json:"patient_initials"`
	DoctorName      string     `json:"doctor_name"`
	IssueDate       time.Time  `json:"issue_date"`
	EmailSentAt     *time.Time `json:"email_sent_at,omitempty"`
	WhatsAppSentAt  *time.Time `json:"whatsapp_sent_at,omitempty"`
	ScannedCount    int        `json:"scanned_count"`
	Status          string     `json:"status"`
}

// DeliveryStatus resolves the dispatch classification for a record: a
// prescription counts as sent once any channel delivered it.
func (r *Record) DeliveryStatus() string {
	if r.EmailSentAt != nil || r.WhatsAppSentAt != nil {
		return StatusSent
	}
	return StatusPending
}
