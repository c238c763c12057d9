package consultation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/praxis/praxis/internal/domain/identity"
)

// PatientGetter resolves a patient under the doctor's ownership. Resolution
// failure means the patient either does not exist or belongs to someone else.
type PatientGetter interface {
	GetPatient(ctx context.Context, doctorEmail string, id uuid.UUID) (*identity.Patient, error)
}

type Service struct {
	repo     Repository
	patients PatientGetter
}

func NewService(repo Repository, patients PatientGetter) *Service {
	return &Service{repo: repo, patients: patients}
}

// ErrPatientNotFound is returned when the patient does not exist for the
// requesting doctor.
var ErrPatientNotFound = fmt.Errorf("patient not found")

func (s *Service) Create(ctx context.Context, doctorEmail string, con *Consultation) error {
	if con.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if _, err := s.patients.GetPatient(ctx, doctorEmail, con.PatientID); err != nil {
		return ErrPatientNotFound
	}
	if con.Date.IsZero() {
		con.Date = time.Now().UTC()
	}
	con.DoctorEmail = doctorEmail
	return s.repo.Create(ctx, con)
}

func (s *Service) Get(ctx context.Context, doctorEmail string, id uuid.UUID) (*Consultation, error) {
	return s.repo.GetByID(ctx, doctorEmail, id)
}

func (s *Service) Update(ctx context.Context, con *Consultation) error {
	if con.ID == uuid.Nil {
		return fmt.Errorf("id is required")
	}
	if con.Date.IsZero() {
		con.Date = time.Now().UTC()
	}
	return s.repo.Update(ctx, con)
}

// ListByPatient returns the patient's consultations newest first.
func (s *Service) ListByPatient(ctx context.Context, doctorEmail string, patientID uuid.UUID, limit, offset int) ([]*Consultation, int, error) {
	if _, err := s.patients.GetPatient(ctx, doctorEmail, patientID); err != nil {
		return nil, 0, ErrPatientNotFound
	}
	return s.repo.ListByPatient(ctx, doctorEmail, patientID, limit, offset)
}
