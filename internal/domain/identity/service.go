package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/praxis/praxis/internal/platform/db"
)

type Service struct {
	doctors  DoctorRepository
	patients PatientRepository
}

func NewService(doctors DoctorRepository, patients PatientRepository) *Service {
	return &Service{doctors: doctors, patients: patients}
}

// -- Doctor profile --

// GetProfile returns the doctor's stored profile. A doctor who has never
// saved a profile gets a default built from the token identity.
func (s *Service) GetProfile(ctx context.Context, email, displayName string) (*Doctor, error) {
	d, err := s.doctors.GetByEmail(ctx, email)
	if err != nil {
		if db.IsNoRows(err) {
			return &Doctor{Email: email, FullName: displayName}, nil
		}
		return nil, err
	}
	return d, nil
}

func (s *Service) UpdateProfile(ctx context.Context, d *Doctor) error {
	if d.Email == "" {
		return fmt.Errorf("email is required")
	}
	if d.FullName == "" {
		return fmt.Errorf("full_name is required")
	}
	return s.doctors.Upsert(ctx, d)
}

// -- Patients --

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if p.GivenName == "" || p.PaternalSurname == "" {
		return fmt.Errorf("given_name and paternal_surname are required")
	}
	return s.patients.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, doctorEmail string, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, doctorEmail, id)
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if p.GivenName == "" || p.PaternalSurname == "" {
		return fmt.Errorf("given_name and paternal_surname are required")
	}
	return s.patients.Update(ctx, p)
}

func (s *Service) DeletePatient(ctx context.Context, doctorEmail string, id uuid.UUID) error {
	return s.patients.Delete(ctx, doctorEmail, id)
}

func (s *Service) ListPatients(ctx context.Context, doctorEmail, search string, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, doctorEmail, search, limit, offset)
}
