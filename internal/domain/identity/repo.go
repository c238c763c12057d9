package identity

import (
	"context"

	"github.com/google/uuid"
)

type DoctorRepository interface {
	Upsert(ctx context.Context, d *Doctor) error
	GetByEmail(ctx context.Context, email string) (*Doctor, error)
}

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, doctorEmail string, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, doctorEmail string, id uuid.UUID) error
	List(ctx context.Context, doctorEmail, search string, limit, offset int) ([]*Patient, int, error)
}
