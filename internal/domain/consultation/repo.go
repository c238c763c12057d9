package consultation

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, con *Consultation) error
	GetByID(ctx context.Context, doctorEmail string, id uuid.UUID) (*Consultation, error)
	Update(ctx context.Context, con *Consultation) error
	ListByPatient(ctx context.Context, doctorEmail string, patientID uuid.UUID, limit, offset int) ([]*Consultation, int, error)
}
