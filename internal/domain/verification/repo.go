package verification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	// Insert adds a new record. Inserting a second record for the same
	// consultation fails with a unique violation.
	Insert(ctx context.Context, r *Record) error
	GetByConsultation(ctx context.Context, consultationID uuid.UUID) (*Record, error)
	// RecordScan atomically increments the scan counter and stamps the scan
	// time, returning the updated record. Every token lookup goes through it
	// so no read path can skip the counter.
	RecordScan(ctx context.Context, token string) (*Record, error)
	SetEmailSent(ctx context.Context, consultationID uuid.UUID, at time.Time) error
	SetWhatsAppSent(ctx context.Context, consultationID uuid.UUID, at time.Time) error
	DispatchSummary(ctx context.Context, doctorEmail string, limit, offset int) ([]*DispatchEntry, int, error)
}
