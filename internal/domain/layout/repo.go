package layout

import "context"

type Repository interface {
	// Create stores a new layout as the doctor's active one, deactivating
	// any previously active layout atomically.
	Create(ctx context.Context, l *Layout) error
	GetActive(ctx context.Context, doctorEmail string) (*Layout, error)
	List(ctx context.Context, doctorEmail string) ([]*Layout, error)
}
