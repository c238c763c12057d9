package layout

import (
	"context"
	"fmt"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, l *Layout) error {
	if l.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(l.Fields) == 0 {
		return fmt.Errorf("at least one field placement is required")
	}
	for i, f := range l.Fields {
		if f.Field == "" {
			return fmt.Errorf("field %d: name is required", i)
		}
		if f.XMM < 0 || f.YMM < 0 {
			return fmt.Errorf("field %q: coordinates must be non-negative", f.Field)
		}
	}
	if l.PageWidthMM <= 0 {
		l.PageWidthMM = DefaultPageWidthMM
	}
	if l.PageHeightMM <= 0 {
		l.PageHeightMM = DefaultPageHeightMM
	}
	return s.repo.Create(ctx, l)
}

// GetActive returns the doctor's active layout, or a no-rows error when the
// doctor has never saved one.
func (s *Service) GetActive(ctx context.Context, doctorEmail string) (*Layout, error) {
	return s.repo.GetActive(ctx, doctorEmail)
}

func (s *Service) List(ctx context.Context, doctorEmail string) ([]*Layout, error) {
	return s.repo.List(ctx, doctorEmail)
}
