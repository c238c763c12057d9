// Package diagnosis suggests ICD-11 codes for free-text diagnoses.
package diagnosis

import (
	"context"
	"fmt"
	"strings"

	"github.com/praxis/praxis/internal/platform/icd"
)

// MinQueryLength is the shortest searchable term.
const MinQueryLength = 3

// MaxSuggestions caps the list returned to the client.
const MaxSuggestions = 5

// ErrQueryTooShort rejects terms that cannot meaningfully match.
var ErrQueryTooShort = fmt.Errorf("query must be at least %d characters", MinQueryLength)

// ErrUnconfigured means no upstream code index was wired in (missing
// credentials). Handlers surface it the same way as an upstream outage.
var ErrUnconfigured = fmt.Errorf("diagnosis code index not configured")

// Searcher is the upstream code index.
type Searcher interface {
	Search(ctx context.Context, term string) ([]icd.Suggestion, error)
}

type Service struct {
	searcher Searcher
}

func NewService(searcher Searcher) *Service {
	return &Service{searcher: searcher}
}

func (s *Service) Suggest(ctx context.Context, term string) ([]icd.Suggestion, error) {
	term = strings.TrimSpace(term)
	if len([]rune(term)) < MinQueryLength {
		return nil, ErrQueryTooShort
	}
	if s.searcher == nil {
		return nil, ErrUnconfigured
	}
	suggestions, err := s.searcher.Search(ctx, term)
	if err != nil {
		return nil, err
	}
	if len(suggestions) > MaxSuggestions {
		suggestions = suggestions[:MaxSuggestions]
	}
	return suggestions, nil
}
