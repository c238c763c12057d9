package diagnosis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/praxis/praxis/internal/platform/icd"
)

type stubSearcher struct {
	suggestions []icd.Suggestion
	err         error
	lastTerm    string
}

func (s *stubSearcher) Search(ctx context.Context, term string) ([]icd.Suggestion, error) {
	s.lastTerm = term
	return s.suggestions, s.err
}

func newSuggestContext(t *testing.T, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/diagnosis/suggest", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestSuggest(t *testing.T) {
	searcher := &stubSearcher{suggestions: []icd.Suggestion{{Code: "CA40", Title: "Neumonía"}}}
	h := NewHandler(NewService(searcher), zerolog.Nop())

	c, rec := newSuggestContext(t, `{"text":"neumonia"}`)
	if err := h.Suggest(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp suggestResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Suggestions) != 1 || resp.Suggestions[0].Code != "CA40" {
		t.Errorf("unexpected suggestions: %+v", resp.Suggestions)
	}
	if searcher.lastTerm != "neumonia" {
		t.Errorf("expected trimmed term, got %q", searcher.lastTerm)
	}
}

func TestSuggest_CapsResults(t *testing.T) {
	var many []icd.Suggestion
	for i := 0; i < MaxSuggestions+3; i++ {
		many = append(many, icd.Suggestion{Code: fmt.Sprintf("CA%02d", i), Title: "x"})
	}
	h := NewHandler(NewService(&stubSearcher{suggestions: many}), zerolog.Nop())

	c, rec := newSuggestContext(t, `{"text":"neumonia"}`)
	if err := h.Suggest(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp suggestResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Suggestions) != MaxSuggestions {
		t.Errorf("expected %d suggestions, got %d", MaxSuggestions, len(resp.Suggestions))
	}
}

func TestSuggest_TooShort(t *testing.T) {
	h := NewHandler(NewService(&stubSearcher{}), zerolog.Nop())

	c, _ := newSuggestContext(t, `{"text":"ab"}`)
	err := h.Suggest(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for short query, got %v", err)
	}
}

func TestSuggest_TrimsWhitespace(t *testing.T) {
	h := NewHandler(NewService(&stubSearcher{}), zerolog.Nop())

	c, _ := newSuggestContext(t, `{"text":"  a  "}`)
	err := h.Suggest(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for whitespace-padded short query, got %v", err)
	}
}

func TestSuggest_UnconfiguredReturns503(t *testing.T) {
	h := NewHandler(NewService(nil), zerolog.Nop())

	c, _ := newSuggestContext(t, `{"text":"gripe"}`)
	err := h.Suggest(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a configured index, got %v", err)
	}
}

func TestSuggest_UpstreamFailureIsGeneric503(t *testing.T) {
	searcher := &stubSearcher{err: fmt.Errorf("icd token endpoint returned status 500, client_id=secret-id")}
	h := NewHandler(NewService(searcher), zerolog.Nop())

	c, _ := newSuggestContext(t, `{"text":"gripe"}`)
	err := h.Suggest(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %v", err)
	}
	if msg, _ := he.Message.(string); strings.Contains(msg, "secret-id") {
		t.Error("upstream detail must not leak to the client")
	}
}

func TestSuggest_EmptyResultIsEmptyArray(t *testing.T) {
	h := NewHandler(NewService(&stubSearcher{}), zerolog.Nop())

	c, rec := newSuggestContext(t, `{"text":"xyzzy"}`)
	if err := h.Suggest(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"suggestions":[]`) {
		t.Errorf("expected empty array, got %s", rec.Body.String())
	}
}
