package verification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type stubRenderer struct {
	doc *RenderedDocument
	err error
}

func (s *stubRenderer) Render(ctx context.Context, doctorEmail string, consultationID uuid.UUID) (*RenderedDocument, error) {
	return s.doc, s.err
}

func seedRecord(repo *mockRepo, doctorEmail string) *Record {
	rec := &Record{
		ID:             uuid.New(),
		Token:          "tok-public",
		ConsultationID: uuid.New(),
		DoctorEmail:    doctorEmail,
		DoctorName:     "Dr. Garcia",
		IssueDate:      time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	repo.store(rec)
	return rec
}

func TestPublicVerify(t *testing.T) {
	repo := newMockRepo()
	seedRecord(repo, "doc@example.com")
	h := NewPublicHandler(newTestService(repo, nil), &stubRenderer{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("token")
	c.SetParamValues("tok-public")

	if err := h.Verify(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var view PublicView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !view.Valid {
		t.Error("expected valid=true")
	}
	if view.DoctorName != "Dr. Garcia" {
		t.Errorf("expected doctor name, got %q", view.DoctorName)
	}
	if view.IssueDate != "01/02/2026" {
		t.Errorf("expected formatted issue date, got %q", view.IssueDate)
	}
	if view.ScannedCount != 1 {
		t.Errorf("expected first scan to count 1, got %d", view.ScannedCount)
	}
}

// The anonymous response must never leak clinical or patient data.
func TestPublicVerify_NoClinicalKeys(t *testing.T) {
	repo := newMockRepo()
	seedRecord(repo, "doc@example.com")
	h := NewPublicHandler(newTestService(repo, nil), &stubRenderer{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("token")
	c.SetParamValues("tok-public")

	if err := h.Verify(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decoding response: %v", err)
	}

	allowed := map[string]bool{
		"valid":                true,
		"doctor_name":          true,
		"issue_date":           true,
		"verification_message": true,
		"scanned_count":        true,
	}
	for key := range raw {
		if !allowed[key] {
			t.Errorf("unexpected key %q in public response", key)
		}
	}
	for _, forbidden := range []string{"patient_name", "patient", "diagnosis", "treatment", "dni", "consultation_id", "token"} {
		if _, ok := raw[forbidden]; ok {
			t.Errorf("public response must not contain %q", forbidden)
		}
	}
}

func TestPublicVerify_UnknownToken(t *testing.T) {
	h := NewPublicHandler(newTestService(newMockRepo(), nil), &stubRenderer{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("token")
	c.SetParamValues("nope")

	err := h.Verify(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestPublicDownloadPDF_CountsScan(t *testing.T) {
	repo := newMockRepo()
	record := seedRecord(repo, "doc@example.com")
	svc := newTestService(repo, nil)
	h := NewPublicHandler(svc, &stubRenderer{doc: &RenderedDocument{PDF: []byte("%PDF-1.4 test")}})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("token")
	c.SetParamValues(record.Token)

	if err := h.DownloadPDF(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "application/pdf" {
		t.Errorf("expected pdf content type, got %q", ct)
	}

	// The JSON view after a download shows the download was counted.
	view, err := svc.Scan(context.Background(), record.Token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.ScannedCount != 2 {
		t.Errorf("expected download and view to share one counter, got %d", view.ScannedCount)
	}
}
