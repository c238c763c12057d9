package verification

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/praxis/praxis/internal/domain/consultation"
)

// -- Mocks --

type mockRepo struct {
	byConsultation map[uuid.UUID]*Record
	byToken        map[string]*Record

	// failNextInsert simulates losing the first-issuance race: the insert
	// fails with a unique violation while the winning row is visible.
	failNextInsert *Record
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		byConsultation: make(map[uuid.UUID]*Record),
		byToken:        make(map[string]*Record),
	}
}

func (m *mockRepo) store(rec *Record) {
	cp := *rec
	m.byConsultation[rec.ConsultationID] = &cp
	m.byToken[rec.Token] = &cp
}

func (m *mockRepo) Insert(ctx context.Context, rec *Record) error {
	if m.failNextInsert != nil {
		winner := m.failNextInsert
		m.failNextInsert = nil
		m.store(winner)
		return &pgconn.PgError{Code: "23505", ConstraintName: "prescription_verifications_consultation_id_key"}
	}
	if _, exists := m.byConsultation[rec.ConsultationID]; exists {
		return &pgconn.PgError{Code: "23505", ConstraintName: "prescription_verifications_consultation_id_key"}
	}
	rec.ID = uuid.New()
	rec.CreatedAt = time.Now().UTC()
	m.store(rec)
	return nil
}

func (m *mockRepo) GetByConsultation(ctx context.Context, consultationID uuid.UUID) (*Record, error) {
	rec, ok := m.byConsultation[consultationID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *rec
	return &cp, nil
}

func (m *mockRepo) RecordScan(ctx context.Context, token string) (*Record, error) {
	rec, ok := m.byToken[token]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	now := time.Now().UTC()
	rec.ScannedCount++
	rec.LastScannedAt = &now
	m.byConsultation[rec.ConsultationID] = rec
	cp := *rec
	return &cp, nil
}

func (m *mockRepo) SetEmailSent(ctx context.Context, consultationID uuid.UUID, at time.Time) error {
	rec, ok := m.byConsultation[consultationID]
	if !ok {
		return pgx.ErrNoRows
	}
	rec.EmailSentAt = &at
	m.byToken[rec.Token] = rec
	return nil
}

func (m *mockRepo) SetWhatsAppSent(ctx context.Context, consultationID uuid.UUID, at time.Time) error {
	rec, ok := m.byConsultation[consultationID]
	if !ok {
		return pgx.ErrNoRows
	}
	rec.WhatsAppSentAt = &at
	m.byToken[rec.Token] = rec
	return nil
}

func (m *mockRepo) DispatchSummary(ctx context.Context, doctorEmail string, limit, offset int) ([]*DispatchEntry, int, error) {
	var out []*DispatchEntry
	for _, rec := range m.byConsultation {
		if rec.DoctorEmail != doctorEmail {
			continue
		}
		out = append(out, &DispatchEntry{
			ConsultationID:  rec.ConsultationID,
			Token:           rec.Token,
			PatientInitials: "J.P.",
			DoctorName:      rec.DoctorName,
			IssueDate:       rec.IssueDate,
			EmailSentAt:     rec.EmailSentAt,
			WhatsAppSentAt:  rec.WhatsAppSentAt,
			ScannedCount:    rec.ScannedCount,
			Status:          rec.DeliveryStatus(),
		})
	}
	return out, len(out), nil
}

type mockConsultations struct {
	owners map[uuid.UUID]string // consultation id -> doctor email
}

func (m *mockConsultations) Get(ctx context.Context, doctorEmail string, id uuid.UUID) (*consultation.Consultation, error) {
	owner, ok := m.owners[id]
	if !ok || owner != doctorEmail {
		return nil, pgx.ErrNoRows
	}
	return &consultation.Consultation{ID: id, DoctorEmail: owner}, nil
}

func newTestService(repo Repository, owners map[uuid.UUID]string) *Service {
	return NewService(repo, &mockConsultations{owners: owners}, "https://app.example.com", zerolog.Nop())
}

// -- Tests --

func TestEnsure_Idempotent(t *testing.T) {
	conID := uuid.New()
	repo := newMockRepo()
	svc := newTestService(repo, map[uuid.UUID]string{conID: "doc@example.com"})

	first, err := svc.Ensure(context.Background(), "doc@example.com", "Dr. Garcia", conID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Token == "" {
		t.Fatal("expected a token on first issuance")
	}

	second, err := svc.Ensure(context.Background(), "doc@example.com", "Dr. Garcia", conID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Token != first.Token {
		t.Errorf("expected same token on repeat ensure, got %q and %q", first.Token, second.Token)
	}
}

func TestEnsure_UnknownConsultation(t *testing.T) {
	svc := newTestService(newMockRepo(), map[uuid.UUID]string{})
	if _, err := svc.Ensure(context.Background(), "doc@example.com", "Dr. Garcia", uuid.New()); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEnsure_ForeignConsultation(t *testing.T) {
	conID := uuid.New()
	svc := newTestService(newMockRepo(), map[uuid.UUID]string{conID: "owner@example.com"})
	if _, err := svc.Ensure(context.Background(), "intruder@example.com", "Dr. X", conID); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for foreign consultation, got %v", err)
	}
}

func TestEnsure_LostInsertRace(t *testing.T) {
	conID := uuid.New()
	repo := newMockRepo()
	svc := newTestService(repo, map[uuid.UUID]string{conID: "doc@example.com"})

	winner := &Record{
		ID:             uuid.New(),
		Token:          "winning-token",
		ConsultationID: conID,
		DoctorEmail:    "doc@example.com",
		DoctorName:     "Dr. Garcia",
		IssueDate:      time.Now().UTC(),
	}
	repo.failNextInsert = winner

	got, err := svc.Ensure(context.Background(), "doc@example.com", "Dr. Garcia", conID)
	if err != nil {
		t.Fatalf("expected race recovery, got error: %v", err)
	}
	if got.Token != "winning-token" {
		t.Errorf("expected winner's token after losing the race, got %q", got.Token)
	}
}

func TestScan_IncrementsCounter(t *testing.T) {
	conID := uuid.New()
	repo := newMockRepo()
	svc := newTestService(repo, map[uuid.UUID]string{conID: "doc@example.com"})

	rec, err := svc.Ensure(context.Background(), "doc@example.com", "Dr. Garcia", conID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for want := 1; want <= 3; want++ {
		view, err := svc.Scan(context.Background(), rec.Token)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if view.ScannedCount != want {
			t.Errorf("scan %d: expected count %d, got %d", want, want, view.ScannedCount)
		}
		if !view.Valid {
			t.Error("expected valid view")
		}
	}
}

func TestScan_UnknownToken(t *testing.T) {
	svc := newTestService(newMockRepo(), map[uuid.UUID]string{})
	if _, err := svc.Scan(context.Background(), "no-such-token"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestScan_DateFormat(t *testing.T) {
	conID := uuid.New()
	repo := newMockRepo()
	svc := newTestService(repo, map[uuid.UUID]string{conID: "doc@example.com"})

	rec := &Record{
		Token:          "tok",
		ConsultationID: conID,
		DoctorEmail:    "doc@example.com",
		DoctorName:     "Dr. Garcia",
		IssueDate:      time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC),
	}
	repo.store(rec)

	view, err := svc.Scan(context.Background(), "tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.IssueDate != "07/03/2026" {
		t.Errorf("expected DD/MM/YYYY issue date, got %q", view.IssueDate)
	}
}

func TestMarkEmailSent_CreatesRecord(t *testing.T) {
	conID := uuid.New()
	repo := newMockRepo()
	svc := newTestService(repo, map[uuid.UUID]string{conID: "doc@example.com"})

	if err := svc.MarkEmailSent(context.Background(), "doc@example.com", "Dr. Garcia", conID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec, _, err := svc.DispatchStatus(context.Background(), "doc@example.com", conID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.EmailSentAt == nil {
		t.Error("expected email sent timestamp")
	}
}

func TestMarkWhatsAppSent_RequiresRecord(t *testing.T) {
	conID := uuid.New()
	svc := newTestService(newMockRepo(), map[uuid.UUID]string{conID: "doc@example.com"})

	if err := svc.MarkWhatsAppSent(context.Background(), "doc@example.com", conID); err != ErrNoVerification {
		t.Fatalf("expected ErrNoVerification before issuance, got %v", err)
	}
}

func TestMarkWhatsAppSent_AfterIssuance(t *testing.T) {
	conID := uuid.New()
	repo := newMockRepo()
	svc := newTestService(repo, map[uuid.UUID]string{conID: "doc@example.com"})

	if _, err := svc.Ensure(context.Background(), "doc@example.com", "Dr. Garcia", conID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.MarkWhatsAppSent(context.Background(), "doc@example.com", conID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, status, err := svc.DispatchStatus(context.Background(), "doc@example.com", conID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != StatusSent {
		t.Errorf("expected status %q, got %q", StatusSent, status)
	}
}

func TestDispatchStatus_PendingWithoutChannels(t *testing.T) {
	conID := uuid.New()
	repo := newMockRepo()
	svc := newTestService(repo, map[uuid.UUID]string{conID: "doc@example.com"})

	if _, err := svc.Ensure(context.Background(), "doc@example.com", "Dr. Garcia", conID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, status, err := svc.DispatchStatus(context.Background(), "doc@example.com", conID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != StatusPending {
		t.Errorf("expected status %q, got %q", StatusPending, status)
	}
}

func TestDispatchStatus_NoRecord(t *testing.T) {
	conID := uuid.New()
	svc := newTestService(newMockRepo(), map[uuid.UUID]string{conID: "doc@example.com"})

	if _, _, err := svc.DispatchStatus(context.Background(), "doc@example.com", conID); err != ErrNoVerification {
		t.Fatalf("expected ErrNoVerification, got %v", err)
	}
}

func TestInitials(t *testing.T) {
	tests := []struct {
		parts []string
		want  string
	}{
		// given name + paternal surname only, never the full name
		{[]string{"Juan", "Perez"}, "J.P."},
		{[]string{"Ana", ""}, "A."},
		{[]string{"ángela", "núñez"}, "Á.N."},
		{[]string{"", ""}, ""},
	}
	for _, tt := range tests {
		if got := Initials(tt.parts...); got != tt.want {
			t.Errorf("Initials(%v) = %q, want %q", tt.parts, got, tt.want)
		}
	}
}

func TestNewToken_UUIDTextualForm(t *testing.T) {
	tok := newToken()
	if _, err := uuid.Parse(tok); err != nil {
		t.Fatalf("token must be a parseable uuid, got %q: %v", tok, err)
	}
	if len(tok) != 36 {
		t.Errorf("expected canonical dashed form, got %q", tok)
	}
}

func TestVerifyURL(t *testing.T) {
	svc := newTestService(newMockRepo(), nil)
	if got := svc.VerifyURL("abc123"); got != "https://app.example.com/v/abc123" {
		t.Errorf("unexpected verify url %q", got)
	}
}
