package verification

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/praxis/praxis/internal/domain/consultation"
	"github.com/praxis/praxis/internal/platform/db"
)

var (
	// ErrNotFound covers both unknown and foreign-owned lookups so callers
	// cannot distinguish the two.
	ErrNotFound = fmt.Errorf("verification not found")
	// ErrNoVerification signals a dispatch mark on a consultation whose
	// prescription was never issued.
	ErrNoVerification = fmt.Errorf("no verification record for consultation")
)

// ConsultationGetter resolves a consultation under the doctor's ownership.
type ConsultationGetter interface {
	Get(ctx context.Context, doctorEmail string, id uuid.UUID) (*consultation.Consultation, error)
}

type Service struct {
	repo          Repository
	consultations ConsultationGetter
	verifyBaseURL string
	logger        zerolog.Logger
}

func NewService(repo Repository, consultations ConsultationGetter, verifyBaseURL string, logger zerolog.Logger) *Service {
	return &Service{
		repo:          repo,
		consultations: consultations,
		verifyBaseURL: verifyBaseURL,
		logger:        logger,
	}
}

// newToken produces a verification token in UUID v4 textual form.
func newToken() string {
	return uuid.NewString()
}

// VerifyURL returns the public lookup URL for a record's token.
func (s *Service) VerifyURL(token string) string {
	return fmt.Sprintf("%s/v/%s", s.verifyBaseURL, token)
}

// Ensure returns the consultation's verification record, creating it if this
// is the first issuance. Concurrent first issuances race on the ledger's
// unique consultation constraint; the loser re-reads the winner's row, so
// every caller observes the same token.
func (s *Service) Ensure(ctx context.Context, doctorEmail, doctorName string, consultationID uuid.UUID) (*Record, error) {
	if _, err := s.consultations.Get(ctx, doctorEmail, consultationID); err != nil {
		return nil, ErrNotFound
	}

	rec, err := s.repo.GetByConsultation(ctx, consultationID)
	if err == nil {
		return rec, nil
	}
	if !db.IsNoRows(err) {
		return nil, err
	}

	rec = &Record{
		Token:          newToken(),
		ConsultationID: consultationID,
		DoctorEmail:    doctorEmail,
		DoctorName:     doctorName,
		IssueDate:      time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, rec); err != nil {
		if db.IsUniqueViolation(err) {
			s.logger.Debug().
				Str("consultation_id", consultationID.String()).
				Msg("lost verification insert race, re-reading")
			return s.repo.GetByConsultation(ctx, consultationID)
		}
		return nil, err
	}
	return rec, nil
}

// Scan looks up a record by token, counts the scan, and returns the public
// view. Unknown tokens return ErrNotFound.
func (s *Service) Scan(ctx context.Context, token string) (*PublicView, error) {
	rec, err := s.repo.RecordScan(ctx, token)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &PublicView{
		Valid:               true,
		DoctorName:          rec.DoctorName,
		IssueDate:           rec.IssueDate.Format("02/01/2006"),
		VerificationMessage: fmt.Sprintf("Receta válida emitida por %s", rec.DoctorName),
		ScannedCount:        rec.ScannedCount,
	}, nil
}

// ScanRecord counts a scan and returns the full record. The public PDF
// download uses it so both public surfaces feed the same counter.
func (s *Service) ScanRecord(ctx context.Context, token string) (*Record, error) {
	rec, err := s.repo.RecordScan(ctx, token)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// MarkEmailSent stamps the email channel. The record is created first if the
// prescription was emailed before anyone viewed or printed it.
func (s *Service) MarkEmailSent(ctx context.Context, doctorEmail, doctorName string, consultationID uuid.UUID) error {
	if _, err := s.Ensure(ctx, doctorEmail, doctorName, consultationID); err != nil {
		return err
	}
	return s.repo.SetEmailSent(ctx, consultationID, time.Now().UTC())
}

// MarkWhatsAppSent stamps the whatsapp channel. Delivery happens outside the
// system, so marking requires an already-issued prescription.
func (s *Service) MarkWhatsAppSent(ctx context.Context, doctorEmail string, consultationID uuid.UUID) error {
	if _, err := s.consultations.Get(ctx, doctorEmail, consultationID); err != nil {
		return ErrNotFound
	}
	if _, err := s.repo.GetByConsultation(ctx, consultationID); err != nil {
		if db.IsNoRows(err) {
			return ErrNoVerification
		}
		return err
	}
	return s.repo.SetWhatsAppSent(ctx, consultationID, time.Now().UTC())
}

// DispatchStatus returns the consultation's record with its delivery
// classification, or ErrNoVerification when nothing was issued yet.
func (s *Service) DispatchStatus(ctx context.Context, doctorEmail string, consultationID uuid.UUID) (*Record, string, error) {
	if _, err := s.consultations.Get(ctx, doctorEmail, consultationID); err != nil {
		return nil, "", ErrNotFound
	}
	rec, err := s.repo.GetByConsultation(ctx, consultationID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, "", ErrNoVerification
		}
		return nil, "", err
	}
	return rec, rec.DeliveryStatus(), nil
}

// DispatchSummary lists the doctor's issued prescriptions with delivery
// state, newest first.
func (s *Service) DispatchSummary(ctx context.Context, doctorEmail string, limit, offset int) ([]*DispatchEntry, int, error) {
	return s.repo.DispatchSummary(ctx, doctorEmail, limit, offset)
}

// Initials reduces a patient name to its initials for the audit surface.
func Initials(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		for _, r := range p {
			if unicode.IsLetter(r) {
				b.WriteRune(unicode.ToUpper(r))
				b.WriteByte('.')
			}
			break
		}
	}
	return b.String()
}
