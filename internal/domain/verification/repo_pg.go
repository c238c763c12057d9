package verification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/praxis/praxis/internal/platform/db"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const cols = `id, token, consultation_id, doctor_email, doctor_name, issue_date,
	scanned_count, last_scanned_at, email_sent_at, whatsapp_sent_at, created_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID, &rec.Token, &rec.ConsultationID, &rec.DoctorEmail, &rec.DoctorName, &rec.IssueDate,
		&rec.ScannedCount, &rec.LastScannedAt, &rec.EmailSentAt, &rec.WhatsAppSentAt, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *repoPG) Insert(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO prescription_verifications (
			id, token, consultation_id, doctor_email, doctor_name, issue_date
		) VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING scanned_count, created_at`,
		rec.ID, rec.Token, rec.ConsultationID, rec.DoctorEmail, rec.DoctorName, rec.IssueDate,
	).Scan(&rec.ScannedCount, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("verification insert: %w", err)
	}
	return nil
}

func (r *repoPG) GetByConsultation(ctx context.Context, consultationID uuid.UUID) (*Record, error) {
	return scanRecord(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM prescription_verifications WHERE consultation_id = $1`, consultationID))
}

func (r *repoPG) RecordScan(ctx context.Context, token string) (*Record, error) {
	return scanRecord(r.conn(ctx).QueryRow(ctx, `
		UPDATE prescription_verifications
		SET scanned_count = scanned_count + 1, last_scanned_at = now()
		WHERE token = $1
		RETURNING `+cols, token))
}

func (r *repoPG) SetEmailSent(ctx context.Context, consultationID uuid.UUID, at time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE prescription_verifications SET email_sent_at = $2 WHERE consultation_id = $1`, consultationID, at)
	if err != nil {
		return fmt.Errorf("marking email sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) SetWhatsAppSent(ctx context.Context, consultationID uuid.UUID, at time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE prescription_verifications SET whatsapp_sent_at = $2 WHERE consultation_id = $1`, consultationID, at)
	if err != nil {
		return fmt.Errorf("marking whatsapp sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) DispatchSummary(ctx context.Context, doctorEmail string, limit, offset int) ([]*DispatchEntry, int, error) {
	var total int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM prescription_verifications WHERE doctor_email = $1`, doctorEmail).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("dispatch summary count: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT v.consultation_id, v.token, p.given_name, p.paternal_surname,
			v.doctor_name, v.issue_date, v.email_sent_at, v.whatsapp_sent_at, v.scanned_count
		FROM prescription_verifications v
		JOIN consultations c ON c.id = v.consultation_id
		JOIN patients p ON p.id = c.patient_id
		WHERE v.doctor_email = $1
		ORDER BY v.issue_date DESC, v.created_at DESC
		LIMIT $2 OFFSET $3`, doctorEmail, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("dispatch summary: %w", err)
	}
	defer rows.Close()

	var out []*DispatchEntry
	for rows.Next() {
		var e DispatchEntry
		var given, paternal string
		if err := rows.Scan(&e.ConsultationID, &e.Token, &given, &paternal,
			&e.DoctorName, &e.IssueDate, &e.EmailSentAt, &e.WhatsAppSentAt, &e.ScannedCount); err != nil {
			return nil, 0, err
		}
		e.PatientInitials = Initials(given, paternal)
		rec := Record{EmailSentAt: e.EmailSentAt, WhatsAppSentAt: e.WhatsAppSentAt}
		e.Status = rec.DeliveryStatus()
		out = append(out, &e)
	}
	return out, total, rows.Err()
}
