package consultation

import (
	"context"
	"fmt"

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

const cols = `c.id, c.patient_id, p.doctor_email, c.date, c.reason, c.diagnosis, c.diagnosis_code,
	c.treatment, c.notes, c.created_at, c.updated_at`

func scanConsultation(row pgx.Row) (*Consultation, error) {
	var con Consultation
	err := row.Scan(
		&con.ID, &con.PatientID, &con.DoctorEmail, &con.Date, &con.Reason, &con.Diagnosis, &con.DiagnosisCode,
		&con.Treatment, &con.Notes, &con.CreatedAt, &con.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &con, nil
}

func (r *repoPG) Create(ctx context.Context, con *Consultation) error {
	con.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO consultations (id, patient_id, date, reason, diagnosis, diagnosis_code, treatment, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		con.ID, con.PatientID, con.Date, con.Reason, con.Diagnosis, con.DiagnosisCode, con.Treatment, con.Notes,
	).Scan(&con.CreatedAt, &con.UpdatedAt)
	if err != nil {
		return fmt.Errorf("consultation create: %w", err)
	}
	return nil
}

// GetByID resolves ownership through the patient row. A consultation whose
// patient belongs to another doctor scans as no rows.
func (r *repoPG) GetByID(ctx context.Context, doctorEmail string, id uuid.UUID) (*Consultation, error) {
	return scanConsultation(r.conn(ctx).QueryRow(ctx, `
		SELECT `+cols+`
		FROM consultations c
		JOIN patients p ON p.id = c.patient_id
		WHERE c.id = $1 AND p.doctor_email = $2`, id, doctorEmail))
}

func (r *repoPG) Update(ctx context.Context, con *Consultation) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE consultations c SET
			date = $3, reason = $4, diagnosis = $5, diagnosis_code = $6,
			treatment = $7, notes = $8, updated_at = now()
		FROM patients p
		WHERE c.id = $1 AND p.id = c.patient_id AND p.doctor_email = $2`,
		con.ID, con.DoctorEmail, con.Date, con.Reason, con.Diagnosis, con.DiagnosisCode, con.Treatment, con.Notes,
	)
	if err != nil {
		return fmt.Errorf("consultation update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, doctorEmail string, patientID uuid.UUID, limit, offset int) ([]*Consultation, int, error) {
	var total int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*)
		FROM consultations c
		JOIN patients p ON p.id = c.patient_id
		WHERE c.patient_id = $1 AND p.doctor_email = $2`, patientID, doctorEmail).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("consultation count: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+cols+`
		FROM consultations c
		JOIN patients p ON p.id = c.patient_id
		WHERE c.patient_id = $1 AND p.doctor_email = $2
		ORDER BY c.date DESC, c.created_at DESC
		LIMIT $3 OFFSET $4`, patientID, doctorEmail, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("consultation list: %w", err)
	}
	defer rows.Close()

	var out []*Consultation
	for rows.Next() {
		con, err := scanConsultation(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, con)
	}
	return out, total, rows.Err()
}
