package identity

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

// -- Doctor Repository --

type doctorRepoPG struct {
	pool *pgxpool.Pool
}

func NewDoctorRepo(pool *pgxpool.Pool) DoctorRepository {
	return &doctorRepoPG{pool: pool}
}

func (r *doctorRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const doctorCols = `id, email, full_name, specialty, license_number, clinic_name, clinic_address, phone,
	logo_url, signature_url, primary_color, secondary_color, pdf_template, created_at, updated_at`

func (r *doctorRepoPG) Upsert(ctx context.Context, d *Doctor) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO doctors (
			id, email, full_name, specialty, license_number, clinic_name, clinic_address, phone,
			logo_url, signature_url, primary_color, secondary_color, pdf_template
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (email) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			specialty = EXCLUDED.specialty,
			license_number = EXCLUDED.license_number,
			clinic_name = EXCLUDED.clinic_name,
			clinic_address = EXCLUDED.clinic_address,
			phone = EXCLUDED.phone,
			logo_url = EXCLUDED.logo_url,
			signature_url = EXCLUDED.signature_url,
			primary_color = EXCLUDED.primary_color,
			secondary_color = EXCLUDED.secondary_color,
			pdf_template = EXCLUDED.pdf_template,
			updated_at = now()
		RETURNING id, created_at, updated_at`,
		d.ID, d.Email, d.FullName, d.Specialty, d.LicenseNumber, d.ClinicName, d.ClinicAddress, d.Phone,
		d.LogoURL, d.SignatureURL, d.PrimaryColor, d.SecondaryColor, d.PDFTemplate,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("doctor upsert: %w", err)
	}
	return nil
}

func (r *doctorRepoPG) GetByEmail(ctx context.Context, email string) (*Doctor, error) {
	row := r.conn(ctx).QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors WHERE email = $1`, email)
	var d Doctor
	err := row.Scan(
		&d.ID, &d.Email, &d.FullName, &d.Specialty, &d.LicenseNumber, &d.ClinicName, &d.ClinicAddress, &d.Phone,
		&d.LogoURL, &d.SignatureURL, &d.PrimaryColor, &d.SecondaryColor, &d.PDFTemplate, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// -- Patient Repository --

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepo(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const patientCols = `id, doctor_email, given_name, paternal_surname, maternal_surname, dni, email, phone,
	birth_date, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID, &p.DoctorEmail, &p.GivenName, &p.PaternalSurname, &p.MaternalSurname, &p.DNI, &p.Email, &p.Phone,
		&p.BirthDate, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patients (
			id, doctor_email, given_name, paternal_surname, maternal_surname, dni, email, phone, birth_date
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at`,
		p.ID, p.DoctorEmail, p.GivenName, p.PaternalSurname, p.MaternalSurname, p.DNI, p.Email, p.Phone, p.BirthDate,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("patient create: %w", err)
	}
	return nil
}

func (r *patientRepoPG) GetByID(ctx context.Context, doctorEmail string, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE id = $1 AND doctor_email = $2`, id, doctorEmail))
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET
			given_name = $3, paternal_surname = $4, maternal_surname = $5,
			dni = $6, email = $7, phone = $8, birth_date = $9, updated_at = now()
		WHERE id = $1 AND doctor_email = $2`,
		p.ID, p.DoctorEmail, p.GivenName, p.PaternalSurname, p.MaternalSurname, p.DNI, p.Email, p.Phone, p.BirthDate,
	)
	if err != nil {
		return fmt.Errorf("patient update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *patientRepoPG) Delete(ctx context.Context, doctorEmail string, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM patients WHERE id = $1 AND doctor_email = $2`, id, doctorEmail)
	if err != nil {
		return fmt.Errorf("patient delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *patientRepoPG) List(ctx context.Context, doctorEmail, search string, limit, offset int) ([]*Patient, int, error) {
	where := `WHERE doctor_email = $1`
	args := []interface{}{doctorEmail}
	if search != "" {
		where += ` AND (given_name ILIKE $2 OR paternal_surname ILIKE $2 OR maternal_surname ILIKE $2 OR dni ILIKE $2)`
		args = append(args, "%"+search+"%")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patients `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("patient count: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM patients %s ORDER BY paternal_surname, given_name LIMIT $%d OFFSET $%d`,
		patientCols, where, len(args)+1, len(args)+2)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("patient list: %w", err)
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		patients = append(patients, p)
	}
	return patients, total, rows.Err()
}
