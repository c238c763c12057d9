package layout

import (
	"context"
	"encoding/json"
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

const cols = `id, doctor_email, name, page_width_mm, page_height_mm, fields, background_image_url, active, created_at`

func scanLayout(row pgx.Row) (*Layout, error) {
	var l Layout
	var fields []byte
	err := row.Scan(&l.ID, &l.DoctorEmail, &l.Name, &l.PageWidthMM, &l.PageHeightMM, &fields,
		&l.BackgroundImageURL, &l.Active, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(fields, &l.Fields); err != nil {
		return nil, fmt.Errorf("decoding layout fields: %w", err)
	}
	return &l, nil
}

// Create deactivates the doctor's current layout and inserts the new one as
// active inside a single transaction, so exactly one layout stays active.
func (r *repoPG) Create(ctx context.Context, l *Layout) error {
	l.ID = uuid.New()
	l.Active = true

	fields, err := json.Marshal(l.Fields)
	if err != nil {
		return fmt.Errorf("encoding layout fields: %w", err)
	}

	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		if _, err := r.conn(ctx).Exec(ctx,
			`UPDATE prescription_layouts SET active = false WHERE doctor_email = $1 AND active`, l.DoctorEmail); err != nil {
			return fmt.Errorf("deactivating layouts: %w", err)
		}
		err := r.conn(ctx).QueryRow(ctx, `
			INSERT INTO prescription_layouts (id, doctor_email, name, page_width_mm, page_height_mm, fields, background_image_url, active)
			VALUES ($1,$2,$3,$4,$5,$6,$7,true)
			RETURNING created_at`,
			l.ID, l.DoctorEmail, l.Name, l.PageWidthMM, l.PageHeightMM, fields, l.BackgroundImageURL,
		).Scan(&l.CreatedAt)
		if err != nil {
			return fmt.Errorf("layout insert: %w", err)
		}
		return nil
	})
}

func (r *repoPG) GetActive(ctx context.Context, doctorEmail string) (*Layout, error) {
	return scanLayout(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM prescription_layouts WHERE doctor_email = $1 AND active`, doctorEmail))
}

func (r *repoPG) List(ctx context.Context, doctorEmail string) ([]*Layout, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cols+` FROM prescription_layouts WHERE doctor_email = $1 ORDER BY created_at DESC`, doctorEmail)
	if err != nil {
		return nil, fmt.Errorf("layout list: %w", err)
	}
	defer rows.Close()

	var out []*Layout
	for rows.Next() {
		l, err := scanLayout(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
