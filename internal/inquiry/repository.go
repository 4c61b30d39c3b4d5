package inquiry

import (
	"context"
	"database/sql"
	"errors"

	"campus-portal/internal/db"
)

type Repository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

func (r *Repository) List(ctx context.Context) ([]Inquiry, error) {
	query := `
		SELECT id, query, recommended, confidence, status, created_at
		FROM inquiries
		ORDER BY created_at DESC, id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	inquiries := make([]Inquiry, 0)
	for rows.Next() {
		var i Inquiry
		if err := rows.Scan(&i.ID, &i.Query, &i.Recommended, &i.Confidence, &i.Status, &i.CreatedAt); err != nil {
			return nil, err
		}
		inquiries = append(inquiries, i)
	}
	return inquiries, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id string) (*Inquiry, error) {
	query := `SELECT id, query, recommended, confidence, status, created_at FROM inquiries WHERE id = $1`
	var i Inquiry
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&i.ID, &i.Query, &i.Recommended, &i.Confidence, &i.Status, &i.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *Repository) Create(ctx context.Context, i *Inquiry) error {
	query := `
		INSERT INTO inquiries (id, query, recommended, confidence, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	return r.db.QueryRowContext(ctx, query, i.ID, i.Query, i.Recommended, i.Confidence, i.Status).Scan(&i.CreatedAt)
}

// Upsert writes i under its own id, replacing any existing row.
func (r *Repository) Upsert(ctx context.Context, i *Inquiry) error {
	query := `
		INSERT INTO inquiries (id, query, recommended, confidence, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET query = EXCLUDED.query, recommended = EXCLUDED.recommended,
		    confidence = EXCLUDED.confidence, status = EXCLUDED.status, created_at = EXCLUDED.created_at
	`
	_, err := r.db.ExecContext(ctx, query, i.ID, i.Query, i.Recommended, i.Confidence, i.Status, i.CreatedAt)
	return err
}

func (r *Repository) UpdateStatus(ctx context.Context, id string, status Status) (*Inquiry, error) {
	query := `
		UPDATE inquiries SET status = $2 WHERE id = $1
		RETURNING id, query, recommended, confidence, status, created_at
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id, status))
}

func (r *Repository) Reassign(ctx context.Context, id, department string) (*Inquiry, error) {
	query := `
		UPDATE inquiries SET recommended = $2, status = $3 WHERE id = $1
		RETURNING id, query, recommended, confidence, status, created_at
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id, department, StatusApproved))
}

func (r *Repository) CountByStatus(ctx context.Context, status Status) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM inquiries WHERE status = $1`, status).Scan(&n)
	return n, err
}

func (r *Repository) scanOne(row *sql.Row) (*Inquiry, error) {
	var i Inquiry
	err := row.Scan(&i.ID, &i.Query, &i.Recommended, &i.Confidence, &i.Status, &i.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &i, nil
}
