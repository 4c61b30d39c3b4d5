package announcement

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

func (r *Repository) List(ctx context.Context) ([]Announcement, error) {
	query := `
		SELECT id, title, category, department, date, description, image, data_ai_hint, created_at
		FROM announcements
		ORDER BY created_at DESC, id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	announcements := make([]Announcement, 0)
	for rows.Next() {
		var a Announcement
		if err := rows.Scan(&a.ID, &a.Title, &a.Category, &a.Department, &a.Date, &a.Description, &a.Image, &a.DataAIHint, &a.CreatedAt); err != nil {
			return nil, err
		}
		announcements = append(announcements, a)
	}
	return announcements, rows.Err()
}

func (r *Repository) Create(ctx context.Context, a *Announcement) error {
	query := `
		INSERT INTO announcements (id, title, category, department, date, description, image, data_ai_hint)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`
	return r.db.QueryRowContext(ctx, query, a.ID, a.Title, a.Category, a.Department, a.Date, a.Description, a.Image, a.DataAIHint).
		Scan(&a.CreatedAt)
}

func (r *Repository) Update(ctx context.Context, a *Announcement) error {
	query := `
		UPDATE announcements
		SET title = $2, category = $3, department = $4, date = $5, description = $6, image = $7, data_ai_hint = $8
		WHERE id = $1
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query, a.ID, a.Title, a.Category, a.Department, a.Date, a.Description, a.Image, a.DataAIHint).
		Scan(&a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM announcements`).Scan(&n)
	return n, err
}
