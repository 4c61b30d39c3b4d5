package department

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

const departmentColumns = `id, name, slug, icon, email, phone, description, created_at`

func scanDepartment(row interface{ Scan(...any) error }) (*Department, error) {
	d := &Department{}
	if err := row.Scan(&d.ID, &d.Name, &d.Slug, &d.Icon, &d.Email, &d.Phone, &d.Description, &d.CreatedAt); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *Repository) List(ctx context.Context) ([]Department, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+departmentColumns+` FROM departments ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	departments := make([]Department, 0)
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		departments = append(departments, *d)
	}
	return departments, rows.Err()
}

func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Department, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+departmentColumns+` FROM departments WHERE slug = $1`, slug)
	d, err := scanDepartment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return d, err
}

func (r *Repository) Create(ctx context.Context, d *Department) error {
	query := `
		INSERT INTO departments (id, name, slug, icon, email, phone, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	return r.db.QueryRowContext(ctx, query, d.ID, d.Name, d.Slug, d.Icon, d.Email, d.Phone, d.Description).
		Scan(&d.CreatedAt)
}

func (r *Repository) Update(ctx context.Context, d *Department) error {
	query := `
		UPDATE departments
		SET name = $2, slug = $3, icon = $4, email = $5, phone = $6, description = $7
		WHERE id = $1
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query, d.ID, d.Name, d.Slug, d.Icon, d.Email, d.Phone, d.Description).
		Scan(&d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM departments WHERE id = $1`, id)
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
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM departments`).Scan(&n)
	return n, err
}
