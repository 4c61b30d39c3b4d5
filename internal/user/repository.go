package user

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

const columns = `id, name, email, password_hash, course, status, notified, created_at`

func scan(row interface{ Scan(...any) error }) (*User, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Course, &u.Status, &u.Notified, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *Repository) CreateUser(ctx context.Context, u *User) (*User, error) {
	query := `
		INSERT INTO users (id, name, email, password_hash, course, status, notified)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query, u.ID, u.Name, u.Email, u.Password, u.Course, u.Status, u.Notified).
		Scan(&u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return scan(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM users WHERE email = $1`, email))
}

func (r *Repository) List(ctx context.Context) ([]User, error) {
	return r.query(ctx, `SELECT `+columns+` FROM users ORDER BY created_at, name`)
}

func (r *Repository) SearchUsers(ctx context.Context, q string) ([]User, error) {
	// Capped to keep the admin typeahead fast.
	query := `
		SELECT ` + columns + ` FROM users
		WHERE name ILIKE $1 OR email ILIKE $1
		ORDER BY name
		LIMIT 10
	`
	return r.query(ctx, query, "%"+q+"%")
}

func (r *Repository) Update(ctx context.Context, u *User) (*User, error) {
	query := `
		UPDATE users SET name = $2, course = $3, status = $4
		WHERE id = $1
		RETURNING ` + columns
	return scan(r.db.QueryRowContext(ctx, query, u.ID, u.Name, u.Course, u.Status))
}

// SetPassword stores the hash only if the account has none yet, so two
// concurrent first logins cannot both claim it.
func (r *Repository) SetPassword(ctx context.Context, id, hash string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1 AND password_hash = ''`, id, hash)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *Repository) MarkNotified(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET notified = TRUE WHERE id = $1`, id)
	return err
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func (r *Repository) query(ctx context.Context, query string, args ...any) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		u, err := scan(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
