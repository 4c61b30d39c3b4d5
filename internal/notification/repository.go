package notification

import (
	"context"

	"campus-portal/internal/db"
)

type Repository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

func (r *Repository) Create(ctx context.Context, n *Item) error {
	query := `
		INSERT INTO notifications (id, audience, type, title, source, description, cta_link, cta_text, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		n.ID, n.Audience, n.Type, n.Title, n.Source, n.Description, n.CTALink, n.CTAText, n.Read, n.CreatedAt)
	return err
}

func (r *Repository) ListByType(ctx context.Context, audience Audience, typ Type) ([]Item, error) {
	query := `
		SELECT id, audience, type, title, source, description, cta_link, cta_text, read, created_at
		FROM notifications
		WHERE audience = $1 AND type = $2
		ORDER BY created_at DESC, id
	`
	rows, err := r.db.QueryContext(ctx, query, audience, typ)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var n Item
		if err := rows.Scan(&n.ID, &n.Audience, &n.Type, &n.Title, &n.Source, &n.Description, &n.CTALink, &n.CTAText, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

// MarkRead flips one item's read flag. Re-marking a read item still matches
// its row, so only a missing id reports ErrNotFound.
func (r *Repository) MarkRead(ctx context.Context, audience Audience, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1 AND audience = $2`, id, audience)
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

func (r *Repository) MarkAllRead(ctx context.Context, audience Audience) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET read = TRUE WHERE audience = $1 AND read = FALSE`, audience)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications`).Scan(&n)
	return n, err
}
