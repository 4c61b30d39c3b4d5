package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"campus-portal/internal/db"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const conversationColumns = `id, slug, name, student_name, student_id, avatar, data_ai_hint,
	last_message, timestamp, unread, unread_student, created_at`

func scanConversation(row interface{ Scan(...any) error }) (*Conversation, error) {
	c := &Conversation{}
	err := row.Scan(&c.ID, &c.Slug, &c.Name, &c.StudentName, &c.StudentID, &c.Avatar, &c.DataAIHint,
		&c.LastMessage, &c.Timestamp, &c.Unread, &c.UnreadStudent, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// counterColumn maps a party to its unread column.
func counterColumn(p Party) string {
	if p == PartyStudent {
		return "unread_student"
	}
	return "unread"
}

// List returns conversations by last activity, newest first. A non-empty
// studentID limits the list to that student's threads.
func (r *Repository) List(ctx context.Context, studentID string) ([]Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations
		WHERE $1 = '' OR student_id = $1
		ORDER BY timestamp DESC, id`
	rows, err := r.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conversations := make([]Conversation, 0)
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, *c)
	}
	return conversations, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id string) (*Conversation, error) {
	return scanConversation(r.db.QueryRowContext(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id))
}

func (r *Repository) FindBySlugStudent(ctx context.Context, slug, studentID string) (*Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE slug = $1 AND student_id = $2`
	return scanConversation(r.db.QueryRowContext(ctx, query, slug, studentID))
}

// CreateOrGet inserts c unless the student already has a thread with that
// department, and returns whichever row is stored.
func (r *Repository) CreateOrGet(ctx context.Context, c *Conversation) (*Conversation, bool, error) {
	query := `
		INSERT INTO conversations (id, slug, name, student_name, student_id, avatar, data_ai_hint, last_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (slug, student_id) DO NOTHING
		RETURNING ` + conversationColumns
	created, err := scanConversation(r.db.QueryRowContext(ctx, query,
		c.ID, c.Slug, c.Name, c.StudentName, c.StudentID, c.Avatar, c.DataAIHint, c.LastMessage))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}
	existing, err := r.FindBySlugStudent(ctx, c.Slug, c.StudentID)
	return existing, false, err
}

func (r *Repository) ListMessages(ctx context.Context, conversationID string) ([]Message, error) {
	query := `
		SELECT id, conversation_id, text, sender_kind, sender_department, timestamp
		FROM messages
		WHERE conversation_id = $1
		ORDER BY seq
	`
	rows, err := r.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]Message, 0)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Text, &m.Sender.Kind, &m.Sender.Department, &m.Timestamp); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// AppendMessage stores m and updates the conversation in one transaction.
// The recipient's counter is bumped in place, or zeroed when they are
// looking at the thread. m.Timestamp is set from the database clock after
// the conversation row is locked, so it never runs behind an earlier message.
func (r *Repository) AppendMessage(ctx context.Context, m *Message, recipientViewing bool) (*Conversation, error) {
	column := counterColumn(m.Sender.Party().Other())
	counter := column + " + 1"
	if recipientViewing {
		counter = "0"
	}
	update := fmt.Sprintf(`
		UPDATE conversations
		SET last_message = $2, timestamp = GREATEST(timestamp, clock_timestamp()), %s = %s
		WHERE id = $1
		RETURNING `+conversationColumns, column, counter)

	var c *Conversation
	err := db.InTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		c, err = scanConversation(tx.QueryRowContext(ctx, update, m.ConversationID, m.Text))
		if err != nil {
			return err
		}
		m.Timestamp = c.Timestamp
		insert := `
			INSERT INTO messages (id, conversation_id, text, sender_kind, sender_department, timestamp)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		_, err = tx.ExecContext(ctx, insert, m.ID, m.ConversationID, m.Text, m.Sender.Kind, m.Sender.Department, m.Timestamp)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ResetUnread zeroes p's counter.
func (r *Repository) ResetUnread(ctx context.Context, id string, p Party) (*Conversation, error) {
	query := fmt.Sprintf(`UPDATE conversations SET %s = 0 WHERE id = $1 RETURNING `+conversationColumns, counterColumn(p))
	return scanConversation(r.db.QueryRowContext(ctx, query, id))
}

func (r *Repository) CountUnread(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(unread), 0) FROM conversations`).Scan(&n)
	return n, err
}
