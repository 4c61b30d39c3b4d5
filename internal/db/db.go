package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type Database struct {
	Conn *sql.DB
}

// DBTX is satisfied by both *sql.DB and *sql.Tx, so repositories can run
// inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func NewDatabase(dsn string) (*Database, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(25)
	conn.SetConnMaxLifetime(5 * time.Minute)
	return &Database{Conn: conn}, nil
}

func (d *Database) Close() error {
	return d.Conn.Close()
}

// InTx runs fn inside a transaction, committing when fn returns nil.
func InTx(ctx context.Context, conn *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (d *Database) AutoMigrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS departments (
            id TEXT PRIMARY KEY,
            name VARCHAR(120) NOT NULL,
            slug VARCHAR(120) UNIQUE NOT NULL,
            icon VARCHAR(60) NOT NULL DEFAULT '',
            email VARCHAR(255) NOT NULL,
            phone VARCHAR(60) NOT NULL,
            description TEXT NOT NULL,
            created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE TABLE IF NOT EXISTS announcements (
            id TEXT PRIMARY KEY,
            title VARCHAR(255) NOT NULL,
            category VARCHAR(20) CHECK (category IN ('Academics', 'Event', 'Announcement')) NOT NULL,
            department VARCHAR(120) NOT NULL,
            date VARCHAR(60) NOT NULL DEFAULT '',
            description TEXT NOT NULL,
            image TEXT NOT NULL DEFAULT '',
            data_ai_hint VARCHAR(120) NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            name VARCHAR(120) NOT NULL,
            email VARCHAR(255) UNIQUE NOT NULL,
            password_hash TEXT NOT NULL DEFAULT '',
            course VARCHAR(120) NOT NULL DEFAULT '',
            status VARCHAR(10) CHECK (status IN ('Active', 'Inactive')) DEFAULT 'Active',
            notified BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE TABLE IF NOT EXISTS inquiries (
            id TEXT PRIMARY KEY,
            query TEXT NOT NULL,
            recommended VARCHAR(120) NOT NULL,
            confidence DOUBLE PRECISION NOT NULL CHECK (confidence >= 0 AND confidence <= 1),
            status VARCHAR(10) CHECK (status IN ('Pending', 'Approved', 'Rejected')) DEFAULT 'Pending',
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE TABLE IF NOT EXISTS conversations (
            id TEXT PRIMARY KEY,
            slug VARCHAR(120) NOT NULL,
            name VARCHAR(120) NOT NULL,
            student_name VARCHAR(120) NOT NULL,
            student_id VARCHAR(255) NOT NULL,
            avatar TEXT NOT NULL DEFAULT '',
            data_ai_hint VARCHAR(120) NOT NULL DEFAULT '',
            last_message TEXT NOT NULL DEFAULT '',
            timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
            unread INT NOT NULL DEFAULT 0 CHECK (unread >= 0),
            unread_student INT NOT NULL DEFAULT 0 CHECK (unread_student >= 0),
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
            UNIQUE (slug, student_id)
        )`,

		`CREATE TABLE IF NOT EXISTS messages (
            seq BIGSERIAL,
            id TEXT PRIMARY KEY,
            conversation_id TEXT REFERENCES conversations(id) ON DELETE CASCADE,
            text TEXT NOT NULL,
            sender_kind VARCHAR(12) CHECK (sender_kind IN ('student', 'admin', 'department')) NOT NULL,
            sender_department VARCHAR(120) NOT NULL DEFAULT '',
            timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE INDEX IF NOT EXISTS messages_conversation_order
            ON messages (conversation_id, seq)`,

		`CREATE TABLE IF NOT EXISTS notifications (
            id TEXT PRIMARY KEY,
            audience VARCHAR(10) CHECK (audience IN ('user', 'admin')) NOT NULL,
            type VARCHAR(20) CHECK (type IN ('announcement', 'inquiry', 'registration')) NOT NULL,
            title VARCHAR(255) NOT NULL,
            source VARCHAR(120) NOT NULL DEFAULT '',
            description TEXT NOT NULL DEFAULT '',
            cta_link TEXT NOT NULL DEFAULT '',
            cta_text VARCHAR(60) NOT NULL DEFAULT '',
            read BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE INDEX IF NOT EXISTS notifications_feed
            ON notifications (audience, type, created_at DESC)`,
	}

	for _, query := range queries {
		_, err := d.Conn.Exec(query)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}
