// Package store persists guestbook messages in Postgres. Messages are
// write-once, append-only: no update or delete path exists.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Message is a persisted guestbook entry.
type Message struct {
	ID        int64
	Name      string
	Email     string // optional, never rendered publicly
	Website   string // optional, normalized to carry a scheme
	Topic     string
	Comment   string
	IP        string
	UserAgent string
	CreatedAt time.Time
}

// NewMessage carries the validated, normalized values for one insert.
// Empty optional fields are stored as NULL.
type NewMessage struct {
	Name      string
	Email     string
	Website   string
	Topic     string
	Comment   string
	IP        string
	UserAgent string
}

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS messages (
	id         BIGSERIAL PRIMARY KEY,
	name       VARCHAR(100) NOT NULL,
	email      VARCHAR(255),
	website    VARCHAR(255),
	topic      VARCHAR(200) NOT NULL,
	comment    TEXT NOT NULL,
	ip         TEXT,
	user_agent VARCHAR(250),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const createIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_messages_created_at
	ON messages (created_at DESC, id DESC)`

// EnsureSchema creates the messages table and its listing index if absent.
// Safe to run repeatedly and concurrently.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create messages table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, createIndexSQL); err != nil {
		return fmt.Errorf("create messages index: %w", err)
	}
	return nil
}

// InsertMessage writes one message and returns it with its assigned id and
// server-side creation timestamp.
func (s *Store) InsertMessage(ctx context.Context, m NewMessage) (*Message, error) {
	const q = `
		INSERT INTO messages (name, email, website, topic, comment, ip, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	msg := &Message{
		Name:      m.Name,
		Email:     m.Email,
		Website:   m.Website,
		Topic:     m.Topic,
		Comment:   m.Comment,
		IP:        m.IP,
		UserAgent: m.UserAgent,
	}

	err := s.db.QueryRowContext(ctx, q,
		m.Name,
		nullable(m.Email),
		nullable(m.Website),
		m.Topic,
		m.Comment,
		nullable(m.IP),
		nullable(m.UserAgent),
	).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	return msg, nil
}

// CountMessages returns the total number of messages on the board.
func (s *Store) CountMessages(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return count, nil
}

// ListMessages returns one page of messages, newest first. Equal timestamps
// fall back to descending id so the order is a deterministic total order.
func (s *Store) ListMessages(ctx context.Context, limit, offset int) ([]Message, error) {
	const q = `
		SELECT id, name, website, topic, comment, created_at
		FROM messages
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`

	rows, err := s.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		var website sql.NullString
		if err := rows.Scan(&m.ID, &m.Name, &website, &m.Topic, &m.Comment, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Website = website.String
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	return msgs, nil
}

// Ping reports whether the store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
