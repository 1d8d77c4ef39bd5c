package contact

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message is a visitor-submitted contact message. The public surface is
// write-only; only the privileged admin tier reads them back.
type Message struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) Create(ctx context.Context, name, email, body string) (*Message, error) {
	m := &Message{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO contact_messages (id, name, email, body, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, m.ID, m.Name, m.Email, m.Body, m.CreatedAt.Format("2006-01-02 15:04:05"))
	if err != nil {
		return nil, fmt.Errorf("create contact message: %w", err)
	}
	return m, nil
}

func (r *Repo) List(ctx context.Context, limit int) ([]Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, COALESCE(email, ''), body, created_at
		FROM contact_messages
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list contact messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var (
			m  Message
			ts string
		)
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Body, &ts); err != nil {
			return nil, fmt.Errorf("scan contact message: %w", err)
		}
		if t, err := time.Parse("2006-01-02 15:04:05", ts); err == nil {
			m.CreatedAt = t
		} else if t, err := time.Parse(time.RFC3339, ts); err == nil {
			m.CreatedAt = t
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("contact message rows: %w", err)
	}
	return out, nil
}
