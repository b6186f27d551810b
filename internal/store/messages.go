package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/guff/internal/model"
)

// AppendMessage stores a chat message and returns its timestamp.
func (s *Store) AppendMessage(ctx context.Context, author model.Principal, displayName *string, content string) (int64, error) {
	ts := s.clock.Next()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (author, display_name, content, ts)
		VALUES (?, ?, ?, ?)
	`, string(author), nullString(displayName), content, ts)
	if err != nil {
		return 0, fmt.Errorf("append message: %w", err)
	}

	return ts, nil
}

// ListMessages returns a page of messages, newest first.
func (s *Store) ListMessages(ctx context.Context, limit, offset int) ([]model.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT author, display_name, content, ts
		FROM messages
		ORDER BY ts DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]model.Message, 0, limit)
	for rows.Next() {
		var (
			m      model.Message
			author string
			name   sql.NullString
		)
		if err := rows.Scan(&author, &name, &m.Content, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("list messages: scan: %w", err)
		}
		m.Author = model.Principal(author)
		m.DisplayName = stringPtr(name)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	return messages, nil
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	return &ni.Int64
}
