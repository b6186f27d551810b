package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/guff/internal/model"
)

// CreateQuestion stores a question for author and returns its ID.
func (s *Store) CreateQuestion(ctx context.Context, author model.Principal, displayName *string, content string) (model.QuestionID, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO questions (author, display_name, content, created_at)
		VALUES (?, ?, ?, ?)
	`, string(author), nullString(displayName), content, s.clock.Next())
	if err != nil {
		return 0, fmt.Errorf("create question: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create question: %w", err)
	}

	return model.QuestionID(id), nil
}

// ListQuestions returns a page of author's questions, newest first.
func (s *Store) ListQuestions(ctx context.Context, author model.Principal, limit, offset int) ([]model.Question, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content, created_at, modified_at, display_name, answer
		FROM questions
		WHERE author = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, string(author), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	questions := make([]model.Question, 0)
	for rows.Next() {
		var (
			q        model.Question
			id       int64
			modified sql.NullInt64
			name     sql.NullString
			answer   sql.NullString
		)
		if err := rows.Scan(&id, &q.Content, &q.CreatedAt, &modified, &name, &answer); err != nil {
			return nil, fmt.Errorf("list questions: scan: %w", err)
		}
		q.ID = model.QuestionID(id)
		q.Author = author
		q.ModifiedAt = int64Ptr(modified)
		q.DisplayName = stringPtr(name)
		q.Answer = stringPtr(answer)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	return questions, nil
}

// AnswerQuestion sets the answer of one of author's questions.
// Returns ErrNotFound if author has no question with that ID.
func (s *Store) AnswerQuestion(ctx context.Context, author model.Principal, id model.QuestionID, answer string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE questions
		SET answer = ?, modified_at = ?
		WHERE id = ? AND author = ?
	`, answer, s.clock.Next(), int64(id), string(author))
	if err != nil {
		return fmt.Errorf("answer question: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("answer question: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("answer question %d: %w", id, ErrNotFound)
	}

	return nil
}
