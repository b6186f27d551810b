// Package mutation performs remote writes and invalidates the collections
// they affect.
package mutation

import (
	"context"
	"log/slog"

	"github.com/roach88/guff/internal/backend"
	"github.com/roach88/guff/internal/datasync"
	"github.com/roach88/guff/internal/metrics"
	"github.com/roach88/guff/internal/model"
)

// Invalidator marks a cached collection stale.
type Invalidator interface {
	Invalidate(key datasync.Key)
}

// Coordinator issues exactly one remote write per call. On success it
// invalidates the affected collection; on failure it returns the backend
// error untouched and changes nothing. Writes are never retried, rolled back
// or de-duplicated.
type Coordinator struct {
	backend backend.Writer
	cache   Invalidator
	logger  *slog.Logger
}

// New creates a coordinator. A nil backend makes every write fail with
// backend.ErrNotConnected. A nil logger uses slog.Default().
func New(w backend.Writer, cache Invalidator, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{backend: w, cache: cache, logger: logger}
}

// SendMessage posts a chat message. An empty displayName is sent as absent.
func (c *Coordinator) SendMessage(ctx context.Context, content, displayName string) error {
	const op = "sendMessage"
	if c.backend == nil {
		return c.fail(op, backend.ErrNotConnected)
	}

	if err := c.backend.SendMessage(ctx, model.OptionalString(displayName), content); err != nil {
		return c.fail(op, err)
	}

	c.succeed(op, datasync.KeyChatMessages)
	return nil
}

// CreateQuestion adds a question to the caller's private collection.
// Questions are created without a display name.
func (c *Coordinator) CreateQuestion(ctx context.Context, content string) (model.QuestionID, error) {
	const op = "createQuestion"
	if c.backend == nil {
		return 0, c.fail(op, backend.ErrNotConnected)
	}

	id, err := c.backend.CreateQuestion(ctx, nil, content)
	if err != nil {
		return 0, c.fail(op, err)
	}

	c.succeed(op, datasync.KeyMyQuestions, "question_id", id)
	return id, nil
}

// AnswerQuestion sets or replaces the answer of one of the caller's
// questions.
func (c *Coordinator) AnswerQuestion(ctx context.Context, id model.QuestionID, answer string) error {
	const op = "answerQuestion"
	if c.backend == nil {
		return c.fail(op, backend.ErrNotConnected)
	}

	if err := c.backend.AnswerQuestion(ctx, id, answer); err != nil {
		return c.fail(op, err)
	}

	c.succeed(op, datasync.KeyMyQuestions, "question_id", id)
	return nil
}

func (c *Coordinator) succeed(op string, key datasync.Key, attrs ...any) {
	metrics.MutationsTotal.WithLabelValues(op, "ok").Inc()
	c.logger.Debug("mutation applied", append([]any{"op", op, "invalidate", key}, attrs...)...)
	if c.cache != nil {
		c.cache.Invalidate(key)
	}
}

func (c *Coordinator) fail(op string, err error) error {
	metrics.MutationsTotal.WithLabelValues(op, "error").Inc()
	c.logger.Warn("mutation failed", "op", op, "error", err)
	return err
}
