package datasync

import (
	"cmp"
	"context"
	"time"

	"github.com/roach88/guff/internal/backend"
	"github.com/roach88/guff/internal/model"
)

// MessagesStaleTime is how long a fetched chat feed counts as fresh for a new
// subscriber.
const MessagesStaleTime = time.Second

// Messages is the chat feed, oldest message first.
// A nil reader yields an empty feed.
func Messages(r backend.Reader, limit int) Collection[model.Message] {
	return Collection[model.Message]{
		Key: KeyChatMessages,
		Fetch: func(ctx context.Context) ([]model.Message, error) {
			if r == nil {
				return []model.Message{}, nil
			}
			return r.GetMessages(ctx, limit, 0)
		},
		Compare: func(a, b model.Message) int {
			return cmp.Compare(a.Timestamp, b.Timestamp)
		},
		StaleTime: MessagesStaleTime,
	}
}

// Questions is the caller's Q&A list, newest question first.
// A nil reader yields an empty list.
func Questions(r backend.Reader, limit int) Collection[model.Question] {
	return Collection[model.Question]{
		Key: KeyMyQuestions,
		Fetch: func(ctx context.Context) ([]model.Question, error) {
			if r == nil {
				return []model.Question{}, nil
			}
			return r.GetQuestions(ctx, limit, 0)
		},
		Compare: func(a, b model.Question) int {
			return cmp.Compare(b.CreatedAt, a.CreatedAt)
		},
	}
}
