// Package backend describes the remote chat and Q&A service the client core
// talks to, and provides an HTTP implementation of it.
//
// Every call is attributed to the caller's principal by the transport; the
// core treats the principal as an opaque token.
package backend

import (
	"context"

	"github.com/roach88/guff/internal/model"
)

// Client is the backend contract consumed by the client core.
type Client interface {
	Reader
	Writer
	Profiles
}

// Reader lists the remote collections.
type Reader interface {
	GetMessages(ctx context.Context, limit, offset int) ([]model.Message, error)
	GetQuestions(ctx context.Context, limit, offset int) ([]model.Question, error)
}

// Writer performs remote writes. A nil displayName is sent as absent.
type Writer interface {
	SendMessage(ctx context.Context, displayName *string, content string) error
	CreateQuestion(ctx context.Context, displayName *string, content string) (model.QuestionID, error)
	AnswerQuestion(ctx context.Context, id model.QuestionID, answer string) error
}

// Profiles reads and writes the caller's profile.
type Profiles interface {
	// GetCallerUserProfile returns nil without error when no profile exists.
	GetCallerUserProfile(ctx context.Context) (*model.Profile, error)
	SaveCallerUserProfile(ctx context.Context, p model.Profile) error
}

// DefaultPageSize is the number of items requested per collection fetch.
const DefaultPageSize = 100
