package store

import (
	"context"

	"github.com/roach88/guff/internal/backend"
	"github.com/roach88/guff/internal/metrics"
	"github.com/roach88/guff/internal/model"
	"github.com/roach88/guff/internal/validate"
)

// Session is the backend as seen by one caller. It implements
// backend.Client in process, with the same checks the REST server applies:
// writes need a principal and re-run the validation gate.
type Session struct {
	store     *Store
	principal model.Principal
}

var _ backend.Client = (*Session)(nil)

// ForPrincipal returns the session of p.
func (s *Store) ForPrincipal(p model.Principal) *Session {
	return &Session{store: s, principal: p}
}

// Principal returns the caller.
func (s *Session) Principal() model.Principal {
	return s.principal
}

// GetMessages lists the chat feed, newest first. Reading is public.
func (s *Session) GetMessages(ctx context.Context, limit, offset int) ([]model.Message, error) {
	return s.store.ListMessages(ctx, limit, offset)
}

// SendMessage posts a chat message as the caller.
func (s *Session) SendMessage(ctx context.Context, displayName *string, content string) error {
	_, err := s.PostMessage(ctx, displayName, content)
	return err
}

// PostMessage is SendMessage that also returns the timestamp assigned to
// the stored message.
func (s *Session) PostMessage(ctx context.Context, displayName *string, content string) (int64, error) {
	if s.principal.IsAnonymous() {
		return 0, ErrUnauthorized
	}

	res := validate.Message(content)
	if !res.Valid {
		return 0, res.Err()
	}
	if displayName != nil {
		name := validate.DisplayName(*displayName)
		if !name.Valid {
			return 0, name.Err()
		}
		displayName = &name.Trimmed
	}

	ts, err := s.store.AppendMessage(ctx, s.principal, displayName, res.Trimmed)
	if err != nil {
		return 0, err
	}
	metrics.MessagesPosted.Inc()
	return ts, nil
}

// GetQuestions lists the caller's questions.
func (s *Session) GetQuestions(ctx context.Context, limit, offset int) ([]model.Question, error) {
	if s.principal.IsAnonymous() {
		return []model.Question{}, nil
	}
	return s.store.ListQuestions(ctx, s.principal, limit, offset)
}

// CreateQuestion adds a question to the caller's collection.
func (s *Session) CreateQuestion(ctx context.Context, displayName *string, content string) (model.QuestionID, error) {
	if s.principal.IsAnonymous() {
		return 0, ErrUnauthorized
	}

	res := validate.Question(content)
	if !res.Valid {
		return 0, res.Err()
	}

	id, err := s.store.CreateQuestion(ctx, s.principal, displayName, res.Trimmed)
	if err != nil {
		return 0, err
	}
	metrics.QuestionsCreated.Inc()
	return id, nil
}

// AnswerQuestion sets the answer of one of the caller's questions.
func (s *Session) AnswerQuestion(ctx context.Context, id model.QuestionID, answer string) error {
	if s.principal.IsAnonymous() {
		return ErrUnauthorized
	}

	res := validate.Answer(answer)
	if !res.Valid {
		return res.Err()
	}

	if err := s.store.AnswerQuestion(ctx, s.principal, id, res.Trimmed); err != nil {
		return err
	}
	metrics.AnswersSaved.Inc()
	return nil
}

// GetCallerUserProfile returns the caller's profile, or nil.
func (s *Session) GetCallerUserProfile(ctx context.Context) (*model.Profile, error) {
	if s.principal.IsAnonymous() {
		return nil, nil
	}
	return s.store.GetProfile(ctx, s.principal)
}

// SaveCallerUserProfile saves the caller's profile.
func (s *Session) SaveCallerUserProfile(ctx context.Context, p model.Profile) error {
	if s.principal.IsAnonymous() {
		return ErrUnauthorized
	}

	res := validate.DisplayName(p.Name)
	if !res.Valid {
		return res.Err()
	}
	return s.store.SaveProfile(ctx, s.principal, model.Profile{Name: res.Trimmed})
}
