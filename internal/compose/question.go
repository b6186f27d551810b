package compose

import (
	"context"

	"github.com/roach88/guff/internal/model"
	"github.com/roach88/guff/internal/speech"
	"github.com/roach88/guff/internal/validate"
)

// QuestionCreator adds questions to the caller's collection.
type QuestionCreator interface {
	CreateQuestion(ctx context.Context, content string) (model.QuestionID, error)
}

// QuestionComposer is the question input box. Its draft can be dictated:
// while capture is listening the draft follows the transcript.
type QuestionComposer struct {
	creator   QuestionCreator
	draft     string
	listening bool
	live      string
}

// NewQuestionComposer creates a question composer.
func NewQuestionComposer(c QuestionCreator) *QuestionComposer {
	return &QuestionComposer{creator: c}
}

// SetDraft replaces the typed draft.
func (c *QuestionComposer) SetDraft(s string) {
	c.draft = s
}

// Follow applies a capture snapshot. A non-empty transcript replaces the
// draft; while listening the live transcript is shown instead of the draft.
func (c *QuestionComposer) Follow(snap speech.CaptureSnapshot) {
	c.listening = snap.Listening()
	c.live = snap.Transcript()
	if c.live != "" {
		c.draft = c.live
	}
}

// Draft returns the text shown in the input box.
func (c *QuestionComposer) Draft() string {
	if c.listening {
		return c.live
	}
	return c.draft
}

// Remaining returns how many characters the draft may still grow.
func (c *QuestionComposer) Remaining() int {
	return validate.Remaining(c.Draft(), validate.MaxQuestionLength)
}

// Submit validates the draft and creates a question from its trimmed text.
// The draft is cleared on success.
func (c *QuestionComposer) Submit(ctx context.Context) (model.QuestionID, error) {
	res := validate.Question(c.draft)
	if !res.Valid {
		return 0, res.Err()
	}

	id, err := c.creator.CreateQuestion(ctx, res.Trimmed)
	if err != nil {
		return 0, err
	}

	c.draft = ""
	c.live = ""
	return id, nil
}
