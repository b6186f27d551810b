package compose

import (
	"context"

	"github.com/roach88/guff/internal/model"
	"github.com/roach88/guff/internal/validate"
)

// Answerer saves answers.
type Answerer interface {
	AnswerQuestion(ctx context.Context, id model.QuestionID, answer string) error
}

// AnswerEditor edits the answer of one question.
type AnswerEditor struct {
	answerer Answerer
	id       model.QuestionID
	text     string
}

// NewAnswerEditor starts editing q, prefilled with its current answer.
func NewAnswerEditor(a Answerer, q model.Question) *AnswerEditor {
	e := &AnswerEditor{answerer: a, id: q.ID}
	if q.Answer != nil {
		e.text = *q.Answer
	}
	return e
}

// SetText replaces the answer text.
func (e *AnswerEditor) SetText(s string) {
	e.text = s
}

// Text returns the answer text.
func (e *AnswerEditor) Text() string {
	return e.text
}

// Remaining returns how many characters the answer may still grow.
func (e *AnswerEditor) Remaining() int {
	return validate.Remaining(e.text, validate.MaxAnswerLength)
}

// Save validates the text and saves it trimmed.
func (e *AnswerEditor) Save(ctx context.Context) error {
	res := validate.Answer(e.text)
	if !res.Valid {
		return res.Err()
	}
	return e.answerer.AnswerQuestion(ctx, e.id, res.Trimmed)
}

// PlaybackText is what the Q&A item speaks for q.
func PlaybackText(q model.Question) string {
	if q.HasAnswer() {
		return "Question: " + q.Content + ". Answer: " + *q.Answer
	}
	return "Question: " + q.Content
}
