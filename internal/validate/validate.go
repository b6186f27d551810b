// Package validate is the client-side gate that every write passes through
// before it reaches the backend.
//
// Text is trimmed and NFC-normalised, then measured in characters (runes).
// Devanagari input typed and dictated on different platforms arrives in
// different normalisation forms; measuring the composed form keeps the limit
// stable for the same visible text.
package validate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Content limits, in characters.
const (
	MaxMessageLength     = 500
	MaxQuestionLength    = 500
	MaxAnswerLength      = 1000
	MaxDisplayNameLength = 100
)

// Reason classifies a rejected input.
type Reason string

const (
	ReasonEmptyContent Reason = "EMPTY_CONTENT"
	ReasonTooLong      Reason = "TOO_LONG"
)

// Result is the outcome of a validation.
type Result struct {
	Valid   bool
	Trimmed string // set only when Valid
	Reason  Reason // set only when not Valid
	Length  int    // characters in the trimmed text
	Limit   int
}

// Err returns the validation error, or nil when the result is valid.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return &Error{Reason: r.Reason, Length: r.Length, Limit: r.Limit}
}

// Text validates text against maxLen.
// It never modifies its input and has no side effects.
func Text(text string, maxLen int) Result {
	trimmed := norm.NFC.String(strings.TrimSpace(text))
	n := utf8.RuneCountInString(trimmed)

	switch {
	case n == 0:
		return Result{Reason: ReasonEmptyContent, Length: n, Limit: maxLen}
	case n > maxLen:
		return Result{Reason: ReasonTooLong, Length: n, Limit: maxLen}
	}
	return Result{Valid: true, Trimmed: trimmed, Length: n, Limit: maxLen}
}

// Message validates chat message content.
func Message(text string) Result { return Text(text, MaxMessageLength) }

// Question validates question content.
func Question(text string) Result { return Text(text, MaxQuestionLength) }

// Answer validates answer text.
func Answer(text string) Result { return Text(text, MaxAnswerLength) }

// DisplayName validates a profile name.
func DisplayName(text string) Result { return Text(text, MaxDisplayNameLength) }

// Remaining returns how many characters may still be typed before maxLen is
// reached. Negative values mean the text is over the limit. The count is taken
// on the untrimmed text, as a character counter next to an input shows it.
func Remaining(text string, maxLen int) int {
	return maxLen - utf8.RuneCountInString(norm.NFC.String(text))
}

// Error is a rejected input. It is recovered locally and never sent to the
// backend.
type Error struct {
	Reason Reason
	Length int
	Limit  int
}

func (e *Error) Error() string {
	switch e.Reason {
	case ReasonEmptyContent:
		return "content cannot be empty"
	case ReasonTooLong:
		return fmt.Sprintf("content exceeds maximum length of %d characters (got %d)", e.Limit, e.Length)
	default:
		return fmt.Sprintf("invalid content: %s", e.Reason)
	}
}

// Is lets errors.Is match on the reason via the sentinel values below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Reason == e.Reason && t.Limit == 0
}

// Sentinels for errors.Is.
var (
	ErrEmptyContent = &Error{Reason: ReasonEmptyContent}
	ErrTooLong      = &Error{Reason: ReasonTooLong}
)
