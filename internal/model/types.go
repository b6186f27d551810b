package model

import "time"

// Principal is the opaque identity token of an authenticated caller.
// It is passed through to the backend and never interpreted locally.
type Principal string

// Anonymous is the principal of a caller that has not signed in.
const Anonymous Principal = ""

// IsAnonymous reports whether p carries no identity.
func (p Principal) IsAnonymous() bool {
	return p == Anonymous
}

// QuestionID uniquely identifies a question.
type QuestionID uint64

// Message is a chat message. Immutable once created.
type Message struct {
	Content     string    `json:"content"`
	DisplayName *string   `json:"display_name,omitempty"`
	Author      Principal `json:"author"`
	Timestamp   int64     `json:"timestamp"`
}

// AuthorName returns the display name, or "Anonymous" when none was given.
func (m Message) AuthorName() string {
	if m.DisplayName == nil || *m.DisplayName == "" {
		return "Anonymous"
	}
	return *m.DisplayName
}

// Time converts the backend timestamp to wall-clock time.
func (m Message) Time() time.Time {
	return time.Unix(0, m.Timestamp)
}

// Question is an entry in a caller's private Q&A collection.
// Only Answer (and with it ModifiedAt) changes after creation.
type Question struct {
	ID          QuestionID `json:"id"`
	Content     string     `json:"content"`
	CreatedAt   int64      `json:"created_at"`
	ModifiedAt  *int64     `json:"modified_at,omitempty"`
	DisplayName *string    `json:"display_name,omitempty"`
	Author      Principal  `json:"author"`
	Answer      *string    `json:"answer,omitempty"`
}

// HasAnswer reports whether the question has a non-empty answer.
func (q Question) HasAnswer() bool {
	return q.Answer != nil && *q.Answer != ""
}

// Created converts CreatedAt to wall-clock time.
func (q Question) Created() time.Time {
	return time.Unix(0, q.CreatedAt)
}

// Profile is the caller's user profile.
type Profile struct {
	Name string `json:"name"`
}

// OptionalString returns nil for the empty string and &s otherwise.
// Backend calls treat an empty display name as absent.
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
