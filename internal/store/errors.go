package store

import "errors"

var (
	// ErrNotFound is returned when a record does not exist for the caller.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when an anonymous caller attempts a write.
	ErrUnauthorized = errors.New("anonymous caller")
)
