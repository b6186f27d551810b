package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotConnected is returned when no backend client is available.
var ErrNotConnected = errors.New("not connected to backend")

// CallError is a failed backend call: a transport failure or a rejection by
// the remote service. It is surfaced to the caller as is; nothing retries it.
type CallError struct {
	// Op names the backend operation, e.g. "sendMessage".
	Op string

	// Status is the HTTP status of a rejected call, or 0 for transport errors.
	Status int

	// Message is the remote error message, if any.
	Message string

	// Err is the underlying transport error, if any.
	Err error
}

func (e *CallError) Error() string {
	switch {
	case e.Err != nil && e.Status == 0:
		return fmt.Sprintf("backend %s: %v", e.Op, e.Err)
	case e.Message != "":
		return fmt.Sprintf("backend %s: %d: %s", e.Op, e.Status, e.Message)
	default:
		return fmt.Sprintf("backend %s: status %d", e.Op, e.Status)
	}
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a CallError for a missing resource.
func IsNotFound(err error) bool {
	var ce *CallError
	return errors.As(err, &ce) && ce.Status == http.StatusNotFound
}

// IsUnauthorized reports whether err is a CallError for an anonymous caller.
func IsUnauthorized(err error) bool {
	var ce *CallError
	return errors.As(err, &ce) && ce.Status == http.StatusUnauthorized
}
