// Package model defines the records exchanged with the chat and Q&A backend.
//
// Records are owned by the backend. The client keeps read-only cached copies
// (see internal/datasync) and never edits them in place.
//
// Timestamps are nanosecond instants as issued by the backend. They are kept
// as int64 rather than time.Time so that ordering compares exactly what the
// backend produced.
package model
