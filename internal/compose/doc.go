// Package compose holds the input-side state of the client: drafts for chat
// messages, questions and answers, and the profile form. Every submission
// passes the validation gate before anything reaches the backend.
//
// Composers are plain values driven by one goroutine (a UI loop or a CLI
// command); they are not safe for concurrent use.
package compose
