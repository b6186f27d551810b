// Package speech turns the platform's event-driven speech capabilities into
// observable application state.
//
// Capture wraps a continuous speech-recognition stream; Playback wraps the
// text-to-speech utterance lifecycle. Both are explicit state machines:
//
//	Capture:  Idle → Listening → {Idle, Error}; Error → Idle on stream end
//	Playback: Idle → Speaking → Idle
//
// Each engine owns a single goroutine (Run) that applies every transition.
// Commands (Start, Stop, Speak) and platform callbacks are events on one FIFO
// queue, so "cancel the old session, then start the new one" happens inside a
// single event handler and cannot interleave with a late callback of the old
// session. Callbacks carry the generation of the session that produced them;
// callbacks of a superseded session are dropped.
//
// Both capabilities are optional. An engine constructed without one reports
// ErrUnsupported from Start/Speak and never changes state.
package speech
