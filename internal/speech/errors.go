package speech

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupported is returned when the platform offers no capability.
	ErrUnsupported = errors.New("speech: capability not supported")

	// ErrAlreadyListening is returned by Start while a session is listening.
	ErrAlreadyListening = errors.New("speech: already listening")

	// ErrClosed is returned by commands sent to a stopped engine.
	ErrClosed = errors.New("speech: engine closed")
)

// CaptureReason classifies a capture failure.
type CaptureReason string

const (
	CapturePermissionDenied CaptureReason = "permission-denied"
	CaptureNoSpeech         CaptureReason = "no-speech"
	CaptureUnsupported      CaptureReason = "unsupported"
	CaptureGeneric          CaptureReason = "generic"
)

// CaptureError is a classified capture failure. It is advisory: the engine
// stays usable and the next Start may retry.
type CaptureError struct {
	Reason CaptureReason

	// Code is the platform error code, if the failure came from the stream.
	Code string

	// Err is the underlying error of a failed stream start.
	Err error
}

func (e *CaptureError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("speech capture: %s: %v", e.Reason, e.Err)
	case e.Code != "":
		return fmt.Sprintf("speech capture: %s (%s)", e.Reason, e.Code)
	default:
		return fmt.Sprintf("speech capture: %s", e.Reason)
	}
}

func (e *CaptureError) Unwrap() error {
	if e.Reason == CaptureUnsupported {
		return ErrUnsupported
	}
	return e.Err
}

// Advice returns the user-facing text for the failure.
func (e *CaptureError) Advice() string {
	switch e.Reason {
	case CapturePermissionDenied:
		return "Microphone permission denied"
	case CaptureNoSpeech:
		return "No speech detected"
	case CaptureUnsupported:
		return "Speech recognition is not supported on this device"
	}
	if e.Err != nil {
		return "Failed to start speech recognition"
	}
	return "Speech recognition error occurred"
}

// classifyRecognitionError maps a platform error code to a capture failure.
func classifyRecognitionError(code string) *CaptureError {
	reason := CaptureGeneric
	switch code {
	case "not-allowed", "service-not-allowed":
		reason = CapturePermissionDenied
	case "no-speech":
		reason = CaptureNoSpeech
	}
	return &CaptureError{Reason: reason, Code: code}
}

// PlaybackReason classifies a playback failure.
type PlaybackReason string

const (
	PlaybackUnsupported PlaybackReason = "unsupported"
	PlaybackGeneric     PlaybackReason = "generic"
)

// PlaybackError is a classified playback failure. Like CaptureError it is
// advisory.
type PlaybackError struct {
	Reason PlaybackReason
	Code   string
	Err    error
}

func (e *PlaybackError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("speech playback: %s: %v", e.Reason, e.Err)
	case e.Code != "":
		return fmt.Sprintf("speech playback: %s (%s)", e.Reason, e.Code)
	default:
		return fmt.Sprintf("speech playback: %s", e.Reason)
	}
}

func (e *PlaybackError) Unwrap() error {
	if e.Reason == PlaybackUnsupported {
		return ErrUnsupported
	}
	return e.Err
}

// Advice returns the user-facing text for the failure.
func (e *PlaybackError) Advice() string {
	if e.Reason == PlaybackUnsupported {
		return "Text-to-speech is not supported on this device"
	}
	return "Text-to-speech error occurred"
}
