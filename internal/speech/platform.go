package speech

import "context"

// RecognitionConfig describes the recognition stream to open.
type RecognitionConfig struct {
	Lang           string
	Continuous     bool
	InterimResults bool
}

// Segment is one recognition result.
type Segment struct {
	Text  string
	Final bool
}

// RecognitionEventKind identifies a recognition callback.
type RecognitionEventKind string

const (
	RecognitionResult RecognitionEventKind = "result"
	RecognitionError  RecognitionEventKind = "error"
	RecognitionEnd    RecognitionEventKind = "end"
)

// RecognitionEvent is a callback from a recognition stream.
//
// For results, Results holds the stream's results and ResultIndex is the
// first one that changed in this batch. For errors, Error holds the platform
// error code (e.g. "not-allowed", "no-speech").
type RecognitionEvent struct {
	Kind        RecognitionEventKind
	ResultIndex int
	Results     []Segment
	Error       string
}

// RecognitionStream is a live recognition session. Closing the Events
// channel counts as the end of the stream.
type RecognitionStream interface {
	Events() <-chan RecognitionEvent
	// Stop asks the platform to end the stream. The end is acknowledged
	// with a RecognitionEnd event or by closing Events.
	Stop() error
}

// Recognizer opens recognition streams.
type Recognizer interface {
	Start(ctx context.Context, cfg RecognitionConfig) (RecognitionStream, error)
}

// Voice is a synthesis voice offered by the platform.
type Voice struct {
	Name    string
	Lang    string // BCP 47 tag, e.g. "ne-NP"
	Default bool
}

// Utterance is a request to speak text.
type Utterance struct {
	Text  string
	Lang  string
	Voice *Voice // nil selects the platform default
	Rate  float64
	Pitch float64
}

// UtteranceEventKind identifies a synthesis callback.
type UtteranceEventKind string

const (
	UtteranceStart UtteranceEventKind = "start"
	UtteranceEnd   UtteranceEventKind = "end"
	UtteranceError UtteranceEventKind = "error"
)

// UtteranceEvent is a callback from an utterance.
type UtteranceEvent struct {
	Kind  UtteranceEventKind
	Error string
}

// UtterancePlayback is a queued utterance. Closing the Events channel counts
// as the end of the utterance.
type UtterancePlayback interface {
	Events() <-chan UtteranceEvent
}

// Synthesizer is the platform's text-to-speech channel. It plays one
// utterance at a time.
type Synthesizer interface {
	Voices() []Voice
	Speak(ctx context.Context, u Utterance) (UtterancePlayback, error)
	// Cancel stops the current utterance, if any.
	Cancel()
}
