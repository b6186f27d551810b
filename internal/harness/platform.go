package harness

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/roach88/guff/internal/speech"
)

// scriptedRecognizer is a recognition platform whose callbacks are injected
// by scenario steps.
type scriptedRecognizer struct {
	mu      sync.Mutex
	streams []*scriptedStream
	starts  int
	stops   int
	fail    string
}

var _ speech.Recognizer = (*scriptedRecognizer)(nil)

func (r *scriptedRecognizer) Start(ctx context.Context, cfg speech.RecognitionConfig) (speech.RecognitionStream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.starts++
	if r.fail != "" {
		err := errors.New(r.fail)
		r.fail = ""
		return nil, err
	}

	s := &scriptedStream{owner: r, events: make(chan speech.RecognitionEvent, 16)}
	r.streams = append(r.streams, s)
	return s, nil
}

// failNext makes the next Start fail with msg.
func (r *scriptedRecognizer) failNext(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = msg
}

// stream returns the n-th stream (1-based), or the latest when n is 0.
func (r *scriptedRecognizer) stream(n int) (*scriptedStream, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n == 0 {
		n = len(r.streams)
	}
	if n < 1 || n > len(r.streams) {
		return nil, 0, fmt.Errorf("no recognition stream %d (%d opened)", n, len(r.streams))
	}
	return r.streams[n-1], n, nil
}

func (r *scriptedRecognizer) calls() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return map[string]int{"starts": r.starts, "stops": r.stops}
}

// closeAll ends every stream still open.
func (r *scriptedRecognizer) closeAll() {
	r.mu.Lock()
	streams := r.streams
	r.mu.Unlock()
	for _, s := range streams {
		s.close()
	}
}

type scriptedStream struct {
	owner  *scriptedRecognizer
	events chan speech.RecognitionEvent

	mu     sync.Mutex
	closed bool
}

func (s *scriptedStream) Events() <-chan speech.RecognitionEvent { return s.events }

func (s *scriptedStream) Stop() error {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	s.owner.stops++
	return nil
}

func (s *scriptedStream) send(ev speech.RecognitionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("recognition stream already closed")
	}
	s.events <- ev
	return nil
}

func (s *scriptedStream) close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	close(s.events)
	return true
}

// scriptedSynth is a synthesis platform whose callbacks are injected by
// scenario steps.
type scriptedSynth struct {
	voices []speech.Voice

	mu         sync.Mutex
	utterances []*scriptedUtterance
	speaks     int
	cancels    int
	fail       string
}

var _ speech.Synthesizer = (*scriptedSynth)(nil)

func (s *scriptedSynth) Voices() []speech.Voice { return s.voices }

func (s *scriptedSynth) Speak(ctx context.Context, u speech.Utterance) (speech.UtterancePlayback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.speaks++
	if s.fail != "" {
		err := errors.New(s.fail)
		s.fail = ""
		return nil, err
	}

	pb := &scriptedUtterance{events: make(chan speech.UtteranceEvent, 16)}
	s.utterances = append(s.utterances, pb)
	return pb, nil
}

func (s *scriptedSynth) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancels++
}

func (s *scriptedSynth) failNext(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = msg
}

// utterance returns the n-th utterance (1-based), or the latest when n is 0.
func (s *scriptedSynth) utterance(n int) (*scriptedUtterance, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n == 0 {
		n = len(s.utterances)
	}
	if n < 1 || n > len(s.utterances) {
		return nil, 0, fmt.Errorf("no utterance %d (%d queued)", n, len(s.utterances))
	}
	return s.utterances[n-1], n, nil
}

func (s *scriptedSynth) calls() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return map[string]int{"speaks": s.speaks, "cancels": s.cancels}
}

func (s *scriptedSynth) closeAll() {
	s.mu.Lock()
	utterances := s.utterances
	s.mu.Unlock()
	for _, u := range utterances {
		u.close()
	}
}

type scriptedUtterance struct {
	events chan speech.UtteranceEvent

	mu     sync.Mutex
	closed bool
}

func (u *scriptedUtterance) Events() <-chan speech.UtteranceEvent { return u.events }

func (u *scriptedUtterance) send(ev speech.UtteranceEvent) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return errors.New("utterance already closed")
	}
	u.events <- ev
	return nil
}

func (u *scriptedUtterance) close() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return false
	}
	u.closed = true
	close(u.events)
	return true
}
