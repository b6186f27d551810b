package speech

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	events chan RecognitionEvent

	mu    sync.Mutex
	stops int
}

func (s *fakeStream) Events() <-chan RecognitionEvent { return s.events }

func (s *fakeStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
	return nil
}

func (s *fakeStream) Stops() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops
}

type fakeRecognizer struct {
	mu      sync.Mutex
	configs []RecognitionConfig
	streams []*fakeStream
	err     error
}

func (r *fakeRecognizer) Start(ctx context.Context, cfg RecognitionConfig) (RecognitionStream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs = append(r.configs, cfg)
	if r.err != nil {
		return nil, r.err
	}
	s := &fakeStream{events: make(chan RecognitionEvent, 16)}
	r.streams = append(r.streams, s)
	return s, nil
}

func (r *fakeRecognizer) stream(i int) *fakeStream {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.streams[i]
}

func (r *fakeRecognizer) starts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.configs)
}

type fakeUtterance struct {
	text   string
	events chan UtteranceEvent
}

func (u *fakeUtterance) Events() <-chan UtteranceEvent { return u.events }

type fakeSynth struct {
	voices []Voice

	mu         sync.Mutex
	utterances []Utterance
	playing    []*fakeUtterance
	cancels    int
	err        error
}

func (s *fakeSynth) Voices() []Voice { return s.voices }

func (s *fakeSynth) Speak(ctx context.Context, u Utterance) (UtterancePlayback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.utterances = append(s.utterances, u)
	if s.err != nil {
		return nil, s.err
	}
	pb := &fakeUtterance{text: u.Text, events: make(chan UtteranceEvent, 16)}
	s.playing = append(s.playing, pb)
	return pb, nil
}

func (s *fakeSynth) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancels++
}

func (s *fakeSynth) utterance(i int) *fakeUtterance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing[i]
}

func (s *fakeSynth) Cancels() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancels
}

// runEngine runs an engine's loop for the duration of the test.
func runEngine(t *testing.T, run func(context.Context) error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

// emit delivers a recognition event and waits until the engine handled it.
func emit(t *testing.T, c *Capture, s *fakeStream, ev RecognitionEvent) {
	t.Helper()
	before := c.Snapshot().Processed
	s.events <- ev
	require.Eventually(t, func() bool { return c.Snapshot().Processed > before }, time.Second, time.Millisecond)
}

// emitUtterance delivers an utterance event and waits until it was handled.
func emitUtterance(t *testing.T, p *Playback, u *fakeUtterance, ev UtteranceEvent) {
	t.Helper()
	before := p.Snapshot().Processed
	u.events <- ev
	require.Eventually(t, func() bool { return p.Snapshot().Processed > before }, time.Second, time.Millisecond)
}
