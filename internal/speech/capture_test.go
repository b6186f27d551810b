package speech

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/guff/internal/testutil"
)

func newTestCapture(t *testing.T, r Recognizer, opts ...CaptureOption) *Capture {
	t.Helper()
	opts = append([]CaptureOption{WithSessionIDs(testutil.NewSequenceIDs("session"))}, opts...)
	c := NewCapture(r, opts...)
	runEngine(t, c.Run)
	return c
}

func TestCapture_Unsupported(t *testing.T) {
	c := newTestCapture(t, nil)

	err := c.Start(context.Background())

	require.ErrorIs(t, err, ErrUnsupported)
	snap := c.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	require.NotNil(t, snap.Err)
	assert.Equal(t, CaptureUnsupported, snap.Err.Reason)
	assert.False(t, c.Supported())
}

func TestCapture_StartOpensNepaliContinuousStream(t *testing.T) {
	r := &fakeRecognizer{}
	c := newTestCapture(t, r)

	require.NoError(t, c.Start(context.Background()))

	assert.Equal(t, []RecognitionConfig{{Lang: "ne-NP", Continuous: true, InterimResults: true}}, r.configs)
	snap := c.Snapshot()
	assert.Equal(t, StateListening, snap.State)
	assert.Equal(t, "session-1", snap.SessionID)
	assert.Empty(t, snap.Transcript())
}

func TestCapture_StartWhileListeningIsRejected(t *testing.T) {
	r := &fakeRecognizer{}
	c := newTestCapture(t, r)
	require.NoError(t, c.Start(context.Background()))
	emit(t, c, r.stream(0), RecognitionEvent{Kind: RecognitionResult, Results: []Segment{{Text: "ek", Final: true}}})

	err := c.Start(context.Background())

	assert.ErrorIs(t, err, ErrAlreadyListening)
	assert.Equal(t, 1, r.starts())
	snap := c.Snapshot()
	assert.Equal(t, "session-1", snap.SessionID)
	assert.Equal(t, "ek ", snap.Accumulated)
}

func TestCapture_ResultBatches(t *testing.T) {
	r := &fakeRecognizer{}
	c := newTestCapture(t, r)
	require.NoError(t, c.Start(context.Background()))
	s := r.stream(0)

	emit(t, c, s, RecognitionEvent{Kind: RecognitionResult, Results: []Segment{
		{Text: "namaste"},
	}})
	snap := c.Snapshot()
	assert.Equal(t, "", snap.Accumulated)
	assert.Equal(t, "namaste", snap.Interim)

	emit(t, c, s, RecognitionEvent{Kind: RecognitionResult, Results: []Segment{
		{Text: "namaste", Final: true},
		{Text: "sathi"},
	}})
	snap = c.Snapshot()
	assert.Equal(t, "namaste ", snap.Accumulated)
	assert.Equal(t, "sathi", snap.Interim)
	assert.Equal(t, "namaste sathi", snap.Transcript())

	// Interim is replaced, never appended.
	emit(t, c, s, RecognitionEvent{Kind: RecognitionResult, ResultIndex: 1, Results: []Segment{
		{Text: "namaste", Final: true},
		{Text: "sathi ho"},
	}})
	snap = c.Snapshot()
	assert.Equal(t, "namaste ", snap.Accumulated)
	assert.Equal(t, "sathi ho", snap.Interim)

	emit(t, c, s, RecognitionEvent{Kind: RecognitionResult, ResultIndex: 1, Results: []Segment{
		{Text: "namaste", Final: true},
		{Text: "sathi ho", Final: true},
	}})
	snap = c.Snapshot()
	assert.Equal(t, "namaste sathi ho ", snap.Accumulated)
	assert.Equal(t, "", snap.Interim)
}

func TestCapture_StartWhileStoppingIsRejected(t *testing.T) {
	r := &fakeRecognizer{}
	c := newTestCapture(t, r, WithStopGrace(0))
	require.NoError(t, c.Start(context.Background()))
	require.NoError(t, c.Stop(context.Background()))

	err := c.Start(context.Background())

	assert.ErrorIs(t, err, ErrAlreadyListening)
	assert.Equal(t, 1, r.starts())
	snap := c.Snapshot()
	assert.Equal(t, StateListening, snap.State)
	assert.True(t, snap.Stopping)
	assert.Equal(t, "session-1", snap.SessionID)
}

func TestCapture_StartAfterErrorReplacesDrainingSession(t *testing.T) {
	r := &fakeRecognizer{}
	c := newTestCapture(t, r)
	require.NoError(t, c.Start(context.Background()))
	old := r.stream(0)
	emit(t, c, old, RecognitionEvent{Kind: RecognitionError, Error: "network"})
	require.Equal(t, StateError, c.Snapshot().State)

	require.NoError(t, c.Start(context.Background()))

	assert.Equal(t, 2, r.starts())
	snap := c.Snapshot()
	assert.Equal(t, StateListening, snap.State)
	assert.Equal(t, "session-2", snap.SessionID)
	assert.Nil(t, snap.Err)

	// The old session's late end callback is dropped.
	emit(t, c, old, RecognitionEvent{Kind: RecognitionEnd})
	assert.Equal(t, StateListening, c.Snapshot().State)
	assert.Equal(t, "session-2", c.Snapshot().SessionID)
}

func TestCapture_ErrorClassification(t *testing.T) {
	tests := []struct {
		code   string
		reason CaptureReason
		advice string
	}{
		{"not-allowed", CapturePermissionDenied, "Microphone permission denied"},
		{"service-not-allowed", CapturePermissionDenied, "Microphone permission denied"},
		{"no-speech", CaptureNoSpeech, "No speech detected"},
		{"network", CaptureGeneric, "Speech recognition error occurred"},
		{"", CaptureGeneric, "Speech recognition error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			r := &fakeRecognizer{}
			c := newTestCapture(t, r)
			require.NoError(t, c.Start(context.Background()))
			s := r.stream(0)

			emit(t, c, s, RecognitionEvent{Kind: RecognitionError, Error: tt.code})

			snap := c.Snapshot()
			assert.Equal(t, StateError, snap.State)
			require.NotNil(t, snap.Err)
			assert.Equal(t, tt.reason, snap.Err.Reason)
			assert.Equal(t, tt.advice, snap.Err.Advice())

			// The end callback that follows always yields Idle.
			emit(t, c, s, RecognitionEvent{Kind: RecognitionEnd})
			snap = c.Snapshot()
			assert.Equal(t, StateIdle, snap.State)
			assert.Equal(t, tt.reason, snap.Err.Reason, "advisory error stays readable")
		})
	}
}

func TestCapture_NaturalEndYieldsIdle(t *testing.T) {
	r := &fakeRecognizer{}
	c := newTestCapture(t, r)
	require.NoError(t, c.Start(context.Background()))
	s := r.stream(0)
	emit(t, c, s, RecognitionEvent{Kind: RecognitionResult, Results: []Segment{{Text: "ramro", Final: true}, {Text: "cha"}}})

	emit(t, c, s, RecognitionEvent{Kind: RecognitionEnd})

	snap := c.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Empty(t, snap.SessionID)
	assert.Nil(t, snap.Err)
	assert.Equal(t, "ramro cha", snap.Transcript())
}

func TestCapture_ClosedEventsChannelEndsSession(t *testing.T) {
	r := &fakeRecognizer{}
	c := newTestCapture(t, r)
	require.NoError(t, c.Start(context.Background()))

	close(r.stream(0).events)

	require.Eventually(t, func() bool { return c.Snapshot().State == StateIdle }, time.Second, time.Millisecond)
}

func TestCapture_StopFromIdleIsNoop(t *testing.T) {
	r := &fakeRecognizer{}
	c := newTestCapture(t, r)
	before := c.Snapshot()

	require.NoError(t, c.Stop(context.Background()))

	after := c.Snapshot()
	assert.Equal(t, StateIdle, after.State)
	assert.Equal(t, before.Transcript(), after.Transcript())
	assert.Equal(t, 0, r.starts())
}

func TestCapture_StopWaitsForAcknowledgement(t *testing.T) {
	r := &fakeRecognizer{}
	c := newTestCapture(t, r, WithStopGrace(0))
	require.NoError(t, c.Start(context.Background()))
	s := r.stream(0)

	require.NoError(t, c.Stop(context.Background()))

	assert.Equal(t, 1, s.Stops())
	snap := c.Snapshot()
	assert.Equal(t, StateListening, snap.State)
	assert.True(t, snap.Stopping)

	// A second Stop does not ask the platform again.
	require.NoError(t, c.Stop(context.Background()))
	assert.Equal(t, 1, s.Stops())

	emit(t, c, s, RecognitionEvent{Kind: RecognitionEnd})
	snap = c.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.False(t, snap.Stopping)
}

func TestCapture_StopGraceForcesIdle(t *testing.T) {
	r := &fakeRecognizer{}
	c := newTestCapture(t, r, WithStopGrace(10*time.Millisecond))
	require.NoError(t, c.Start(context.Background()))

	require.NoError(t, c.Stop(context.Background()))

	require.Eventually(t, func() bool { return c.Snapshot().State == StateIdle }, time.Second, time.Millisecond)
	assert.False(t, c.Snapshot().Stopping)
}

func TestCapture_RestartDropsSupersededEvents(t *testing.T) {
	r := &fakeRecognizer{}
	c := newTestCapture(t, r)
	require.NoError(t, c.Start(context.Background()))
	old := r.stream(0)

	// Error leaves the old stream draining; a new Start replaces it.
	emit(t, c, old, RecognitionEvent{Kind: RecognitionError, Error: "no-speech"})
	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, 1, old.Stops())

	snap := c.Snapshot()
	assert.Equal(t, StateListening, snap.State)
	assert.Equal(t, "session-2", snap.SessionID)
	assert.Nil(t, snap.Err, "start clears the advisory error")

	emit(t, c, old, RecognitionEvent{Kind: RecognitionResult, Results: []Segment{{Text: "purano", Final: true}}})
	emit(t, c, old, RecognitionEvent{Kind: RecognitionEnd})

	snap = c.Snapshot()
	assert.Equal(t, StateListening, snap.State)
	assert.Empty(t, snap.Transcript())
}

func TestCapture_StartFailureLeavesIdle(t *testing.T) {
	boom := errors.New("microphone busy")
	r := &fakeRecognizer{err: boom}
	c := newTestCapture(t, r)

	err := c.Start(context.Background())

	require.ErrorIs(t, err, boom)
	var ce *CaptureError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, CaptureGeneric, ce.Reason)
	assert.Equal(t, "Failed to start speech recognition", ce.Advice())
	assert.Equal(t, StateIdle, c.Snapshot().State)
}

func TestCapture_TeardownStopsLiveStream(t *testing.T) {
	r := &fakeRecognizer{}
	c := NewCapture(r, WithSessionIDs(testutil.NewSequenceIDs("")))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.NoError(t, c.Start(context.Background()))
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	assert.Equal(t, 1, r.stream(0).Stops())
	assert.Equal(t, StateIdle, c.Snapshot().State)
	assert.ErrorIs(t, c.Start(context.Background()), ErrClosed)
}

func TestCapture_CloseEndsRun(t *testing.T) {
	r := &fakeRecognizer{}
	c := NewCapture(r)
	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()

	require.NoError(t, c.Start(context.Background()))
	c.Close()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Close")
	}
	assert.Equal(t, 1, r.stream(0).Stops())
}
