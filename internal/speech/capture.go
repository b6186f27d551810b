package speech

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/roach88/guff/internal/metrics"
)

// DefaultStopGrace is how long Stop waits for the platform to acknowledge
// before forcing the session to end.
const DefaultStopGrace = 2 * time.Second

// CaptureSnapshot is the observable state of a Capture.
type CaptureSnapshot struct {
	State       State
	SessionID   string
	Accumulated string // finalized text, each segment followed by a space
	Interim     string // live, not yet finalized text
	Stopping    bool   // Stop was requested and is not yet acknowledged
	Err         *CaptureError
	// Processed counts handled events. It only grows.
	Processed uint64
}

// Transcript returns the finalized text followed by the live interim text.
func (s CaptureSnapshot) Transcript() string {
	return s.Accumulated + s.Interim
}

// Listening reports whether a session is capturing speech.
func (s CaptureSnapshot) Listening() bool {
	return s.State == StateListening
}

type captureEventKind int

const (
	capStart captureEventKind = iota + 1
	capStop
	capRecognition
	capStreamClosed
	capStopTimeout
)

type captureEvent struct {
	kind  captureEventKind
	gen   uint64
	rec   RecognitionEvent
	reply chan error
}

// Capture is the speech capture engine.
//
// Thread-safety: Start, Stop, Snapshot and Changes are safe for concurrent
// use. Run must be called exactly once; it owns all session state.
type Capture struct {
	recognizer Recognizer
	config     RecognitionConfig
	ids        IDGenerator
	stopGrace  time.Duration
	logger     *slog.Logger

	queue *queue[captureEvent]

	// Owned by the Run goroutine.
	gen       uint64
	stream    RecognitionStream
	stopTimer *time.Timer
	cur       CaptureSnapshot

	mu      sync.RWMutex
	snap    CaptureSnapshot
	changes chan struct{}
}

// CaptureOption configures a Capture.
type CaptureOption func(*Capture)

// WithLang sets the recognition locale. The default is ne-NP.
func WithLang(lang string) CaptureOption {
	return func(c *Capture) {
		c.config.Lang = lang
	}
}

// WithStopGrace sets how long Stop waits for the platform's end event.
// Zero or negative waits indefinitely.
func WithStopGrace(d time.Duration) CaptureOption {
	return func(c *Capture) {
		c.stopGrace = d
	}
}

// WithSessionIDs sets the session ID generator.
func WithSessionIDs(ids IDGenerator) CaptureOption {
	return func(c *Capture) {
		c.ids = ids
	}
}

// WithCaptureLogger sets the logger.
func WithCaptureLogger(l *slog.Logger) CaptureOption {
	return func(c *Capture) {
		c.logger = l
	}
}

// NewCapture creates a capture engine. A nil recognizer means the platform
// has no speech recognition.
func NewCapture(r Recognizer, opts ...CaptureOption) *Capture {
	c := &Capture{
		recognizer: r,
		config: RecognitionConfig{
			Lang:           DefaultLang,
			Continuous:     true,
			InterimResults: true,
		},
		ids:       UUIDv7Generator{},
		stopGrace: DefaultStopGrace,
		logger:    slog.Default(),
		queue:     newQueue[captureEvent](),
		changes:   make(chan struct{}, 1),
	}
	c.cur.State = StateIdle
	c.snap = c.cur

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Supported reports whether the platform offers speech recognition.
func (c *Capture) Supported() bool {
	return c.recognizer != nil
}

// Start opens a new recognition session and clears the transcript. It is
// valid from Idle and Error; while listening it returns ErrAlreadyListening
// and changes nothing. Without a recognizer it returns ErrUnsupported.
func (c *Capture) Start(ctx context.Context) error {
	return c.submit(ctx, captureEvent{kind: capStart})
}

// Stop asks the live session to end. The engine returns to Idle when the
// platform acknowledges, or after the stop grace period. From Idle it is a
// no-op.
func (c *Capture) Stop(ctx context.Context) error {
	return c.submit(ctx, captureEvent{kind: capStop})
}

// Snapshot returns the current state.
func (c *Capture) Snapshot() CaptureSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Changes signals after the state changed. Signals coalesce.
func (c *Capture) Changes() <-chan struct{} {
	return c.changes
}

// Close stops accepting commands. Run tears down any live session and
// returns.
func (c *Capture) Close() {
	c.queue.Close()
}

// Run processes events until ctx is cancelled or Close is called, then
// stops any live stream.
func (c *Capture) Run(ctx context.Context) error {
	c.logger.Debug("speech capture starting")
	defer c.teardown()

	for {
		if ev, ok := c.queue.TryDequeue(); ok {
			c.handle(ctx, ev)
			continue
		}

		select {
		case <-ctx.Done():
			c.queue.Close()
			return ctx.Err()
		case _, open := <-c.queue.Wait():
			if !open && c.queue.Len() == 0 {
				return nil
			}
		}
	}
}

func (c *Capture) submit(ctx context.Context, ev captureEvent) error {
	ev.reply = make(chan error, 1)
	if !c.queue.Enqueue(ev) {
		return ErrClosed
	}

	select {
	case err := <-ev.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Capture) handle(ctx context.Context, ev captureEvent) {
	var err error

	switch ev.kind {
	case capStart:
		err = c.start(ctx)
	case capStop:
		c.stop()
	case capRecognition:
		if c.current(ev.gen) {
			c.recognition(ev.rec)
		} else {
			c.logger.Debug("dropping event of superseded session", "kind", ev.rec.Kind, "gen", ev.gen)
		}
	case capStreamClosed:
		if c.current(ev.gen) {
			c.endSession("ended")
		}
	case capStopTimeout:
		if c.current(ev.gen) && c.cur.Stopping {
			c.logger.Warn("speech capture: stop not acknowledged, forcing idle", "session", c.cur.SessionID)
			c.endSession("stop-timeout")
		}
	}

	c.cur.Processed++
	c.publish()

	if ev.reply != nil {
		ev.reply <- err
	}
}

// current reports whether gen belongs to the live session.
func (c *Capture) current(gen uint64) bool {
	return c.stream != nil && gen == c.gen
}

func (c *Capture) start(ctx context.Context) error {
	if c.recognizer == nil {
		c.cur.Err = &CaptureError{Reason: CaptureUnsupported}
		return c.cur.Err
	}
	if c.cur.State == StateListening {
		return ErrAlreadyListening
	}

	// A session still draining after an error is replaced.
	if c.stream != nil {
		c.closeStream()
		c.endSession("replaced")
	}

	stream, err := c.recognizer.Start(ctx, c.config)
	if err != nil {
		c.cur.Err = &CaptureError{Reason: CaptureGeneric, Err: err}
		c.logger.Warn("speech capture: failed to start recognition", "error", err)
		metrics.SpeechSessions.WithLabelValues("capture", "start-failed").Inc()
		return c.cur.Err
	}

	c.gen++
	c.stream = stream
	c.cur = CaptureSnapshot{
		State:     StateListening,
		SessionID: c.ids.Generate(),
		Processed: c.cur.Processed,
	}
	c.logger.Info("speech capture started", "session", c.cur.SessionID, "lang", c.config.Lang)

	go c.pump(c.gen, stream)
	return nil
}

// pump forwards stream callbacks onto the queue.
func (c *Capture) pump(gen uint64, stream RecognitionStream) {
	for ev := range stream.Events() {
		if !c.queue.Enqueue(captureEvent{kind: capRecognition, gen: gen, rec: ev}) {
			return
		}
	}
	c.queue.Enqueue(captureEvent{kind: capStreamClosed, gen: gen})
}

func (c *Capture) stop() {
	if c.stream == nil || c.cur.Stopping {
		return
	}

	c.closeStream()
	c.cur.Stopping = true

	if c.stopGrace > 0 {
		gen := c.gen
		c.stopTimer = time.AfterFunc(c.stopGrace, func() {
			c.queue.Enqueue(captureEvent{kind: capStopTimeout, gen: gen})
		})
	}
}

func (c *Capture) recognition(ev RecognitionEvent) {
	switch ev.Kind {
	case RecognitionResult:
		if c.cur.State != StateListening {
			return
		}
		var final, interim strings.Builder
		for i := max(ev.ResultIndex, 0); i < len(ev.Results); i++ {
			seg := ev.Results[i]
			if seg.Final {
				final.WriteString(seg.Text)
				final.WriteString(" ")
			} else {
				interim.WriteString(seg.Text)
			}
		}
		c.cur.Accumulated += final.String()
		c.cur.Interim = interim.String()

	case RecognitionError:
		c.cur.Err = classifyRecognitionError(ev.Error)
		c.cur.State = StateError
		c.logger.Warn("speech capture error", "session", c.cur.SessionID, "code", ev.Error, "reason", c.cur.Err.Reason)

	case RecognitionEnd:
		c.endSession("ended")
	}
}

// endSession destroys the live session. The engine always rests in Idle
// afterwards; the advisory error and transcript stay readable.
func (c *Capture) endSession(result string) {
	if c.stopTimer != nil {
		c.stopTimer.Stop()
		c.stopTimer = nil
	}
	if c.cur.State == StateError {
		result = "error"
	}

	metrics.SpeechSessions.WithLabelValues("capture", result).Inc()
	c.logger.Info("speech capture ended", "session", c.cur.SessionID, "result", result)

	c.stream = nil
	c.cur.State = StateIdle
	c.cur.Stopping = false
	c.cur.SessionID = ""
	c.cur.Accumulated += c.cur.Interim
	c.cur.Interim = ""
}

func (c *Capture) closeStream() {
	if err := c.stream.Stop(); err != nil {
		c.logger.Warn("speech capture: stopping stream", "error", err)
	}
}

// teardown stops any live stream and fails pending commands.
func (c *Capture) teardown() {
	if c.stream != nil {
		c.closeStream()
		c.endSession("torn-down")
	}

	for {
		ev, ok := c.queue.TryDequeue()
		if !ok {
			break
		}
		if ev.reply != nil {
			ev.reply <- ErrClosed
		}
	}

	c.publish()
	c.logger.Debug("speech capture stopped")
}

func (c *Capture) publish() {
	c.mu.Lock()
	c.snap = c.cur
	c.mu.Unlock()

	select {
	case c.changes <- struct{}{}:
	default:
	}
}
