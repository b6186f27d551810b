package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/roach88/guff/internal/speech"
	"github.com/roach88/guff/internal/testutil"
)

// DefaultEventTimeout bounds how long a step waits for the engine to handle
// an injected callback.
const DefaultEventTimeout = 2 * time.Second

// Harness runs scenarios.
type Harness struct {
	logger  *slog.Logger
	timeout time.Duration
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger handed to the engines. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// WithEventTimeout sets how long a step waits for a callback to be handled.
func WithEventTimeout(d time.Duration) Option {
	return func(h *Harness) {
		h.timeout = d
	}
}

// New creates a Harness.
func New(opts ...Option) *Harness {
	h := &Harness{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
		timeout: DefaultEventTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario with a default Harness.
func Run(ctx context.Context, s *Scenario) (*Result, error) {
	return New().Run(ctx, s)
}

// Run executes a scenario and returns the result.
//
// Each run uses a fresh engine and scripted platform. A returned error means
// the scenario could not be carried out (e.g. a callback was never handled);
// failed expectations are reported in the Result instead.
func (h *Harness) Run(ctx context.Context, s *Scenario) (*Result, error) {
	var (
		res *Result
		err error
	)
	switch s.Engine {
	case EngineCapture:
		res, err = h.runCapture(ctx, s)
	case EnginePlayback:
		res, err = h.runPlayback(ctx, s)
	default:
		return nil, fmt.Errorf("unknown engine %q", s.Engine)
	}
	if err != nil {
		return nil, err
	}

	for _, msg := range EvaluateAssertions(res, s.Assertions) {
		res.AddError(msg)
	}
	return res, nil
}

func (h *Harness) runCapture(ctx context.Context, s *Scenario) (*Result, error) {
	rec := &scriptedRecognizer{}
	defer rec.closeAll()

	var platform speech.Recognizer
	if !s.Unsupported {
		platform = rec
	}
	c := speech.NewCapture(platform,
		speech.WithLang(s.lang()),
		speech.WithStopGrace(0),
		speech.WithSessionIDs(testutil.NewSequenceIDs("session")),
		speech.WithCaptureLogger(h.logger),
	)

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	res := NewResult(s)
	stepErr := h.captureSteps(ctx, s, c, rec, res)

	c.Close()
	<-done

	final := c.Snapshot()
	res.Final = describeCapture(final)
	res.final = captureView(final)
	res.Platform = rec.calls()
	return res, stepErr
}

func (h *Harness) captureSteps(ctx context.Context, s *Scenario, c *speech.Capture, rec *scriptedRecognizer, res *Result) error {
	for i, step := range s.Steps {
		seq := i + 1

		if step.Do != "" {
			if step.Fail != "" {
				rec.failNext(step.Fail)
			}
			var err error
			switch step.Do {
			case "start":
				err = c.Start(ctx)
			case "stop":
				err = c.Stop(ctx)
			}

			outcome := outcomeOf(err)
			snap := c.Snapshot()
			res.addStep(seq, commandAction(step), outcome, describeCapture(snap))
			checkExpect(res, fmt.Sprintf("step %d", seq), step.Expect, outcome, captureView(snap))
			continue
		}

		stream, n, err := rec.stream(step.Session)
		if err != nil {
			return fmt.Errorf("step %d: %w", seq, err)
		}

		before := c.Snapshot().Processed
		switch step.Emit {
		case "result":
			segs := make([]speech.Segment, len(step.Results))
			for j, r := range step.Results {
				segs[j] = speech.Segment{Text: r.Text, Final: r.Final}
			}
			err = stream.send(speech.RecognitionEvent{Kind: speech.RecognitionResult, ResultIndex: step.Index, Results: segs})
		case "error":
			err = stream.send(speech.RecognitionEvent{Kind: speech.RecognitionError, Error: step.Code})
		case "end":
			err = stream.send(speech.RecognitionEvent{Kind: speech.RecognitionEnd})
		case "close":
			if !stream.close() {
				err = errors.New("recognition stream already closed")
			}
		}
		if err != nil {
			return fmt.Errorf("step %d: %w", seq, err)
		}

		count := func() uint64 { return c.Snapshot().Processed }
		if err := h.awaitHandled(ctx, c.Changes(), count, before); err != nil {
			return fmt.Errorf("step %d: %w", seq, err)
		}
		snap := c.Snapshot()
		res.addStep(seq, emitAction("s", n, step), "", describeCapture(snap))
		checkExpect(res, fmt.Sprintf("step %d", seq), step.Expect, "", captureView(snap))
	}
	return nil
}

func (h *Harness) runPlayback(ctx context.Context, s *Scenario) (*Result, error) {
	voices := make([]speech.Voice, len(s.Voices))
	for i, v := range s.Voices {
		voices[i] = speech.Voice{Name: v.Name, Lang: v.Lang, Default: v.Default}
	}
	synth := &scriptedSynth{voices: voices}
	defer synth.closeAll()

	tag, err := language.Parse(s.lang())
	if err != nil {
		return nil, fmt.Errorf("scenario lang: %w", err)
	}

	var platform speech.Synthesizer
	if !s.Unsupported {
		platform = synth
	}
	p := speech.NewPlayback(platform,
		speech.WithVoiceLang(tag),
		speech.WithUtteranceIDs(testutil.NewSequenceIDs("utterance")),
		speech.WithPlaybackLogger(h.logger),
	)

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	res := NewResult(s)
	stepErr := h.playbackSteps(ctx, s, p, synth, res)

	p.Close()
	<-done

	final := p.Snapshot()
	res.Final = describePlayback(final)
	res.final = playbackView(final)
	res.Platform = synth.calls()
	return res, stepErr
}

func (h *Harness) playbackSteps(ctx context.Context, s *Scenario, p *speech.Playback, synth *scriptedSynth, res *Result) error {
	for i, step := range s.Steps {
		seq := i + 1

		if step.Do != "" {
			if step.Fail != "" {
				synth.failNext(step.Fail)
			}
			var err error
			switch step.Do {
			case "speak":
				err = p.Speak(ctx, step.Text)
			case "stop":
				err = p.Stop(ctx)
			}

			outcome := outcomeOf(err)
			snap := p.Snapshot()
			res.addStep(seq, commandAction(step), outcome, describePlayback(snap))
			checkExpect(res, fmt.Sprintf("step %d", seq), step.Expect, outcome, playbackView(snap))
			continue
		}

		utt, n, err := synth.utterance(step.Session)
		if err != nil {
			return fmt.Errorf("step %d: %w", seq, err)
		}

		before := p.Snapshot().Processed
		switch step.Emit {
		case "start":
			err = utt.send(speech.UtteranceEvent{Kind: speech.UtteranceStart})
		case "end":
			err = utt.send(speech.UtteranceEvent{Kind: speech.UtteranceEnd})
		case "error":
			err = utt.send(speech.UtteranceEvent{Kind: speech.UtteranceError, Error: step.Code})
		case "close":
			if !utt.close() {
				err = errors.New("utterance already closed")
			}
		}
		if err != nil {
			return fmt.Errorf("step %d: %w", seq, err)
		}

		count := func() uint64 { return p.Snapshot().Processed }
		if err := h.awaitHandled(ctx, p.Changes(), count, before); err != nil {
			return fmt.Errorf("step %d: %w", seq, err)
		}
		snap := p.Snapshot()
		res.addStep(seq, emitAction("u", n, step), "", describePlayback(snap))
		checkExpect(res, fmt.Sprintf("step %d", seq), step.Expect, "", playbackView(snap))
	}
	return nil
}

// awaitHandled waits until count exceeds before.
func (h *Harness) awaitHandled(ctx context.Context, changes <-chan struct{}, count func() uint64, before uint64) error {
	timer := time.NewTimer(h.timeout)
	defer timer.Stop()

	for count() <= before {
		select {
		case <-changes:
		case <-timer.C:
			return fmt.Errorf("engine did not handle the callback within %s", h.timeout)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// outcomeOf names a command's result.
func outcomeOf(err error) string {
	var (
		capErr  *speech.CaptureError
		playErr *speech.PlaybackError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, speech.ErrAlreadyListening):
		return "already-listening"
	case errors.Is(err, speech.ErrClosed):
		return "closed"
	case errors.As(err, &capErr):
		return string(capErr.Reason)
	case errors.As(err, &playErr):
		return string(playErr.Reason)
	default:
		return err.Error()
	}
}

func commandAction(step Step) string {
	action := step.Do
	if step.Do == "speak" {
		action += fmt.Sprintf(" %q", step.Text)
	}
	if step.Fail != "" {
		action += fmt.Sprintf(" (platform fails: %s)", step.Fail)
	}
	return action
}

func emitAction(prefix string, n int, step Step) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s%d %s", prefix, n, step.Emit)
	switch step.Emit {
	case "result":
		fmt.Fprintf(&b, " index=%d", step.Index)
		for _, r := range step.Results {
			fmt.Fprintf(&b, " %q", r.Text)
			if r.Final {
				b.WriteString("(final)")
			}
		}
	case "error":
		fmt.Fprintf(&b, " code=%s", step.Code)
	}
	return b.String()
}
