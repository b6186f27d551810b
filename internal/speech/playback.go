package speech

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/text/language"

	"github.com/roach88/guff/internal/metrics"
)

// PlaybackSnapshot is the observable state of a Playback.
type PlaybackSnapshot struct {
	State         State
	UtteranceID   string
	UtteranceText string
	Voice         string // name of the selected voice; empty for the platform default
	Err           *PlaybackError
	// Processed counts handled events. It only grows.
	Processed uint64
}

// Speaking reports whether an utterance is playing.
func (s PlaybackSnapshot) Speaking() bool {
	return s.State == StateSpeaking
}

type playbackEventKind int

const (
	playSpeak playbackEventKind = iota + 1
	playStop
	playUtterance
	playClosed
)

type playbackEvent struct {
	kind  playbackEventKind
	gen   uint64
	text  string
	utt   UtteranceEvent
	reply chan error
}

// Playback is the speech playback engine. At most one utterance is active;
// Speak cancels the previous one first.
//
// Thread-safety: Speak, Stop, Snapshot and Changes are safe for concurrent
// use. Run must be called exactly once; it owns all utterance state.
type Playback struct {
	synth  Synthesizer
	target language.Tag
	lang   string
	rate   float64
	pitch  float64
	ids    IDGenerator
	logger *slog.Logger

	queue *queue[playbackEvent]

	// Owned by the Run goroutine.
	gen    uint64
	active bool
	cur    PlaybackSnapshot

	mu      sync.RWMutex
	snap    PlaybackSnapshot
	changes chan struct{}
}

// PlaybackOption configures a Playback.
type PlaybackOption func(*Playback)

// WithVoiceLang sets the utterance locale and the voice preference. The
// default is ne-NP.
func WithVoiceLang(tag language.Tag) PlaybackOption {
	return func(p *Playback) {
		p.target = tag
		p.lang = tag.String()
	}
}

// WithProsody sets the speaking rate and pitch.
func WithProsody(rate, pitch float64) PlaybackOption {
	return func(p *Playback) {
		p.rate = rate
		p.pitch = pitch
	}
}

// WithUtteranceIDs sets the utterance ID generator.
func WithUtteranceIDs(ids IDGenerator) PlaybackOption {
	return func(p *Playback) {
		p.ids = ids
	}
}

// WithPlaybackLogger sets the logger.
func WithPlaybackLogger(l *slog.Logger) PlaybackOption {
	return func(p *Playback) {
		p.logger = l
	}
}

// NewPlayback creates a playback engine. A nil synthesizer means the
// platform has no text-to-speech.
func NewPlayback(s Synthesizer, opts ...PlaybackOption) *Playback {
	p := &Playback{
		synth:   s,
		target:  language.MustParse(DefaultLang),
		lang:    DefaultLang,
		rate:    DefaultRate,
		pitch:   DefaultPitch,
		ids:     UUIDv7Generator{},
		logger:  slog.Default(),
		queue:   newQueue[playbackEvent](),
		changes: make(chan struct{}, 1),
	}
	p.cur.State = StateIdle
	p.snap = p.cur

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Supported reports whether the platform offers text-to-speech.
func (p *Playback) Supported() bool {
	return p.synth != nil
}

// Speak cancels any current utterance and queues text. The engine moves to
// Speaking when the platform reports the utterance started. Without a
// synthesizer it returns ErrUnsupported and changes nothing.
func (p *Playback) Speak(ctx context.Context, text string) error {
	return p.submit(ctx, playbackEvent{kind: playSpeak, text: text})
}

// Stop cancels the current utterance and forces Idle. It is idempotent.
func (p *Playback) Stop(ctx context.Context) error {
	return p.submit(ctx, playbackEvent{kind: playStop})
}

// Snapshot returns the current state.
func (p *Playback) Snapshot() PlaybackSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap
}

// Changes signals after the state changed. Signals coalesce.
func (p *Playback) Changes() <-chan struct{} {
	return p.changes
}

// Close stops accepting commands. Run cancels any utterance and returns.
func (p *Playback) Close() {
	p.queue.Close()
}

// Run processes events until ctx is cancelled or Close is called, then
// cancels any utterance.
func (p *Playback) Run(ctx context.Context) error {
	p.logger.Debug("speech playback starting")
	defer p.teardown()

	for {
		if ev, ok := p.queue.TryDequeue(); ok {
			p.handle(ctx, ev)
			continue
		}

		select {
		case <-ctx.Done():
			p.queue.Close()
			return ctx.Err()
		case _, open := <-p.queue.Wait():
			if !open && p.queue.Len() == 0 {
				return nil
			}
		}
	}
}

func (p *Playback) submit(ctx context.Context, ev playbackEvent) error {
	ev.reply = make(chan error, 1)
	if !p.queue.Enqueue(ev) {
		return ErrClosed
	}

	select {
	case err := <-ev.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Playback) handle(ctx context.Context, ev playbackEvent) {
	var err error

	switch ev.kind {
	case playSpeak:
		err = p.speak(ctx, ev.text)
	case playStop:
		p.cancel("stopped")
	case playUtterance:
		if p.active && ev.gen == p.gen {
			p.utterance(ev.utt)
		}
	case playClosed:
		if p.active && ev.gen == p.gen {
			p.finish("ended")
		}
	}

	p.cur.Processed++
	p.publish()

	if ev.reply != nil {
		ev.reply <- err
	}
}

func (p *Playback) speak(ctx context.Context, text string) error {
	if p.synth == nil {
		p.cur.Err = &PlaybackError{Reason: PlaybackUnsupported}
		return p.cur.Err
	}

	p.cancel("replaced")

	u := Utterance{
		Text:  text,
		Lang:  p.lang,
		Voice: SelectVoice(p.synth.Voices(), p.target),
		Rate:  p.rate,
		Pitch: p.pitch,
	}

	pb, err := p.synth.Speak(ctx, u)
	if err != nil {
		p.cur.Err = &PlaybackError{Reason: PlaybackGeneric, Err: err}
		p.logger.Warn("speech playback: failed to queue utterance", "error", err)
		metrics.SpeechSessions.WithLabelValues("playback", "start-failed").Inc()
		return p.cur.Err
	}

	p.gen++
	p.active = true
	p.cur = PlaybackSnapshot{
		State:         StateIdle,
		UtteranceID:   p.ids.Generate(),
		UtteranceText: text,
		Processed:     p.cur.Processed,
	}
	if u.Voice != nil {
		p.cur.Voice = u.Voice.Name
	}
	p.logger.Debug("speech playback queued", "utterance", p.cur.UtteranceID, "voice", p.cur.Voice)

	go p.pump(p.gen, pb)
	return nil
}

func (p *Playback) pump(gen uint64, pb UtterancePlayback) {
	for ev := range pb.Events() {
		if !p.queue.Enqueue(playbackEvent{kind: playUtterance, gen: gen, utt: ev}) {
			return
		}
	}
	p.queue.Enqueue(playbackEvent{kind: playClosed, gen: gen})
}

func (p *Playback) utterance(ev UtteranceEvent) {
	switch ev.Kind {
	case UtteranceStart:
		p.cur.State = StateSpeaking
		p.logger.Debug("speech playback speaking", "utterance", p.cur.UtteranceID)
	case UtteranceEnd:
		p.finish("ended")
	case UtteranceError:
		p.cur.Err = &PlaybackError{Reason: PlaybackGeneric, Code: ev.Error}
		p.logger.Warn("speech playback error", "utterance", p.cur.UtteranceID, "code", ev.Error)
		p.finish("error")
	}
}

// cancel cancels the platform channel unconditionally and forces Idle.
// Callbacks of the cancelled utterance are dropped.
func (p *Playback) cancel(result string) {
	if p.synth != nil {
		p.synth.Cancel()
	}
	if p.active {
		p.finish(result)
	}
	p.gen++
	p.cur.State = StateIdle
}

func (p *Playback) finish(result string) {
	metrics.SpeechSessions.WithLabelValues("playback", result).Inc()
	p.active = false
	p.cur.State = StateIdle
	p.cur.UtteranceID = ""
	p.cur.UtteranceText = ""
	p.cur.Voice = ""
}

func (p *Playback) teardown() {
	p.cancel("torn-down")

	for {
		ev, ok := p.queue.TryDequeue()
		if !ok {
			break
		}
		if ev.reply != nil {
			ev.reply <- ErrClosed
		}
	}

	p.publish()
	p.logger.Debug("speech playback stopped")
}

func (p *Playback) publish() {
	p.mu.Lock()
	p.snap = p.cur
	p.mu.Unlock()

	select {
	case p.changes <- struct{}{}:
	default:
	}
}
