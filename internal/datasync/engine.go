package datasync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/guff/internal/metrics"
)

// Key identifies a cached remote collection.
type Key string

const (
	// KeyChatMessages is the shared chat feed. It is polled.
	KeyChatMessages Key = "chat-messages"
	// KeyMyQuestions is the caller's private Q&A list. It is refreshed only
	// by invalidation.
	KeyMyQuestions Key = "my-questions"
)

// Default polling intervals for the chat feed.
const (
	DefaultPollVisible = 3 * time.Second
	DefaultPollHidden  = 10 * time.Second
)

// PollInterval is how often a polled entry is re-marked stale.
type PollInterval struct {
	Visible time.Duration
	Hidden  time.Duration
}

// CacheEntry describes the state of one cache entry.
type CacheEntry struct {
	Key           Key
	Len           int
	LastFetchedAt time.Time
	IsStale       bool
	InFlight      bool
	Subscribers   int
}

type fetchFunc func(ctx context.Context) (any, error)

// pendingFetch is the single in-flight fetch of a key. done is closed once the
// result has been applied (or discarded); err is valid after that.
type pendingFetch struct {
	done chan struct{}
	err  error
}

type subscriber struct {
	notify chan struct{} // buffered, size 1; coalesces change signals
}

type entry struct {
	key           Key
	items         any // []T of the subscribing collection
	count         int
	lastFetchedAt time.Time
	stale         bool
	err           error
	pending       *pendingFetch
	// dirty records an invalidation that arrived while a fetch was pending.
	// The landing fetch may predate the write, so one follow-up fetch runs.
	dirty     bool
	fetch     fetchFunc
	staleTime time.Duration
	subs      map[*subscriber]struct{}
}

// Engine is the data synchronization engine.
//
// Thread-safety: all methods are safe for concurrent use. Entry state is
// guarded by a single mutex; fetches run on their own goroutines.
type Engine struct {
	mu         sync.Mutex
	entries    map[Key]*entry
	polls      map[Key]PollInterval
	visible    bool
	visChanged chan struct{} // closed and replaced on every visibility change

	now          func() time.Time
	fetchTimeout time.Duration
	logger       *slog.Logger

	fetches sync.WaitGroup
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source used for LastFetchedAt and StaleTime.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithPolling polls key at the given intervals.
func WithPolling(key Key, visible, hidden time.Duration) Option {
	return func(e *Engine) {
		e.polls[key] = PollInterval{Visible: visible, Hidden: hidden}
	}
}

// WithoutPolling disables polling for key.
func WithoutPolling(key Key) Option {
	return func(e *Engine) {
		delete(e.polls, key)
	}
}

// WithFetchTimeout bounds each fetch. Zero means no bound.
func WithFetchTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.fetchTimeout = d
	}
}

// New creates an engine. By default the chat feed is polled every 3 seconds
// while visible and every 10 seconds while hidden, and the view starts out
// visible.
func New(opts ...Option) *Engine {
	e := &Engine{
		entries:    make(map[Key]*entry),
		polls:      map[Key]PollInterval{KeyChatMessages: {Visible: DefaultPollVisible, Hidden: DefaultPollHidden}},
		visible:    true,
		visChanged: make(chan struct{}),
		now:        time.Now,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Invalidate marks the entry for key stale. If the key has subscribers, a
// fetch is started unless one is already pending; a pending fetch gets one
// follow-up fetch once it lands.
func (e *Engine) Invalidate(key Key) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ent, ok := e.entries[key]
	if !ok {
		return
	}

	metrics.Invalidations.WithLabelValues(string(key), "mutation").Inc()
	ent.stale = true
	if ent.pending != nil {
		ent.dirty = true
		metrics.FetchJoins.WithLabelValues(string(key)).Inc()
		e.logger.Debug("invalidation deferred until pending fetch lands", "key", key)
		return
	}
	e.fetchIfNeededLocked(ent)
}

// SetVisible records whether the view is visible. Polling intervals switch
// immediately.
func (e *Engine) SetVisible(visible bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.visible == visible {
		return
	}
	e.visible = visible
	close(e.visChanged)
	e.visChanged = make(chan struct{})
	e.logger.Debug("visibility changed", "visible", visible)
}

// Visible reports the current visibility.
func (e *Engine) Visible() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.visible
}

// Entry returns the state of the entry for key.
func (e *Engine) Entry(key Key) (CacheEntry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ent, ok := e.entries[key]
	if !ok {
		return CacheEntry{}, false
	}
	return CacheEntry{
		Key:           ent.key,
		Len:           ent.count,
		LastFetchedAt: ent.lastFetchedAt,
		IsStale:       ent.stale,
		InFlight:      ent.pending != nil,
		Subscribers:   len(ent.subs),
	}, true
}

// Drain blocks until no fetch is running.
func (e *Engine) Drain() {
	e.fetches.Wait()
}

// entryLocked returns the entry for key, creating a stale one if needed.
func (e *Engine) entryLocked(key Key) *entry {
	ent, ok := e.entries[key]
	if !ok {
		ent = &entry{
			key:   key,
			stale: true,
			subs:  make(map[*subscriber]struct{}),
		}
		e.entries[key] = ent
	}
	return ent
}

// fetchIfNeededLocked starts a fetch when the entry is stale, subscribed and
// has no fetch pending. Caller must hold e.mu.
func (e *Engine) fetchIfNeededLocked(ent *entry) {
	if ent.fetch == nil || len(ent.subs) == 0 {
		return
	}
	if ent.pending != nil {
		metrics.FetchJoins.WithLabelValues(string(ent.key)).Inc()
		return
	}
	if !ent.stale {
		return
	}

	p := &pendingFetch{done: make(chan struct{})}
	ent.pending = p
	ent.dirty = false
	e.notifyLocked(ent)

	e.fetches.Add(1)
	go e.runFetch(ent.key, ent.fetch, p)
}

// runFetch performs one fetch and applies its result.
func (e *Engine) runFetch(key Key, fetch fetchFunc, p *pendingFetch) {
	defer e.fetches.Done()

	ctx := context.Background()
	if e.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.fetchTimeout)
		defer cancel()
	}

	e.logger.Debug("fetch started", "key", key)
	start := time.Now()
	items, err := fetch(ctx)
	metrics.FetchDuration.WithLabelValues(string(key)).Observe(time.Since(start).Seconds())

	e.mu.Lock()
	ent := e.entries[key]
	ent.pending = nil
	p.err = err

	switch {
	case len(ent.subs) == 0:
		// Nobody is left to observe this result.
		ent.stale = true
		metrics.FetchesTotal.WithLabelValues(string(key), "discarded").Inc()
		e.logger.Debug("fetch result discarded: no subscribers", "key", key)

	case err != nil:
		ent.err = err
		ent.stale = true
		metrics.FetchesTotal.WithLabelValues(string(key), "error").Inc()
		e.logger.Warn("fetch failed", "key", key, "error", err)

	default:
		ent.items = items
		ent.count = lenOf(items)
		ent.lastFetchedAt = e.now()
		ent.stale = ent.dirty
		ent.err = nil
		metrics.FetchesTotal.WithLabelValues(string(key), "ok").Inc()
		e.logger.Debug("fetch applied", "key", key, "items", ent.count)
	}

	e.notifyLocked(ent)
	if ent.dirty {
		e.fetchIfNeededLocked(ent)
	}
	e.mu.Unlock()

	close(p.done)
}

// notifyLocked signals every subscriber of ent. Caller must hold e.mu.
func (e *Engine) notifyLocked(ent *entry) {
	for sub := range ent.subs {
		select {
		case sub.notify <- struct{}{}:
		default:
		}
	}
}

// expiredLocked reports whether a fetched entry has outlived its stale time.
func (ent *entry) expiredLocked(now time.Time) bool {
	if ent.staleTime <= 0 || ent.lastFetchedAt.IsZero() {
		return false
	}
	return now.Sub(ent.lastFetchedAt) >= ent.staleTime
}
