package datasync

import (
	"context"
	"sync"
	"time"

	"github.com/roach88/guff/internal/metrics"
)

// Run drives the polling timers until ctx is cancelled.
//
// Each polled key gets its own timer. On every tick the entry is marked stale
// and, if it has subscribers and no pending fetch, refetched. The interval is
// re-read after every tick and whenever visibility changes.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	polls := make(map[Key]PollInterval, len(e.polls))
	for k, p := range e.polls {
		polls[k] = p
	}
	e.mu.Unlock()

	e.logger.Info("sync engine starting", "polled_keys", len(polls))

	var wg sync.WaitGroup
	for key, interval := range polls {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.poll(ctx, key, interval)
		}()
	}

	<-ctx.Done()
	wg.Wait()
	e.logger.Info("sync engine stopping: context cancelled")
	return ctx.Err()
}

func (e *Engine) poll(ctx context.Context, key Key, p PollInterval) {
	for {
		e.mu.Lock()
		interval := p.Visible
		if !e.visible {
			interval = p.Hidden
		}
		changed := e.visChanged
		e.mu.Unlock()

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-changed:
			timer.Stop()
		case <-timer.C:
			e.tick(key)
		}
	}
}

// tick marks a polled entry stale and refetches it if needed. A tick that
// finds a fetch pending does nothing: the landing fetch is fresh enough.
func (e *Engine) tick(key Key) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ent, ok := e.entries[key]
	if !ok {
		return
	}
	metrics.Invalidations.WithLabelValues(string(key), "poll").Inc()
	if ent.pending != nil {
		metrics.FetchJoins.WithLabelValues(string(key)).Inc()
		return
	}
	ent.stale = true
	e.fetchIfNeededLocked(ent)
}
