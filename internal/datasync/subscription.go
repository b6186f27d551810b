package datasync

import (
	"context"
	"reflect"
	"slices"
	"time"
)

// Collection describes one keyed remote collection.
type Collection[T any] struct {
	Key Key

	// Fetch loads the collection from the backend.
	Fetch func(ctx context.Context) ([]T, error)

	// Compare orders items after every fetch (stable). Nil keeps backend order.
	Compare func(a, b T) int

	// StaleTime, if positive, makes a fetched entry stale once it is older
	// than this when a new subscription arrives.
	StaleTime time.Duration
}

// Snapshot is a point-in-time view of a subscribed collection.
type Snapshot[T any] struct {
	Items         []T
	IsLoading     bool // no data yet and a fetch is pending
	IsFetching    bool // a fetch is pending
	IsStale       bool
	Err           error // last fetch error, cleared by the next success
	LastFetchedAt time.Time
}

// Subscription is a live read of one collection.
//
// All subscriptions of a key must use the same item type T.
type Subscription[T any] struct {
	engine *Engine
	key    Key
	sub    *subscriber
}

// Subscribe registers a subscription to c and triggers a fetch if the entry is
// missing, stale or expired and no fetch is pending. The latest subscription's
// Fetch and Compare are used for subsequent fetches of the key.
func Subscribe[T any](e *Engine, c Collection[T]) *Subscription[T] {
	fetch := func(ctx context.Context) (any, error) {
		items, err := c.Fetch(ctx)
		if err != nil {
			return nil, err
		}
		items = slices.Clone(items)
		if c.Compare != nil {
			slices.SortStableFunc(items, c.Compare)
		}
		return items, nil
	}

	sub := &subscriber{notify: make(chan struct{}, 1)}

	e.mu.Lock()
	ent := e.entryLocked(c.Key)
	ent.fetch = fetch
	ent.staleTime = c.StaleTime
	ent.subs[sub] = struct{}{}
	if ent.expiredLocked(e.now()) {
		ent.stale = true
	}
	e.fetchIfNeededLocked(ent)
	e.mu.Unlock()

	return &Subscription[T]{engine: e, key: c.Key, sub: sub}
}

// Key returns the subscribed collection key.
func (s *Subscription[T]) Key() Key {
	return s.key
}

// Snapshot returns the current view. Items is a copy; changing it does not
// affect the cache.
func (s *Subscription[T]) Snapshot() Snapshot[T] {
	e := s.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	ent, ok := e.entries[s.key]
	if !ok {
		return Snapshot[T]{}
	}

	items, _ := ent.items.([]T)
	return Snapshot[T]{
		Items:         slices.Clone(items),
		IsLoading:     ent.pending != nil && ent.lastFetchedAt.IsZero(),
		IsFetching:    ent.pending != nil,
		IsStale:       ent.stale,
		Err:           ent.err,
		LastFetchedAt: ent.lastFetchedAt,
	}
}

// Changes signals after the entry changed. Signals coalesce: one receive may
// stand for several changes, so read Snapshot after each.
func (s *Subscription[T]) Changes() <-chan struct{} {
	return s.sub.notify
}

// Wait blocks until the pending fetch of the key, if any, has been applied
// and returns its error. With nothing pending it returns the last fetch error.
func (s *Subscription[T]) Wait(ctx context.Context) error {
	e := s.engine
	e.mu.Lock()
	ent, ok := e.entries[s.key]
	if !ok {
		e.mu.Unlock()
		return nil
	}
	p := ent.pending
	lastErr := ent.err
	e.mu.Unlock()

	if p == nil {
		return lastErr
	}

	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close unregisters the subscription. A fetch still pending for the key is
// discarded when it lands if no other subscriber remains. Close is idempotent.
func (s *Subscription[T]) Close() {
	e := s.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	if ent, ok := e.entries[s.key]; ok {
		delete(ent.subs, s.sub)
	}
}

// lenOf returns the length of a slice held in an interface.
func lenOf(items any) int {
	if items == nil {
		return 0
	}
	v := reflect.ValueOf(items)
	if v.Kind() != reflect.Slice {
		return 0
	}
	return v.Len()
}
