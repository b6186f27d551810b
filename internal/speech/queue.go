package speech

import "sync"

// queue is a thread-safe FIFO of engine events.
//
// The queue is unbounded so platform callbacks never block the goroutine
// that delivers them. Only the engine's Run loop dequeues.
//
// The queue uses a channel for signaling to enable context-aware waiting
// in the Run loop.
type queue[E any] struct {
	mu     sync.Mutex
	events []E
	closed bool
	signal chan struct{} // Signals event availability (buffered, size 1)
}

func newQueue[E any]() *queue[E] {
	return &queue[E]{
		events: make([]E, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an event to the back of the queue.
// Returns false if the queue is closed.
func (q *queue[E]) Enqueue(e E) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.events = append(q.events, e)

	// Non-blocking; the buffer of 1 coalesces multiple signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes the front event without blocking.
// Returns false if the queue is empty.
func (q *queue[E]) TryDequeue() (E, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero E
	if len(q.events) == 0 {
		return zero, false
	}

	e := q.events[0]
	// Clear the slot so the backing array does not pin reply channels.
	q.events[0] = zero

	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}

	return e, true
}

// Wait returns a channel that signals when events may be available.
// The channel is closed once the queue is closed; receivers should check
// the second value:
//
//	select {
//	case <-ctx.Done():
//	    return ctx.Err()
//	case _, open := <-q.Wait():
//	    // drain with TryDequeue; stop when !open
//	}
func (q *queue[E]) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *queue[E]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close rejects further events and wakes the waiter. Queued events stay
// available to TryDequeue. Close is idempotent.
func (q *queue[E]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
