// Package scroll decides whether a scrolling feed should follow new content.
//
// The Anchor never scrolls anything itself. It only classifies the viewport as
// "near the bottom" or "scrolled away" so that content the reader scrolled up
// to is not pulled out of view when new items arrive.
package scroll

// Threshold is the distance from the bottom, in pixels, under which the
// viewport counts as near the bottom. The bound is exclusive.
const Threshold = 100

// Anchor tracks a feed's scroll position and item count.
// The zero value is not ready for use; call NewAnchor.
type Anchor struct {
	shouldAutoScroll bool
	distance         float64
	lastCount        int
	unseen           int
}

// NewAnchor returns an anchor that starts out following the bottom.
func NewAnchor() *Anchor {
	return &Anchor{shouldAutoScroll: true}
}

// OnScroll recomputes the distance from the bottom of the feed.
func (a *Anchor) OnScroll(scrollTop, scrollHeight, viewportHeight float64) {
	a.distance = scrollHeight - scrollTop - viewportHeight
	a.shouldAutoScroll = a.distance < Threshold
	if a.shouldAutoScroll {
		a.unseen = 0
	}
}

// ShouldAutoScroll reports whether the viewport is near the bottom.
func (a *Anchor) ShouldAutoScroll() bool {
	return a.shouldAutoScroll
}

// DistanceFromBottom returns the distance computed by the last OnScroll.
func (a *Anchor) DistanceFromBottom() float64 {
	return a.distance
}

// OnItems records the current number of items in the feed and reports whether
// the consumer should bring the viewport to the bottom. That is the case when
// items were added while the viewport was near the bottom. Items added while
// scrolled away are counted as unseen instead.
func (a *Anchor) OnItems(count int) bool {
	added := count - a.lastCount
	a.lastCount = count
	if added <= 0 {
		return false
	}
	if a.shouldAutoScroll {
		a.unseen = 0
		return true
	}
	a.unseen += added
	return false
}

// Unseen returns how many items arrived while the viewport was scrolled away.
func (a *Anchor) Unseen() int {
	return a.unseen
}
