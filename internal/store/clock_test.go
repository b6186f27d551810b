package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/guff/internal/testutil"
)

func TestClock_StrictlyIncreasingWhenWallClockStalls(t *testing.T) {
	wall := testutil.NewManualClock()
	c := NewClock(wall.Now)

	first := c.Next()
	second := c.Next()

	assert.Equal(t, testutil.Epoch.UnixNano(), first)
	assert.Equal(t, first+1, second)
}

func TestClock_FollowsWallClock(t *testing.T) {
	wall := testutil.NewManualClock()
	c := NewClock(wall.Now)

	c.Next()
	wall.Advance(time.Second)

	assert.Equal(t, testutil.Epoch.Add(time.Second).UnixNano(), c.Next())
}

func TestClock_SurvivesWallClockStepBack(t *testing.T) {
	wall := testutil.NewManualClock()
	c := NewClock(wall.Now)

	before := c.Next()
	wall.Advance(-time.Hour)

	assert.Greater(t, c.Next(), before)
}

func TestClock_Observe(t *testing.T) {
	wall := testutil.NewManualClock()
	c := NewClock(wall.Now)

	future := testutil.Epoch.Add(time.Hour).UnixNano()
	c.Observe(future)
	c.Observe(future - 10)

	assert.Equal(t, future, c.Current())
	assert.Equal(t, future+1, c.Next())
}

func TestClock_ConcurrentNextIsUnique(t *testing.T) {
	wall := testutil.NewManualClock()
	c := NewClock(wall.Now)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int64]bool)
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				ts := c.Next()
				mu.Lock()
				seen[ts] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 800)
}
