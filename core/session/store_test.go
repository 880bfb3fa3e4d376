package session

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestSetThenGetWithinTTL(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(5*time.Minute, WithClock(clock.Now))

	states := []State{ImageMenu(), ImageService("3"), AwaitingCommand("#tner")}
	for i, st := range states {
		user := fmt.Sprintf("u%d", i)
		s.Set(user, st)
		clock.Advance(5 * time.Minute)

		got, ok := s.Get(user)
		require.True(t, ok, "state %s should still be live at exactly TTL", st)
		assert.Equal(t, st, got)
	}
}

func TestGetAfterTTLEvicts(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(5*time.Minute, WithClock(clock.Now))

	s.Set("u1", AwaitingCommand("#g2p"))
	clock.Advance(5*time.Minute + time.Second)

	_, ok := s.Get("u1")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len(), "stale entry must be removed on read")
}

func TestHasSharesExpiry(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(time.Minute, WithClock(clock.Now))

	s.Set("u1", ImageMenu())
	assert.True(t, s.Has("u1"))

	clock.Advance(2 * time.Minute)
	assert.False(t, s.Has("u1"))
	assert.Equal(t, 0, s.Len())
}

func TestSetRefreshesTimestamp(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(time.Minute, WithClock(clock.Now))

	s.Set("u1", ImageMenu())
	clock.Advance(50 * time.Second)
	s.Set("u1", ImageService("1"))
	clock.Advance(50 * time.Second)

	got, ok := s.Get("u1")
	require.True(t, ok)
	assert.Equal(t, ImageService("1"), got)
}

func TestClearIsIdempotent(t *testing.T) {
	s := NewStore(time.Minute)
	s.Clear("missing")
	s.Set("u1", ImageMenu())
	s.Clear("u1")
	s.Clear("u1")
	assert.False(t, s.Has("u1"))
}

func TestTakeConsumesOnce(t *testing.T) {
	s := NewStore(time.Minute)
	s.Set("u1", AwaitingCommand("#tner"))

	var winners atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := s.Take("u1"); ok {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
	assert.False(t, s.Has("u1"))
}

func TestTakeIgnoresStale(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(time.Minute, WithClock(clock.Now))
	s.Set("u1", AwaitingCommand("#tner"))
	clock.Advance(time.Hour)

	_, ok := s.Take("u1")
	assert.False(t, ok)
}

func TestSweep(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(time.Minute, WithClock(clock.Now))
	s.Set("old", ImageMenu())
	clock.Advance(2 * time.Minute)
	s.Set("fresh", ImageMenu())

	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 1, s.Len())
	assert.True(t, s.Has("fresh"))
}

func TestConcurrentExpiryIsAtomic(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(time.Minute, WithClock(clock.Now))
	s.Set("u1", ImageMenu())
	clock.Advance(2 * time.Minute)

	var live atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Has("u1") {
				live.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Zero(t, live.Load())
}

func TestStateLabel(t *testing.T) {
	assert.Equal(t, "image_menu", ImageMenu().Label())
	assert.Equal(t, "image_4", ImageService("4").Label())
	assert.Equal(t, "awaiting_#tner", AwaitingCommand("#tner").Label())
	assert.Equal(t, "none", State{}.Label())
	assert.True(t, ImageService("1").IsImage())
	assert.False(t, AwaitingCommand("#g2p").IsImage())
}

func TestTakeKindLeavesOtherStates(t *testing.T) {
	s := NewStore(time.Minute)
	s.Set("u1", ImageMenu())

	_, ok := s.TakeKind("u1", KindAwaitingCommand)
	assert.False(t, ok)
	assert.True(t, s.Has("u1"))

	st, ok := s.TakeKind("u1", KindImageMenu)
	assert.True(t, ok)
	assert.Equal(t, ImageMenu(), st)
	assert.False(t, s.Has("u1"))
}
