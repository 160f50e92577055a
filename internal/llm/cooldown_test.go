package llm

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
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

func newTestTracker(clock *fakeClock) *CooldownTracker {
	tracker := NewCooldownTracker()
	tracker.Clock = clock.Now
	return tracker
}

func TestIsRateLimitedFalseBeforeRecord(t *testing.T) {
	tracker := newTestTracker(newFakeClock())
	require.False(t, tracker.IsRateLimited("gpt-4", time.Minute))
}

func TestIsRateLimitedWindowBoundary(t *testing.T) {
	clock := newFakeClock()
	tracker := newTestTracker(clock)

	tracker.Record("openai/gpt-4")
	require.True(t, tracker.IsRateLimited("openai/gpt-4", time.Minute))

	clock.Advance(time.Minute - time.Nanosecond)
	require.True(t, tracker.IsRateLimited("openai/gpt-4", time.Minute))

	clock.Advance(time.Nanosecond)
	require.False(t, tracker.IsRateLimited("openai/gpt-4", time.Minute))
}

func TestZeroCooldownIsNeverLimited(t *testing.T) {
	tracker := newTestTracker(newFakeClock())
	tracker.Record("m")
	require.False(t, tracker.IsRateLimited("m", 0))
}

func TestRecordRefreshesTimestamp(t *testing.T) {
	clock := newFakeClock()
	tracker := newTestTracker(clock)

	tracker.Record("m")
	clock.Advance(50 * time.Second)
	tracker.Record("m")
	clock.Advance(50 * time.Second)

	require.True(t, tracker.IsRateLimited("m", time.Minute))
	require.Equal(t, 10*time.Second, tracker.Remaining("m", time.Minute))
}

func TestIsRateLimitedDoesNotMutate(t *testing.T) {
	clock := newFakeClock()
	tracker := newTestTracker(clock)
	tracker.Record("m")
	clock.Advance(2 * time.Minute)

	require.False(t, tracker.IsRateLimited("m", time.Minute))
	require.Equal(t, 1, tracker.Len())
	require.True(t, tracker.IsRateLimited("m", time.Hour))
}

func TestCleanupRemovesOnlyExpired(t *testing.T) {
	clock := newFakeClock()
	tracker := newTestTracker(clock)

	tracker.Record("old")
	clock.Advance(30 * time.Second)
	tracker.Record("edge")
	clock.Advance(30 * time.Second)
	tracker.Record("fresh")

	// old: 60s elapsed, edge: 30s, fresh: 0s.
	removed := tracker.Cleanup(30 * time.Second)
	require.Equal(t, 2, removed)
	require.Equal(t, 1, tracker.Len())
	require.True(t, tracker.IsRateLimited("fresh", 30*time.Second))
	require.False(t, tracker.IsRateLimited("edge", time.Hour))
	require.False(t, tracker.IsRateLimited("old", time.Hour))
}

func TestCleanupOnEmptyTracker(t *testing.T) {
	tracker := NewCooldownTracker()
	require.Zero(t, tracker.Cleanup(time.Minute))
}

func TestClearForgetsModel(t *testing.T) {
	tracker := newTestTracker(newFakeClock())
	tracker.Record("m")

	require.True(t, tracker.Clear("m"))
	require.False(t, tracker.Clear("m"))
	require.False(t, tracker.IsRateLimited("m", time.Hour))
}

func TestSnapshotSkipsExpiredAndSorts(t *testing.T) {
	clock := newFakeClock()
	tracker := newTestTracker(clock)

	tracker.Record("zeta")
	clock.Advance(2 * time.Minute)
	tracker.Record("beta")
	tracker.Record("alpha")
	clock.Advance(10 * time.Second)

	entries := tracker.Snapshot(time.Minute)
	require.Len(t, entries, 2)
	require.Equal(t, "alpha", entries[0].Model)
	require.Equal(t, "beta", entries[1].Model)
	require.Equal(t, 50*time.Second, entries[0].Remaining)
}

func TestZeroValueTrackerIsUsable(t *testing.T) {
	var tracker CooldownTracker
	tracker.Record("m")
	require.True(t, tracker.IsRateLimited("m", time.Hour))
}

func TestNilTrackerIsSafe(t *testing.T) {
	var tracker *CooldownTracker
	require.False(t, tracker.IsRateLimited("m", time.Minute))
	require.Zero(t, tracker.Cleanup(time.Minute))
	require.False(t, tracker.Clear("m"))
	require.Zero(t, tracker.Len())
	require.Nil(t, tracker.Snapshot(time.Minute))
}

func TestConcurrentRecordDistinctModels(t *testing.T) {
	tracker := NewCooldownTracker()

	const workers = 16
	const perWorker = 64
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				model := fmt.Sprintf("model-%d-%d", w, i)
				tracker.Record(model)
				_ = tracker.IsRateLimited(model, time.Hour)
			}
		}(w)
	}
	wg.Wait()

	require.Equal(t, workers*perWorker, tracker.Len())
	for w := 0; w < workers; w++ {
		for i := 0; i < perWorker; i++ {
			require.True(t, tracker.IsRateLimited(fmt.Sprintf("model-%d-%d", w, i), time.Hour))
		}
	}
}
