package llm

import (
	"sort"
	"sync"
	"time"
)

// CooldownTracker records when models were last rate limited.
//
// The tracker stores only timestamps; callers pass the cooldown window on
// every query. Expiry is computed on read, Cleanup only bounds memory.
type CooldownTracker struct {
	Clock func() time.Time

	mu      sync.RWMutex
	limited map[string]time.Time
}

// CooldownEntry is a point-in-time view of one tracked model.
type CooldownEntry struct {
	Model     string        `json:"model" yaml:"model"`
	LimitedAt time.Time     `json:"limited_at" yaml:"limited_at"`
	Remaining time.Duration `json:"remaining" yaml:"remaining"`
}

// NewCooldownTracker returns an empty tracker using the wall clock.
func NewCooldownTracker() *CooldownTracker {
	return &CooldownTracker{limited: make(map[string]time.Time)}
}

// Record marks model as limited now, replacing any earlier mark.
func (t *CooldownTracker) Record(model string) {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.limited == nil {
		t.limited = make(map[string]time.Time)
	}
	t.limited[model] = now
}

// IsRateLimited reports whether model was recorded less than cooldown ago.
func (t *CooldownTracker) IsRateLimited(model string, cooldown time.Duration) bool {
	return t.Remaining(model, cooldown) > 0
}

// Remaining returns how much of the cooldown window is left for model, or 0.
func (t *CooldownTracker) Remaining(model string, cooldown time.Duration) time.Duration {
	if t == nil {
		return 0
	}

	t.mu.RLock()
	limitedAt, ok := t.limited[model]
	t.mu.RUnlock()
	if !ok {
		return 0
	}

	elapsed := t.now().Sub(limitedAt)
	if elapsed >= cooldown {
		return 0
	}
	return cooldown - elapsed
}

// Cleanup drops every entry whose cooldown has elapsed and returns how many were removed.
func (t *CooldownTracker) Cleanup(cooldown time.Duration) int {
	if t == nil {
		return 0
	}
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()
	removed := 0
	for model, limitedAt := range t.limited {
		if now.Sub(limitedAt) >= cooldown {
			delete(t.limited, model)
			removed++
		}
	}
	return removed
}

// Clear forgets model. It reports whether an entry existed.
func (t *CooldownTracker) Clear(model string) bool {
	if t == nil {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.limited[model]; !ok {
		return false
	}
	delete(t.limited, model)
	return true
}

// Len returns the number of tracked entries, expired or not.
func (t *CooldownTracker) Len() int {
	if t == nil {
		return 0
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.limited)
}

// Snapshot lists models still inside cooldown, sorted by model.
func (t *CooldownTracker) Snapshot(cooldown time.Duration) []CooldownEntry {
	if t == nil {
		return nil
	}
	now := t.now()

	t.mu.RLock()
	entries := make([]CooldownEntry, 0, len(t.limited))
	for model, limitedAt := range t.limited {
		elapsed := now.Sub(limitedAt)
		if elapsed >= cooldown {
			continue
		}
		entries = append(entries, CooldownEntry{
			Model:     model,
			LimitedAt: limitedAt,
			Remaining: cooldown - elapsed,
		})
	}
	t.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Model < entries[j].Model
	})
	return entries
}

func (t *CooldownTracker) now() time.Time {
	if t != nil && t.Clock != nil {
		return t.Clock()
	}
	return time.Now()
}
