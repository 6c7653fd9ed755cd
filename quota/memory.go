package quota

import (
	"context"
	"sync"
	"time"

	"github.com/shelfscan/shelfscan"
)

// MemoryTracker is an in-memory fixed-window quota tracker. State lives for
// the process lifetime only; quota resets on restart.
type MemoryTracker struct {
	mu      sync.Mutex
	limits  map[shelfscan.ProviderKey]shelfscan.QuotaLimit
	buckets map[shelfscan.ProviderKey]*bucket
	now     func() time.Time
}

type bucket struct {
	windowStart time.Time
	count       int
}

var _ shelfscan.QuotaTracker = (*MemoryTracker)(nil)

// Option configures a MemoryTracker.
type Option func(*MemoryTracker)

// WithClock sets the time source. Used by tests to drive window expiry.
func WithClock(now func() time.Time) Option {
	return func(t *MemoryTracker) { t.now = now }
}

// NewMemoryTracker creates a tracker with the given per-key limits.
// Keys without a configured limit are unlimited.
func NewMemoryTracker(limits map[shelfscan.ProviderKey]shelfscan.QuotaLimit, opts ...Option) *MemoryTracker {
	t := &MemoryTracker{
		limits:  make(map[shelfscan.ProviderKey]shelfscan.QuotaLimit, len(limits)),
		buckets: make(map[shelfscan.ProviderKey]*bucket),
		now:     time.Now,
	}
	for k, l := range limits {
		t.limits[k] = l
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Allow performs the atomic check-and-increment for a key. A new window
// starts lazily on the first call at or after windowStart + window length.
func (t *MemoryTracker) Allow(_ context.Context, key shelfscan.ProviderKey) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	limit, ok := t.limits[key]
	if !ok {
		return true, nil
	}

	b := t.roll(key, limit)
	if b.count >= limit.Limit {
		return false, nil
	}
	b.count++
	return true, nil
}

// Remaining returns the admissions left in the key's current window.
func (t *MemoryTracker) Remaining(_ context.Context, key shelfscan.ProviderKey) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	limit, ok := t.limits[key]
	if !ok {
		return 0, nil
	}

	b := t.roll(key, limit)
	remaining := limit.Limit - b.count
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// roll returns the bucket for key, starting a fresh window if none exists
// or the current one has elapsed. Must be called with the lock held.
func (t *MemoryTracker) roll(key shelfscan.ProviderKey, limit shelfscan.QuotaLimit) *bucket {
	now := t.now()

	b, ok := t.buckets[key]
	if !ok {
		b = &bucket{windowStart: now}
		t.buckets[key] = b
		return b
	}

	if limit.Window > 0 && !now.Before(b.windowStart.Add(limit.Window)) {
		b.windowStart = now
		b.count = 0
	}
	return b
}
