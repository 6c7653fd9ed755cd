package shelfscan

import "context"

// QuotaTracker gates provider admissions per key.
type QuotaTracker interface {
	// Allow performs an atomic check-and-increment for the key's current
	// window. It returns true when the attempt is admitted; on false the
	// window count is unchanged.
	Allow(ctx context.Context, key ProviderKey) (bool, error)

	// Remaining returns the admissions left in the key's current window.
	Remaining(ctx context.Context, key ProviderKey) (int, error)
}

// noopTracker admits everything (no limits).
type noopTracker struct{}

func (noopTracker) Allow(context.Context, ProviderKey) (bool, error)    { return true, nil }
func (noopTracker) Remaining(context.Context, ProviderKey) (int, error) { return 0, nil }
