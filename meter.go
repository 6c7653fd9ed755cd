package shelfscan

import "time"

// Meter observes chain events for monitoring/logging. It is a side channel:
// nothing about the result contract depends on it.
type Meter interface {
	// OnAttempt is called before a provider link is invoked.
	OnAttempt(event AttemptEvent)

	// OnResult is called after each link attempt and for terminal
	// resolutions (catalog, estimator, template, empty).
	OnResult(event ResultEvent)
}

// AttemptEvent describes a provider link about to be invoked.
type AttemptEvent struct {
	RequestID string
	Operation string
	Provider  string
	Key       ProviderKey
	Attempt   int
}

// ResultEvent describes the outcome of a link attempt or a terminal
// resolution.
type ResultEvent struct {
	RequestID      string
	Operation      string
	Provider       string
	Source         Source
	Resolved       bool
	Classification Classification
	RateLimited    bool
	Duration       time.Duration
	Err            error
}
