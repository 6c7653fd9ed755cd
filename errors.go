package shelfscan

import (
	"errors"
	"strings"
)

// Sentinel errors returned by provider adapters and quota gates.
var (
	ErrUnconfigured        = errors.New("shelfscan: provider credential missing or invalid")
	ErrDisabled            = errors.New("shelfscan: provider disabled by configuration")
	ErrQuotaExceeded       = errors.New("shelfscan: provider quota exhausted")
	ErrMalformed           = errors.New("shelfscan: malformed provider response")
	ErrRateLimited         = errors.New("shelfscan: rate limited by provider")
	ErrProviderUnavailable = errors.New("shelfscan: provider unavailable")
)

// Classification buckets a failure for chain advancement. Every class maps
// to "advance to the next link"; none is fatal to a chain.
type Classification int

const (
	ClassUnconfigured Classification = iota
	ClassDisabled
	ClassQuotaExceeded
	ClassMalformed
	ClassProviderError
)

func (c Classification) String() string {
	switch c {
	case ClassUnconfigured:
		return "unconfigured"
	case ClassDisabled:
		return "disabled"
	case ClassQuotaExceeded:
		return "quota_exceeded"
	case ClassMalformed:
		return "malformed"
	case ClassProviderError:
		return "provider_error"
	default:
		return "unknown"
	}
}

// Classify maps an adapter or gate error onto the taxonomy. Unrecognized
// errors, including provider-reported rate limiting that escaped the typed
// adapter boundary, classify as provider errors.
func Classify(err error) Classification {
	switch {
	case errors.Is(err, ErrUnconfigured):
		return ClassUnconfigured
	case errors.Is(err, ErrDisabled):
		return ClassDisabled
	case errors.Is(err, ErrQuotaExceeded):
		return ClassQuotaExceeded
	case errors.Is(err, ErrMalformed):
		return ClassMalformed
	default:
		return ClassProviderError
	}
}

var rateLimitPhrases = []string{"rate limit", "429", "quota exceeded", "resource exhausted", "too many requests"}

// IsRateLimit reports whether an error indicates provider-side rate
// limiting, either via the typed sentinel or by message inspection for
// errors that bypassed the adapters.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, p := range rateLimitPhrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
