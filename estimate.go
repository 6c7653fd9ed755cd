package shelfscan

import (
	"fmt"
	"strings"
	"unicode/utf16"
)

// EstimateRating computes a deterministic offline rating in [3.0, 4.9] for
// a title/author pair. The formula is stable across releases: previously
// surfaced ratings for unseen titles must not drift.
func EstimateRating(title, author string) string {
	seed := strings.TrimSpace(strings.ToLower(title + author))

	// 32-bit signed rolling hash over UTF-16 code units, wrapping at each
	// step.
	var h int32
	for _, u := range utf16.Encode([]rune(seed)) {
		h = h*31 + int32(u)
	}

	frac := float64(abs64(int64(h))) / (1 << 31)
	return fmt.Sprintf("%.1f", 3.0+frac*1.9)
}

// PlaceholderSummary is the terminal summary used when no live provider
// resolved the request.
func PlaceholderSummary(title, author string) string {
	return fmt.Sprintf("%q by %s is a noteworthy book in its genre.", title, author)
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
