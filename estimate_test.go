package shelfscan_test

import (
	"strconv"
	"testing"

	"github.com/shelfscan/shelfscan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Pinned values: the hash formula is a compatibility surface. If one of
// these changes, previously surfaced ratings for unseen titles drift.
func TestEstimateRating_PinnedValues(t *testing.T) {
	cases := []struct {
		title, author, want string
	}{
		{"The Martian", "Andy Weir", "4.0"},
		{"Project Hail Mary", "Andy Weir", "3.4"},
		{"Snow Crash", "Neal Stephenson", "3.7"},
		{"The Left Hand of Darkness", "Ursula K. Le Guin", "4.4"},
		{"A Random Book", "Nobody Special", "3.4"},
		{"x", "y", "3.0"},
		{"", "", "3.0"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, shelfscan.EstimateRating(c.title, c.author), "%s / %s", c.title, c.author)
	}
}

func TestEstimateRating_Deterministic(t *testing.T) {
	first := shelfscan.EstimateRating("Some Title", "Some Author")
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, shelfscan.EstimateRating("Some Title", "Some Author"))
	}
}

func TestEstimateRating_CaseAndTrimInsensitiveSeed(t *testing.T) {
	// The seed is the lowercased concatenation; case differences collapse.
	assert.Equal(t,
		shelfscan.EstimateRating("DUNE MESSIAH", "FRANK HERBERT"),
		shelfscan.EstimateRating("dune messiah", "frank herbert"))
}

func TestEstimateRating_Range(t *testing.T) {
	inputs := []string{"a", "zz", "The Brothers Karamazov", "Ulysses", "微服务设计", "Les Misérables"}
	for _, title := range inputs {
		rating := shelfscan.EstimateRating(title, "Author Name")
		value, err := strconv.ParseFloat(rating, 64)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, value, 3.0, "title %q", title)
		assert.LessOrEqual(t, value, 4.9, "title %q", title)
	}
}

func TestPlaceholderSummary(t *testing.T) {
	got := shelfscan.PlaceholderSummary("Dune", "Frank Herbert")
	assert.Equal(t, `"Dune" by Frank Herbert is a noteworthy book in its genre.`, got)
}
