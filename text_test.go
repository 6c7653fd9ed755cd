package shelfscan_test

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shelfscan/shelfscan"
	"github.com/shelfscan/shelfscan/provider/mock"
	"github.com/shelfscan/shelfscan/quota"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textConfig() shelfscan.Config {
	return shelfscan.Config{
		GeminiAPIKey: "test-gemini-key",
		GroqAPIKey:   "test-groq-key",
	}
}

var ratingPattern = regexp.MustCompile(`^\d\.\d$`)

func TestRating_CatalogPrecedence(t *testing.T) {
	// Providers that would answer differently must never be consulted.
	primary := mock.New(mock.WithResponse("1.1"))
	secondary := mock.New(mock.WithResponse("1.2"))

	chain := shelfscan.NewTextChain(textConfig(), primary, secondary)
	ctx := context.Background()

	assert.Equal(t, "4.7", chain.Rating(ctx, "Dune", "Frank Herbert"))
	assert.Equal(t, "4.8", chain.Rating(ctx, "Atomic Habits", "James Clear"))
	assert.EqualValues(t, 0, primary.CallCount())
	assert.EqualValues(t, 0, secondary.CallCount())
}

func TestRating_CatalogPrecedence_AllProvidersDown(t *testing.T) {
	primary := mock.New(mock.WithError(shelfscan.ErrProviderUnavailable))
	secondary := mock.New(mock.WithError(shelfscan.ErrProviderUnavailable))

	chain := shelfscan.NewTextChain(textConfig(), primary, secondary)

	assert.Equal(t, "4.7", chain.Rating(context.Background(), " DUNE ", "frank herbert"))
}

func TestRating_PrimaryProvider(t *testing.T) {
	primary := mock.New(mock.WithResponse("4.2"))
	secondary := mock.New(mock.WithResponse("1.0"))

	chain := shelfscan.NewTextChain(textConfig(), primary, secondary)
	rating := chain.Rating(context.Background(), "Project Hail Mary", "Andy Weir")

	assert.Equal(t, "4.2", rating)
	assert.EqualValues(t, 1, primary.CallCount())
	assert.EqualValues(t, 0, secondary.CallCount())
}

func TestRating_PrimaryOutOfRange_SecondaryUsed(t *testing.T) {
	primary := mock.New(mock.WithResponse("9.9"))
	secondary := mock.New(mock.WithResponse("3.5"))

	chain := shelfscan.NewTextChain(textConfig(), primary, secondary)
	rating := chain.Rating(context.Background(), "Project Hail Mary", "Andy Weir")

	assert.Equal(t, "3.5", rating)
	assert.EqualValues(t, 1, primary.CallCount())
	assert.EqualValues(t, 1, secondary.CallCount())
}

func TestRating_PrimaryMalformed_SecondaryUsed(t *testing.T) {
	primary := mock.New(mock.WithResponse("it is a very good book"))
	secondary := mock.New(mock.WithResponse("4.0"))

	chain := shelfscan.NewTextChain(textConfig(), primary, secondary)

	assert.Equal(t, "4.0", chain.Rating(context.Background(), "Project Hail Mary", "Andy Weir"))
}

func TestRating_QuotaDeniedPrimary_SecondaryUsed(t *testing.T) {
	primary := mock.New(mock.WithResponse("4.9"))
	secondary := mock.New(mock.WithResponse("4.1"))

	tracker := quota.NewMemoryTracker(map[shelfscan.ProviderKey]shelfscan.QuotaLimit{
		shelfscan.KeyPrimaryText: {Limit: 0, Window: time.Hour},
	})

	chain := shelfscan.NewTextChain(textConfig(), primary, secondary,
		shelfscan.WithTextTracker(tracker))
	rating := chain.Rating(context.Background(), "Project Hail Mary", "Andy Weir")

	assert.Equal(t, "4.1", rating)
	assert.EqualValues(t, 0, primary.CallCount())
	assert.EqualValues(t, 1, secondary.CallCount())
}

func TestRating_UnconfiguredSecondary_EstimatorTerminal(t *testing.T) {
	cfg := textConfig()
	cfg.GroqAPIKey = ""

	primary := mock.New(mock.WithError(errors.New("connection reset")))
	secondary := mock.New(mock.WithResponse("5.0"))

	chain := shelfscan.NewTextChain(cfg, primary, secondary)
	rating := chain.Rating(context.Background(), "Project Hail Mary", "Andy Weir")

	assert.EqualValues(t, 0, secondary.CallCount())
	assert.Equal(t, shelfscan.EstimateRating("Project Hail Mary", "Andy Weir"), rating)
}

func TestRating_Determinism_NoProviders(t *testing.T) {
	chain := shelfscan.NewTextChain(shelfscan.Config{}, nil, nil)
	ctx := context.Background()

	first := chain.Rating(ctx, "The Martian", "Andy Weir")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, chain.Rating(ctx, "The Martian", "Andy Weir"))
	}
}

func TestRating_RangeBound_NoProviders(t *testing.T) {
	chain := shelfscan.NewTextChain(shelfscan.Config{}, nil, nil)
	ctx := context.Background()

	pairs := [][2]string{
		{"The Martian", "Andy Weir"},
		{"Snow Crash", "Neal Stephenson"},
		{"An Obscure Pamphlet", "A. Nobody"},
		{"x", "y"},
	}
	for _, p := range pairs {
		rating := chain.Rating(ctx, p[0], p[1])
		require.Regexp(t, ratingPattern, rating)

		value, err := strconv.ParseFloat(rating, 64)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, value, 3.0)
		assert.LessOrEqual(t, value, 4.9)
	}
}

func TestSummary_Live(t *testing.T) {
	primary := mock.New(mock.WithResponse("  A gripping tale of survival on Mars told through logs.  "))

	chain := shelfscan.NewTextChain(textConfig(), primary, nil)
	summary := chain.Summary(context.Background(), "The Martian", "Andy Weir")

	assert.Equal(t, "A gripping tale of survival on Mars told through logs.", summary)
}

func TestSummary_TooShort_AdvancesToTemplate(t *testing.T) {
	primary := mock.New(mock.WithResponse("Good book."))
	secondary := mock.New(mock.WithResponse("Nice."))

	chain := shelfscan.NewTextChain(textConfig(), primary, secondary)
	summary := chain.Summary(context.Background(), "The Martian", "Andy Weir")

	assert.EqualValues(t, 1, primary.CallCount())
	assert.EqualValues(t, 1, secondary.CallCount())
	assert.Equal(t, `"The Martian" by Andy Weir is a noteworthy book in its genre.`, summary)
}

func TestSummary_Totality_NoProviders(t *testing.T) {
	chain := shelfscan.NewTextChain(shelfscan.Config{}, nil, nil)

	summary := chain.Summary(context.Background(), "The Martian", "Andy Weir")
	assert.NotEmpty(t, summary)
	assert.Contains(t, summary, "The Martian")
	assert.Contains(t, summary, "Andy Weir")
}

func TestSummary_SecondaryUsedWhenPrimaryErrors(t *testing.T) {
	primary := mock.New(mock.WithError(shelfscan.ErrRateLimited))
	secondary := mock.New(mock.WithResponse("A heist story set in a city of living shadows and debts."))

	chain := shelfscan.NewTextChain(textConfig(), primary, secondary)
	summary := chain.Summary(context.Background(), "Some Book", "Some Author")

	assert.EqualValues(t, 1, primary.CallCount())
	assert.EqualValues(t, 1, secondary.CallCount())
	assert.True(t, strings.HasPrefix(summary, "A heist story"))
}

func TestTextChain_CustomCatalog(t *testing.T) {
	catalog := shelfscan.NewCatalog([]shelfscan.KnownBook{
		{Title: "My Book", Author: "Me", Rating: "3.3"},
	})

	chain := shelfscan.NewTextChain(shelfscan.Config{}, nil, nil,
		shelfscan.WithCatalog(catalog))

	assert.Equal(t, "3.3", chain.Rating(context.Background(), "my book", "ME"))
}
