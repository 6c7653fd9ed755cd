package shelfscan

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TextChain resolves ratings and summaries across a curated catalog, a
// primary and a secondary text provider, and deterministic terminal
// defaults. Both operations are total: they always return a well-formed
// value and never an error.
type TextChain struct {
	cfg     Config
	tracker QuotaTracker
	catalog *Catalog
	meter   Meter
	links   []textLink
}

// textLink is one provider attempt in the ordered chain. Adding, removing
// or reordering providers is a data change, not a control-flow change.
type textLink struct {
	key      ProviderKey
	provider TextProvider
	enabled  bool
}

// TextOption configures a TextChain.
type TextOption func(*TextChain)

// WithTextTracker sets the quota tracker.
func WithTextTracker(t QuotaTracker) TextOption {
	return func(c *TextChain) { c.tracker = t }
}

// WithTextMeter sets the meter.
func WithTextMeter(m Meter) TextOption {
	return func(c *TextChain) { c.meter = m }
}

// WithCatalog replaces the curated known-book table.
func WithCatalog(cat *Catalog) TextOption {
	return func(c *TextChain) { c.catalog = cat }
}

// NewTextChain creates a text chain. Either provider may be nil; a nil
// provider is treated as unconfigured and the chain advances past it.
func NewTextChain(cfg Config, primary, secondary TextProvider, opts ...TextOption) *TextChain {
	c := &TextChain{cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}
	if c.tracker == nil {
		c.tracker = noopTracker{}
	}
	if c.meter == nil {
		c.meter = noopMeter{}
	}
	if c.catalog == nil {
		c.catalog = DefaultCatalog()
	}

	c.links = []textLink{
		{key: KeyPrimaryText, provider: primary, enabled: primary != nil && cfg.GeminiAPIKey != ""},
		{key: KeySecondaryText, provider: secondary, enabled: secondary != nil && cfg.GroqAPIKey != ""},
	}
	return c
}

const (
	opRating  = "get_rating"
	opSummary = "get_summary"

	minSummaryLength = 20
)

// Rating returns a rating string in the form "d.d". Curated catalog hits
// short-circuit live providers; the deterministic estimator is the
// guaranteed terminal.
func (c *TextChain) Rating(ctx context.Context, title, author string) string {
	reqID := uuid.New().String()

	if rating, ok := c.catalog.Rating(title, author); ok {
		c.resolve(reqID, opRating, "", SourceCatalog, 0)
		return rating
	}

	prompt := ratingPrompt(title, author)
	if out, _, ok := c.tryProviders(ctx, reqID, opRating, prompt, parseRating); ok {
		return out
	}

	c.resolve(reqID, opRating, "", SourceEstimator, 0)
	return EstimateRating(title, author)
}

// Summary returns a non-empty summary string. Live responses shorter than
// 20 characters are treated as malformed; the fixed template is the
// guaranteed terminal.
func (c *TextChain) Summary(ctx context.Context, title, author string) string {
	reqID := uuid.New().String()

	prompt := summaryPrompt(title, author)
	if out, _, ok := c.tryProviders(ctx, reqID, opSummary, prompt, parseSummary); ok {
		return out
	}

	c.resolve(reqID, opSummary, "", SourceTemplate, 0)
	return PlaceholderSummary(title, author)
}

// tryProviders walks the ordered links, gating each on credential and
// quota, classifying every failure as an advance.
func (c *TextChain) tryProviders(ctx context.Context, reqID, op, prompt string, parse func(string) (string, error)) (string, Source, bool) {
	sources := [...]Source{SourcePrimary, SourceSecondary}

	for i, link := range c.links {
		if !link.enabled {
			c.advance(reqID, op, c.linkName(link), ClassUnconfigured, ErrUnconfigured, 0)
			continue
		}

		ok, err := c.tracker.Allow(ctx, link.key)
		if err != nil || !ok {
			c.advance(reqID, op, link.provider.Name(), ClassQuotaExceeded, ErrQuotaExceeded, 0)
			continue
		}

		c.meter.OnAttempt(AttemptEvent{
			RequestID: reqID,
			Operation: op,
			Provider:  link.provider.Name(),
			Key:       link.key,
			Attempt:   i + 1,
		})

		start := time.Now()
		raw, err := link.provider.Complete(ctx, prompt)
		if err != nil {
			c.advance(reqID, op, link.provider.Name(), Classify(err), err, time.Since(start))
			continue
		}

		out, err := parse(raw)
		if err != nil {
			c.advance(reqID, op, link.provider.Name(), ClassMalformed, err, time.Since(start))
			continue
		}

		c.resolve(reqID, op, link.provider.Name(), sources[i], time.Since(start))
		return out, sources[i], true
	}

	return "", SourceEstimator, false
}

func (c *TextChain) advance(reqID, op, provider string, class Classification, err error, d time.Duration) {
	c.meter.OnResult(ResultEvent{
		RequestID:      reqID,
		Operation:      op,
		Provider:       provider,
		Classification: class,
		RateLimited:    IsRateLimit(err),
		Duration:       d,
		Err:            err,
	})
}

func (c *TextChain) resolve(reqID, op, provider string, source Source, d time.Duration) {
	c.meter.OnResult(ResultEvent{
		RequestID: reqID,
		Operation: op,
		Provider:  provider,
		Source:    source,
		Resolved:  true,
		Duration:  d,
	})
}

func (c *TextChain) linkName(l textLink) string {
	if l.provider == nil {
		return ""
	}
	return l.provider.Name()
}

func ratingPrompt(title, author string) string {
	return fmt.Sprintf(
		"What is the average reader rating of the book %q by %s on a scale of 1.0 to 5.0? "+
			"Respond with only the numeric rating to one decimal place, nothing else.",
		title, author)
}

func summaryPrompt(title, author string) string {
	return fmt.Sprintf(
		"Write a concise two-sentence summary of the book %q by %s. "+
			"Respond with only the summary text.",
		title, author)
}

var numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// parseRating extracts the numeric rating from a provider response and
// rejects values outside [1.0, 5.0].
func parseRating(raw string) (string, error) {
	match := numberPattern.FindString(strings.TrimSpace(raw))
	if match == "" {
		return "", fmt.Errorf("%w: no numeric rating in %q", ErrMalformed, raw)
	}

	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrMalformed, raw)
	}
	if value < 1.0 || value > 5.0 {
		return "", fmt.Errorf("%w: rating %.1f out of range", ErrMalformed, value)
	}

	return fmt.Sprintf("%.1f", value), nil
}

// parseSummary rejects live responses below the minimum acceptable length.
func parseSummary(raw string) (string, error) {
	summary := strings.TrimSpace(raw)
	if len(summary) < minSummaryLength {
		return "", fmt.Errorf("%w: summary too short (%d chars)", ErrMalformed, len(summary))
	}
	return summary, nil
}
