package shelfscan

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// VisionChain resolves bookshelf image analysis across a vision-capable
// language provider, an OCR/label provider, and a terminal empty result.
// Its contract is total: Analyze always returns a well-formed result and
// never an error.
type VisionChain struct {
	cfg       Config
	tracker   QuotaTracker
	primary   VisionProvider
	secondary OCRProvider
	meter     Meter
}

// VisionOption configures a VisionChain.
type VisionOption func(*VisionChain)

// WithVisionTracker sets the quota tracker.
func WithVisionTracker(t QuotaTracker) VisionOption {
	return func(c *VisionChain) { c.tracker = t }
}

// WithVisionMeter sets the meter.
func WithVisionMeter(m Meter) VisionOption {
	return func(c *VisionChain) { c.meter = m }
}

// NewVisionChain creates a vision chain. Either provider may be nil; a nil
// provider is treated as unconfigured and the chain advances past it.
func NewVisionChain(cfg Config, primary VisionProvider, secondary OCRProvider, opts ...VisionOption) *VisionChain {
	c := &VisionChain{
		cfg:       cfg,
		primary:   primary,
		secondary: secondary,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tracker == nil {
		c.tracker = noopTracker{}
	}
	if c.meter == nil {
		c.meter = noopMeter{}
	}
	return c
}

const opAnalyze = "analyze_bookshelf_image"

// Analyze identifies book titles in a base64-encoded (optionally data-URI
// prefixed) image.
func (c *VisionChain) Analyze(ctx context.Context, image string) AnalysisResult {
	reqID := uuid.New().String()

	if res, ok := c.tryPrimary(ctx, reqID, image); ok {
		return res
	}
	return c.trySecondary(ctx, reqID, image)
}

func (c *VisionChain) tryPrimary(ctx context.Context, reqID, image string) (AnalysisResult, bool) {
	switch {
	case c.cfg.DisableVision:
		c.advance(reqID, c.name(c.primary), ClassDisabled, ErrDisabled, 0)
		return AnalysisResult{}, false
	case c.primary == nil || c.cfg.GeminiAPIKey == "":
		c.advance(reqID, c.name(c.primary), ClassUnconfigured, ErrUnconfigured, 0)
		return AnalysisResult{}, false
	}

	ok, err := c.tracker.Allow(ctx, KeyPrimaryVision)
	if err != nil || !ok {
		c.advance(reqID, c.primary.Name(), ClassQuotaExceeded, ErrQuotaExceeded, 0)
		return AnalysisResult{}, false
	}

	c.meter.OnAttempt(AttemptEvent{
		RequestID: reqID,
		Operation: opAnalyze,
		Provider:  c.primary.Name(),
		Key:       KeyPrimaryVision,
		Attempt:   1,
	})

	start := time.Now()
	scan, err := c.primary.IdentifyBooks(ctx, image)
	if err != nil {
		c.advance(reqID, c.primary.Name(), Classify(err), err, time.Since(start))
		return AnalysisResult{}, false
	}

	titles := scan.BookTitles
	if titles == nil {
		titles = []string{}
	}
	c.resolve(reqID, c.primary.Name(), SourcePrimary, time.Since(start))
	return AnalysisResult{BookTitles: titles, IsBookshelf: scan.IsBookshelf}, true
}

func (c *VisionChain) trySecondary(ctx context.Context, reqID, image string) AnalysisResult {
	payload := StripDataURI(image)
	if len(payload) < minImagePayload {
		c.resolve(reqID, "", SourceEmpty, 0)
		return emptyAnalysis()
	}

	if c.secondary == nil || c.cfg.VisionAPIKey == "" {
		c.resolve(reqID, "", SourceEmpty, 0)
		return emptyAnalysis()
	}

	ok, err := c.tracker.Allow(ctx, KeySecondaryVision)
	if err != nil || !ok {
		c.advance(reqID, c.secondary.Name(), ClassQuotaExceeded, ErrQuotaExceeded, 0)
		c.resolve(reqID, "", SourceEmpty, 0)
		return emptyAnalysis()
	}

	c.meter.OnAttempt(AttemptEvent{
		RequestID: reqID,
		Operation: opAnalyze,
		Provider:  c.secondary.Name(),
		Key:       KeySecondaryVision,
		Attempt:   2,
	})

	start := time.Now()
	ann, err := c.secondary.Annotate(ctx, payload)
	if err != nil {
		c.advance(reqID, c.secondary.Name(), Classify(err), err, time.Since(start))
		c.resolve(reqID, "", SourceEmpty, 0)
		return emptyAnalysis()
	}

	c.resolve(reqID, c.secondary.Name(), SourceSecondary, time.Since(start))
	return AnalysisResult{
		BookTitles:  candidateTitles(ann.Text),
		IsBookshelf: labelsSuggestShelf(ann.Labels),
	}
}

func (c *VisionChain) advance(reqID, provider string, class Classification, err error, d time.Duration) {
	c.meter.OnResult(ResultEvent{
		RequestID:      reqID,
		Operation:      opAnalyze,
		Provider:       provider,
		Classification: class,
		RateLimited:    IsRateLimit(err),
		Duration:       d,
		Err:            err,
	})
}

func (c *VisionChain) resolve(reqID, provider string, source Source, d time.Duration) {
	c.meter.OnResult(ResultEvent{
		RequestID: reqID,
		Operation: opAnalyze,
		Provider:  provider,
		Source:    source,
		Resolved:  true,
		Duration:  d,
	})
}

func (c *VisionChain) name(p VisionProvider) string {
	if p == nil {
		return ""
	}
	return p.Name()
}

var shelfLabels = []string{"book", "shelf", "library"}

// labelsSuggestShelf reports whether any label contains a bookshelf-related
// word, case-insensitive.
func labelsSuggestShelf(labels []string) bool {
	for _, label := range labels {
		l := strings.ToLower(label)
		for _, want := range shelfLabels {
			if strings.Contains(l, want) {
				return true
			}
		}
	}
	return false
}

// candidateTitles keeps OCR lines that plausibly read as book titles:
// 2–10 words and at most 50 characters.
func candidateTitles(text string) []string {
	titles := []string{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		words := len(strings.Fields(line))
		if words >= 2 && words <= 10 && len(line) <= 50 {
			titles = append(titles, line)
		}
	}
	return titles
}

// noopMeter discards all events. Inline to avoid an import cycle with the
// meter package.
type noopMeter struct{}

func (noopMeter) OnAttempt(AttemptEvent) {}
func (noopMeter) OnResult(ResultEvent)   {}
