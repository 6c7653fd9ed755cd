package shelfscan

import "time"

// ProviderKey identifies a provider's quota bucket. Keys are independent:
// exhausting one never affects another.
type ProviderKey string

const (
	KeyPrimaryVision   ProviderKey = "primary-vision"
	KeySecondaryVision ProviderKey = "secondary-vision"
	KeyPrimaryText     ProviderKey = "primary-text"
	KeySecondaryText   ProviderKey = "secondary-text"
)

// QuotaLimit is a fixed admission limit within a fixed window.
type QuotaLimit struct {
	Limit  int
	Window time.Duration
}

// DefaultQuotas returns the per-key admission limits used when the caller
// does not configure its own.
func DefaultQuotas() map[ProviderKey]QuotaLimit {
	return map[ProviderKey]QuotaLimit{
		KeyPrimaryVision:   {Limit: 50, Window: 24 * time.Hour},
		KeySecondaryVision: {Limit: 100, Window: 24 * time.Hour},
		KeyPrimaryText:     {Limit: 200, Window: 24 * time.Hour},
		KeySecondaryText:   {Limit: 200, Window: 24 * time.Hour},
	}
}

// AnalysisResult is the outcome of analyzing a bookshelf image.
// BookTitles preserves the provider's order and is never nil.
type AnalysisResult struct {
	BookTitles  []string `json:"bookTitles"`
	IsBookshelf bool     `json:"isBookshelf"`
}

// BookScan is the structured response expected from a vision-capable
// language provider.
type BookScan struct {
	BookTitles  []string `json:"bookTitles"`
	IsBookshelf bool     `json:"isBookshelf"`
}

// Annotation is the raw output of a general-purpose OCR/label provider.
type Annotation struct {
	Text   string
	Labels []string
}

// Source identifies which link of a chain resolved a request.
type Source int

const (
	SourceCatalog Source = iota
	SourcePrimary
	SourceSecondary
	SourceEstimator
	SourceTemplate
	SourceEmpty
)

func (s Source) String() string {
	switch s {
	case SourceCatalog:
		return "catalog"
	case SourcePrimary:
		return "primary"
	case SourceSecondary:
		return "secondary"
	case SourceEstimator:
		return "estimator"
	case SourceTemplate:
		return "template"
	case SourceEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

func emptyAnalysis() AnalysisResult {
	return AnalysisResult{BookTitles: []string{}}
}
