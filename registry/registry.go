package registry

import (
	"sync"

	"github.com/shelfscan/shelfscan"
	"github.com/shelfscan/shelfscan/meter"
	"github.com/shelfscan/shelfscan/provider/cloudvision"
	"github.com/shelfscan/shelfscan/provider/gemini"
	"github.com/shelfscan/shelfscan/provider/openaicompat"
	"github.com/shelfscan/shelfscan/quota"
)

// Registry constructs the provider adapters and chains lazily on first use,
// gated by the configured credentials. Reset discards all constructed state
// for test isolation.
type Registry struct {
	mu  sync.Mutex
	cfg shelfscan.Config

	tracker         shelfscan.QuotaTracker
	trackerInjected bool
	meter           shelfscan.Meter

	vision *shelfscan.VisionChain
	text   *shelfscan.TextChain
}

// Option configures a Registry.
type Option func(*Registry)

// WithTracker sets the quota tracker. Injected trackers survive Reset.
func WithTracker(t shelfscan.QuotaTracker) Option {
	return func(r *Registry) {
		r.tracker = t
		r.trackerInjected = true
	}
}

// WithMeter sets the meter.
func WithMeter(m shelfscan.Meter) Option {
	return func(r *Registry) { r.meter = m }
}

// New creates a Registry. Nothing is constructed until first use.
func New(cfg shelfscan.Config, opts ...Option) *Registry {
	r := &Registry{cfg: cfg}
	for _, opt := range opts {
		opt(r)
	}
	if r.meter == nil {
		r.meter = &meter.NoopMeter{}
	}
	return r
}

// Vision returns the vision fallback chain, constructing it on first use.
func (r *Registry) Vision() *shelfscan.VisionChain {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.vision == nil {
		var primary shelfscan.VisionProvider
		if r.cfg.GeminiAPIKey != "" {
			primary = gemini.New(r.cfg.GeminiAPIKey, gemini.WithModel(r.cfg.GeminiModel))
		}

		var secondary shelfscan.OCRProvider
		if r.cfg.VisionAPIKey != "" {
			secondary = cloudvision.New(r.cfg.VisionAPIKey)
		}

		r.vision = shelfscan.NewVisionChain(r.cfg, primary, secondary,
			shelfscan.WithVisionTracker(r.ensureTracker()),
			shelfscan.WithVisionMeter(r.meter),
		)
	}
	return r.vision
}

// Text returns the text fallback chain, constructing it on first use.
func (r *Registry) Text() *shelfscan.TextChain {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.text == nil {
		var primary shelfscan.TextProvider
		if r.cfg.GeminiAPIKey != "" {
			primary = gemini.New(r.cfg.GeminiAPIKey, gemini.WithModel(r.cfg.GeminiModel))
		}

		var secondary shelfscan.TextProvider
		if r.cfg.GroqAPIKey != "" {
			secondary = openaicompat.NewGroq(r.cfg.GroqAPIKey, openaicompat.WithModel(r.cfg.GroqModel))
		}

		r.text = shelfscan.NewTextChain(r.cfg, primary, secondary,
			shelfscan.WithTextTracker(r.ensureTracker()),
			shelfscan.WithTextMeter(r.meter),
		)
	}
	return r.text
}

// Reset discards constructed chains and, unless the tracker was injected,
// the quota state.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.vision = nil
	r.text = nil
	if !r.trackerInjected {
		r.tracker = nil
	}
}

// ensureTracker lazily builds the default in-memory tracker. Must be called
// with the lock held.
func (r *Registry) ensureTracker() shelfscan.QuotaTracker {
	if r.tracker == nil {
		r.tracker = quota.NewMemoryTracker(r.cfg.QuotaLimits())
	}
	return r.tracker
}
