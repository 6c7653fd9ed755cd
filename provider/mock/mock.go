package mock

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/shelfscan/shelfscan"
)

// Provider is a scriptable test double implementing every provider
// interface.
type Provider struct {
	name         string
	latency      time.Duration
	staticErr    error
	scan         shelfscan.BookScan
	annotation   shelfscan.Annotation
	response     string
	completeFunc func(prompt string) (string, error)
	callCount    atomic.Int64
}

var (
	_ shelfscan.VisionProvider = (*Provider)(nil)
	_ shelfscan.OCRProvider    = (*Provider)(nil)
	_ shelfscan.TextProvider   = (*Provider)(nil)
)

// Option configures a mock Provider.
type Option func(*Provider)

// New creates a mock provider with the given options.
func New(opts ...Option) *Provider {
	p := &Provider{
		name:     "mock",
		response: "A mock summary long enough to be accepted by the chain.",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithName sets the provider name.
func WithName(name string) Option {
	return func(p *Provider) { p.name = name }
}

// WithLatency adds simulated latency to each call.
func WithLatency(d time.Duration) Option {
	return func(p *Provider) { p.latency = d }
}

// WithError makes every call return this error.
func WithError(err error) Option {
	return func(p *Provider) { p.staticErr = err }
}

// WithScan sets the BookScan returned by IdentifyBooks.
func WithScan(scan shelfscan.BookScan) Option {
	return func(p *Provider) { p.scan = scan }
}

// WithAnnotation sets the Annotation returned by Annotate.
func WithAnnotation(ann shelfscan.Annotation) Option {
	return func(p *Provider) { p.annotation = ann }
}

// WithResponse sets the text returned by Complete.
func WithResponse(response string) Option {
	return func(p *Provider) { p.response = response }
}

// WithCompleteFunc sets a custom Complete implementation.
func WithCompleteFunc(fn func(prompt string) (string, error)) Option {
	return func(p *Provider) { p.completeFunc = fn }
}

func (p *Provider) Name() string { return p.name }

func (p *Provider) IdentifyBooks(ctx context.Context, _ string) (shelfscan.BookScan, error) {
	if err := p.begin(ctx); err != nil {
		return shelfscan.BookScan{}, err
	}
	return p.scan, nil
}

func (p *Provider) Annotate(ctx context.Context, _ string) (shelfscan.Annotation, error) {
	if err := p.begin(ctx); err != nil {
		return shelfscan.Annotation{}, err
	}
	return p.annotation, nil
}

func (p *Provider) Complete(ctx context.Context, prompt string) (string, error) {
	if err := p.begin(ctx); err != nil {
		return "", err
	}
	if p.completeFunc != nil {
		return p.completeFunc(prompt)
	}
	return p.response, nil
}

// CallCount returns the number of calls made to the provider.
func (p *Provider) CallCount() int64 { return p.callCount.Load() }

func (p *Provider) begin(ctx context.Context) error {
	if p.latency > 0 {
		select {
		case <-time.After(p.latency):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.callCount.Add(1)
	return p.staticErr
}
