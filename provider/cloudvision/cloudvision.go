package cloudvision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shelfscan/shelfscan"
)

const (
	defaultBaseURL = "https://vision.googleapis.com"

	requestTimeout = 15 * time.Second
	maxAttempts    = 2
)

// Client is the Cloud Vision images:annotate adapter, used as the
// secondary vision provider (OCR + label detection).
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

var _ shelfscan.OCRProvider = (*Client)(nil)

// Option configures the client.
type Option func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(url, "/") }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a Cloud Vision client.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string { return "cloudvision" }

// Cloud Vision API types.
type annotateRequest struct {
	Requests []annotateEntry `json:"requests"`
}

type annotateEntry struct {
	Image    annotateImage     `json:"image"`
	Features []annotateFeature `json:"features"`
}

type annotateImage struct {
	Content string `json:"content"`
}

type annotateFeature struct {
	Type       string `json:"type"`
	MaxResults int    `json:"maxResults,omitempty"`
}

type annotateResponse struct {
	Responses []struct {
		LabelAnnotations []struct {
			Description string `json:"description"`
		} `json:"labelAnnotations"`
		TextAnnotations []struct {
			Description string `json:"description"`
		} `json:"textAnnotations"`
		FullTextAnnotation struct {
			Text string `json:"text"`
		} `json:"fullTextAnnotation"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	} `json:"responses"`
}

// Annotate runs TEXT_DETECTION and LABEL_DETECTION on the base64 image.
func (c *Client) Annotate(ctx context.Context, imageBase64 string) (shelfscan.Annotation, error) {
	body := annotateRequest{
		Requests: []annotateEntry{{
			Image: annotateImage{Content: imageBase64},
			Features: []annotateFeature{
				{Type: "TEXT_DETECTION"},
				{Type: "LABEL_DETECTION", MaxResults: 10},
			},
		}},
	}

	httpResp, err := c.doRequest(ctx, body)
	if err != nil {
		return shelfscan.Annotation{}, err
	}
	defer httpResp.Body.Close()

	if err := mapHTTPError(httpResp); err != nil {
		return shelfscan.Annotation{}, err
	}

	var resp annotateResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return shelfscan.Annotation{}, fmt.Errorf("%w: decode annotate response: %v", shelfscan.ErrMalformed, err)
	}

	if len(resp.Responses) == 0 {
		return shelfscan.Annotation{}, fmt.Errorf("%w: empty annotate response", shelfscan.ErrMalformed)
	}

	first := resp.Responses[0]
	if first.Error != nil {
		// The API reports per-image errors, including quota problems,
		// inside a 200 body.
		if rateLimitedMessage(first.Error.Message) {
			return shelfscan.Annotation{}, fmt.Errorf("%w: %s", shelfscan.ErrRateLimited, first.Error.Message)
		}
		return shelfscan.Annotation{}, fmt.Errorf("%w: %s", shelfscan.ErrProviderUnavailable, first.Error.Message)
	}

	text := first.FullTextAnnotation.Text
	if text == "" && len(first.TextAnnotations) > 0 {
		text = first.TextAnnotations[0].Description
	}

	labels := make([]string, 0, len(first.LabelAnnotations))
	for _, l := range first.LabelAnnotations {
		labels = append(labels, l.Description)
	}

	return shelfscan.Annotation{Text: text, Labels: labels}, nil
}

func (c *Client) doRequest(ctx context.Context, body annotateRequest) (*http.Response, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("cloudvision: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/images:annotate?key=%s", c.baseURL, c.apiKey)

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
		if err != nil {
			return nil, fmt.Errorf("cloudvision: create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("%w: %v", shelfscan.ErrProviderUnavailable, lastErr)
}

func mapHTTPError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return shelfscan.ErrRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return shelfscan.ErrUnconfigured
	default:
		return fmt.Errorf("%w: status %d: %s", shelfscan.ErrProviderUnavailable, resp.StatusCode, string(body))
	}
}

func rateLimitedMessage(msg string) bool {
	m := strings.ToLower(msg)
	return strings.Contains(m, "quota") || strings.Contains(m, "rate limit") ||
		strings.Contains(m, "resource exhausted")
}
