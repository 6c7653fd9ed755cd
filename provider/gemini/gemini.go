package gemini

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
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.0-flash"

	requestTimeout = 15 * time.Second
	maxAttempts    = 2
)

// Client is the Gemini API adapter. It serves both as the primary vision
// provider and the primary text provider.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

var (
	_ shelfscan.VisionProvider = (*Client)(nil)
	_ shelfscan.TextProvider   = (*Client)(nil)
)

// Option configures the client.
type Option func(*Client)

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithBaseURL sets a custom base URL.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(url, "/") }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a Gemini client.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		model:      defaultModel,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string { return "gemini" }

// Gemini API types.
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
}

const visionInstruction = `You are looking at a photo that may show a bookshelf.
List only the book titles you can read with full certainty. Do not guess
partial or blurry titles. Respond with only JSON in the form
{"bookTitles": ["..."], "isBookshelf": true} and nothing else.`

// IdentifyBooks sends the image with a constrained instruction and parses
// the structured response.
func (c *Client) IdentifyBooks(ctx context.Context, imageBase64 string) (shelfscan.BookScan, error) {
	payload := shelfscan.StripDataURI(imageBase64)

	req := geminiRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{Text: visionInstruction},
				{InlineData: &inlineData{MimeType: "image/jpeg", Data: payload}},
			},
		}},
	}

	content, err := c.generate(ctx, req)
	if err != nil {
		return shelfscan.BookScan{}, err
	}

	var scan shelfscan.BookScan
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &scan); err != nil {
		return shelfscan.BookScan{}, fmt.Errorf("%w: %v", shelfscan.ErrMalformed, err)
	}
	if scan.BookTitles == nil {
		scan.BookTitles = []string{}
	}
	return scan, nil
}

// Complete returns the model's text response for a prompt.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	req := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: prompt}},
		}},
	}
	return c.generate(ctx, req)
}

func (c *Client) generate(ctx context.Context, body geminiRequest) (string, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	httpResp, err := c.doRequest(ctx, url, body)
	if err != nil {
		return "", err
	}
	defer httpResp.Body.Close()

	if err := mapHTTPError(httpResp); err != nil {
		return "", err
	}

	var resp geminiResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return "", fmt.Errorf("%w: decode gemini response: %v", shelfscan.ErrMalformed, err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty candidates in gemini response", shelfscan.ErrMalformed)
	}

	return resp.Candidates[0].Content.Parts[0].Text, nil
}

func (c *Client) doRequest(ctx context.Context, url string, body geminiRequest) (*http.Response, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("gemini: marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
		if err != nil {
			return nil, fmt.Errorf("gemini: create request: %w", err)
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

// stripCodeFence removes a surrounding markdown code fence, which the model
// emits despite the JSON-only instruction.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
