// Package openai is a small client for the OpenAI Chat Completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"nexus-backend/internal/models"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 60 * time.Second

	// NoReplyPlaceholder is returned when the engine answers without any content.
	NoReplyPlaceholder = "no reply available"
)

var (
	// ErrUpstreamUnavailable covers transport failures, non-2xx answers and a missing API key.
	ErrUpstreamUnavailable = errors.New("completion engine unavailable")
	// ErrUpstreamMalformed means the engine answered 2xx with a body that is not a completion.
	ErrUpstreamMalformed = errors.New("completion engine returned a malformed response")
)

// Getter resolves a named secret, e.g. from SSM Parameter Store.
type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// CompletionRequest is one call to the engine. Nil Temperature/MaxTokens use the engine defaults.
type CompletionRequest struct {
	Model       string
	Messages    []models.Turn
	Temperature *float64
	MaxTokens   *int
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []models.Turn `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string  `json:"role"`
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// HTTPStatusError captures non-2xx upstream responses.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("openai: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client calls the Chat Completions endpoint. It is safe for concurrent use.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client

	apiKey   string
	getter   Getter
	keyParam string

	keyOnce     sync.Once
	resolvedKey string
	keyErr      error
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

func WithModel(model string) Option {
	return func(c *Client) {
		if model = strings.TrimSpace(model); model != "" {
			c.model = model
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithAPIKey uses a static key.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = strings.TrimSpace(key)
	}
}

// WithKeyParameter resolves the key from getter on first use. A static key takes precedence.
func WithKeyParameter(getter Getter, name string) Option {
	return func(c *Client) {
		c.getter = getter
		c.keyParam = strings.TrimSpace(name)
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		model:      DefaultModel,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model is the default model used when a request does not name one.
func (c *Client) Model() string {
	return c.model
}

// Configured reports whether a key source is set. It does not contact SSM.
func (c *Client) Configured() bool {
	return c.apiKey != "" || (c.getter != nil && c.keyParam != "")
}

func (c *Client) resolveAPIKey(ctx context.Context) (string, error) {
	if c.apiKey != "" {
		return c.apiKey, nil
	}
	c.keyOnce.Do(func() {
		if c.getter == nil || c.keyParam == "" {
			c.keyErr = errors.New("openai: no API key configured")
			return
		}
		key, err := c.getter.GetParameter(ctx, c.keyParam)
		if err != nil {
			c.keyErr = fmt.Errorf("openai: fetch API key: %w", err)
			return
		}
		if key = strings.TrimSpace(key); key == "" {
			c.keyErr = errors.New("openai: API key parameter is empty")
			return
		}
		c.resolvedKey = key
	})
	return c.resolvedKey, c.keyErr
}

func chatURL(baseURL string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if strings.HasSuffix(base, "/v1") {
		return base + "/chat/completions"
	}
	return base + "/v1/chat/completions"
}

// Complete sends one chat completion and returns the first choice's content.
// An empty or missing reply yields NoReplyPlaceholder rather than an error.
func (c *Client) Complete(ctx context.Context, in CompletionRequest) (string, error) {
	model := strings.TrimSpace(in.Model)
	if model == "" {
		model = c.model
	}

	apiKey, err := c.resolveAPIKey(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    in.Messages,
		Temperature: in.Temperature,
		MaxTokens:   in.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("openai: marshal request: %w", err)
	}

	url := chatURL(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("openai: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	raw, err := c.doJSONRequest(req, url)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}

	var payload chatResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamMalformed, err)
	}
	if len(payload.Choices) == 0 || payload.Choices[0].Message.Content == nil {
		return NoReplyPlaceholder, nil
	}
	reply := strings.TrimSpace(*payload.Choices[0].Message.Content)
	if reply == "" {
		return NoReplyPlaceholder, nil
	}
	return reply, nil
}

func (c *Client) doJSONRequest(req *http.Request, url string) ([]byte, error) {
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        url,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}
