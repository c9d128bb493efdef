// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Configuration constants for the upstream gateway.
const (
	// DefaultBaseURL is the OpenRouter-compatible API root.
	DefaultBaseURL = "https://openrouter.ai/api/v1"

	// DefaultModel is the model Nila speaks through unless configured
	// otherwise.
	DefaultModel = "google/gemini-2.0-flash-exp:free"

	// DefaultTemperature keeps replies loose and conversational.
	DefaultTemperature = 0.9

	// DefaultTimeout bounds a single completion request.
	DefaultTimeout = 60 * time.Second

	// retryDelay is the constant pause before the single retry.
	retryDelay = 500 * time.Millisecond

	// maxResponseSize caps the response body read.
	// SECURITY: prevents memory exhaustion from a misbehaving gateway.
	maxResponseSize = 10 * 1024 * 1024
)

// Sentinel errors for upstream failures.
var (
	// ErrNoAPIKey indicates the client was built without a key; the
	// service maps this to "not configured" rather than "failed".
	ErrNoAPIKey = errors.New("upstream API key not configured")

	// ErrUpstream wraps every failure of the upstream request itself.
	ErrUpstream = errors.New("upstream model request failed")
)

// UpstreamError carries the HTTP detail of an upstream rejection.
// It unwraps to ErrUpstream so callers can match the family.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("upstream error (HTTP %d)", e.Status)
}

func (e *UpstreamError) Unwrap() error { return ErrUpstream }

// =============================================================================
// WIRE TYPES
// =============================================================================

// Message is one role/content pair of conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UserMessage builds a user-authored history entry.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// ModelMessage builds a model-authored history entry.
func ModelMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client sends chat-completion requests to the upstream gateway.
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	httpClient  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different gateway.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithModel selects the upstream model.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithTemperature overrides the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *Client) {
		c.temperature = t
	}
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout adjusts the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// New creates a client. An empty apiKey is allowed; Reply will fail
// with ErrNoAPIKey until one is configured.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:      strings.TrimSpace(apiKey),
		baseURL:     DefaultBaseURL,
		model:       DefaultModel,
		temperature: DefaultTemperature,
		httpClient:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsConfigured reports whether an API key is present.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// Model returns the configured upstream model.
func (c *Client) Model() string {
	return c.model
}

// Reply sends the conversation history under the Nila persona and
// returns the raw (unsplit) model reply.
//
// RELIABILITY: transient failures (transport errors, 5xx, 429) get
// exactly one retry after a constant delay; everything else fails
// immediately.
func (c *Client) Reply(ctx context.Context, history []Message) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNoAPIKey
	}

	reqBody := chatRequest{
		Model:       c.model,
		Messages:    append([]Message{{Role: "system", Content: PersonaInstruction}}, history...),
		Temperature: c.temperature,
	}

	var lastErr error
	for attempt := 0; attempt <= 1; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(retryDelay):
			}
		}

		text, err := c.doRequest(ctx, reqBody)
		if err != nil {
			if isRetryable(err) {
				lastErr = err
				continue
			}
			return "", err
		}
		return text, nil
	}
	return "", lastErr
}

// doRequest performs a single completion request.
func (c *Client) doRequest(ctx context.Context, reqBody chatRequest) (string, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "nila/0.1.0")
	req.Header.Set("X-Title", "nila")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("contacting upstream: %w", err)
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", &UpstreamError{
			Status:  resp.StatusCode,
			Message: errorMessage(body),
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", ErrUpstream, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: response contained no choices", ErrUpstream)
	}
	return parsed.Choices[0].Message.Content, nil
}

// readResponse reads the body with a size cap.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("reading upstream response: %w", err)
	}
	if int64(len(body)) == maxResponseSize {
		return nil, fmt.Errorf("%w: response exceeded %d bytes", ErrUpstream, maxResponseSize)
	}
	return body, nil
}

// errorMessage extracts the error detail from an API error body, or
// a body snippet when the shape is unexpected.
func errorMessage(body []byte) string {
	var parsed apiErrorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	return snippet
}

// isRetryable reports whether a single retry is worth attempting.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Status == http.StatusTooManyRequests || upstream.Status >= 500
	}

	// Transport-level failures (connection refused, reset) surface as
	// wrapped url.Error values.
	return strings.Contains(err.Error(), "contacting upstream")
}
