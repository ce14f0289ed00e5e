// Package ollama is a small client for a local Ollama server's HTTP API.
// Only the non-streaming endpoints the gateway needs are covered.
package ollama

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

// DefaultTimeout bounds a full generation round trip. LLM inference is slow,
// so this is much longer than a typical HTTP client timeout.
const DefaultTimeout = 120 * time.Second

// healthTimeout bounds the readiness probe.
const healthTimeout = 5 * time.Second

// ErrUnavailable reports that the Ollama server could not be reached or
// answered with a server-side failure.
var ErrUnavailable = errors.New("ollama: server unavailable")

// Client talks to one Ollama server.
type Client struct {
	BaseURL      string
	DefaultModel string
	HTTPClient   *http.Client
}

// NewClient creates a client for the given base URL. A zero timeout gets the
// default.
func NewClient(baseURL, defaultModel string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL:      strings.TrimSuffix(baseURL, "/"),
		DefaultModel: defaultModel,
		HTTPClient:   &http.Client{Timeout: timeout},
	}
}

// Generate runs a single-prompt completion. An empty model falls back to the
// client's default.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if req.Model == "" {
		req.Model = c.DefaultModel
	}
	req.Stream = false

	var out GenerateResponse
	if err := c.post(ctx, "/api/generate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Chat runs a multi-turn chat completion. An empty model falls back to the
// client's default.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if req.Model == "" {
		req.Model = c.DefaultModel
	}
	req.Stream = false

	var out ChatResponse
	if err := c.post(ctx, "/api/chat", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListModels returns the locally installed models.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var tags TagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return tags.Models, nil
}

// Healthy reports whether the server answers its tags endpoint. Used by the
// readiness probe, with its own short timeout regardless of the client's.
func (c *Client) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// statusError classifies a non-200: 5xx reads as the server being
// unavailable, anything else surfaces the body for debugging.
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, string(body))
	}
	return fmt.Errorf("ollama: request failed with status %d: %s", resp.StatusCode, string(body))
}
