// Package engine provides the public Go SDK for the FAQ API.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is the public SDK client for the FAQ API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientConfig holds client configuration.
type ClientConfig struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new FAQ API client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8086"
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: cfg.HTTPClient,
	}
}

// AskRequest is a question, optionally restricted to one category.
type AskRequest struct {
	Question string `json:"question"`
	Category string `json:"category,omitempty"`
}

// AskResponse is the answer to a question.
type AskResponse struct {
	ID              string `json:"id"`
	Question        string `json:"question"`
	Category        string `json:"category"`
	Outcome         string `json:"outcome"`
	Answer          string `json:"answer"`
	MatchedQuestion string `json:"matchedQuestion,omitempty"`
	ConfidenceScore int    `json:"confidenceScore"`
	Cached          bool   `json:"cached"`
	LatencyMs       int64  `json:"latencyMs"`
}

// CategoriesResponse lists the selectable categories.
type CategoriesResponse struct {
	Categories []string `json:"categories"`
	Records    int      `json:"records"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// APIError is a non-2xx reply from the API.
type APIError struct {
	StatusCode int
	Message    string `json:"error"`
	Detail     string `json:"detail,omitempty"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("faq api: %d %s: %s", e.StatusCode, e.Message, e.Detail)
	}
	return fmt.Sprintf("faq api: %d %s", e.StatusCode, e.Message)
}

// Ask sends a question to POST /api/v1/ask.
func (c *Client) Ask(ctx context.Context, req AskRequest) (*AskResponse, error) {
	var resp AskResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/ask", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Categories lists the categories from GET /api/v1/categories.
func (c *Client) Categories(ctx context.Context) (*CategoriesResponse, error) {
	var resp CategoriesResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/categories", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ClearCacheResponse reports which cached answers were removed.
type ClearCacheResponse struct {
	Namespace string `json:"namespace"`
	Cleared   string `json:"cleared"`
}

// ClearCache removes cached fallback answers via DELETE /api/v1/cache. An
// empty question clears every answer of the server's provider and model.
func (c *Client) ClearCache(ctx context.Context, question string) (*ClearCacheResponse, error) {
	path := "/api/v1/cache"
	if question != "" {
		path += "?" + url.Values{"question": {question}}.Encode()
	}
	var resp ClearCacheResponse
	if err := c.do(ctx, http.MethodDelete, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health checks the service health.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
