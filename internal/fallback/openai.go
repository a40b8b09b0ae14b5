package fallback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spherical-ai/spherical/libs/faq-engine/internal/domain"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIGenerator calls an OpenAI-compatible chat completions endpoint.
type OpenAIGenerator struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewOpenAIGenerator creates a generator for model. An empty baseURL uses the
// public OpenAI endpoint; a nil httpClient uses http.DefaultClient.
func NewOpenAIGenerator(apiKey, model, baseURL string, httpClient *http.Client) *OpenAIGenerator {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OpenAIGenerator{
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Generate sends the system prompt and user query as a two-message chat and
// returns the first choice's content.
func (g *OpenAIGenerator) Generate(ctx context.Context, systemPrompt, userQuery string, maxOutputTokens int) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userQuery},
		},
		MaxTokens: maxOutputTokens,
	})
	if err != nil {
		return "", domain.FallbackError("marshal chat request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", domain.FallbackError("build chat request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", domain.FallbackError("send chat request", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", domain.FallbackError("read chat response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", domain.FallbackError("chat completion failed",
			&StatusError{StatusCode: resp.StatusCode, Body: truncate(string(respBody), 512)})
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", domain.FallbackError("decode chat response", err)
	}
	if parsed.Error != nil {
		return "", domain.FallbackError(fmt.Sprintf("chat completion error: %s", parsed.Error.Message), nil)
	}
	if len(parsed.Choices) == 0 {
		return "", domain.FallbackError("chat response has no choices", nil)
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", domain.FallbackError("chat response is empty", nil)
	}
	return content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
