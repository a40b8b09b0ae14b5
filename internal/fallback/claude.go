package fallback

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/spherical-ai/spherical/libs/faq-engine/internal/domain"
)

// ClaudeGenerator answers through the Anthropic Messages API.
type ClaudeGenerator struct {
	client anthropic.Client
	model  string
}

// NewClaudeGenerator creates a Claude-backed generator. SDK-level retries are
// disabled; wrap the generator in a RetryingGenerator instead.
func NewClaudeGenerator(apiKey, model, baseURL string) *ClaudeGenerator {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &ClaudeGenerator{
		client: anthropic.NewClient(opts...),
		model:  model,
	}
}

// Generate sends userQuery with systemPrompt and returns the concatenated text blocks.
func (g *ClaudeGenerator) Generate(ctx context.Context, systemPrompt, userQuery string, maxOutputTokens int) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     g.model,
		MaxTokens: int64(maxOutputTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userQuery)),
		},
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemPrompt},
		}
	}

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", domain.FallbackError("claude message failed",
				&StatusError{StatusCode: apiErr.StatusCode, Body: truncate(apiErr.Error(), 512)})
		}
		return "", domain.FallbackError("claude message failed", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}

	content := strings.TrimSpace(b.String())
	if content == "" {
		return "", domain.FallbackError("claude response has no text", nil)
	}
	return content, nil
}
