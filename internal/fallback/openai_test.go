package fallback

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/spherical/libs/faq-engine/internal/domain"
)

func TestOpenAIGenerator_Success(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","choices":[{"message":{"role":"assistant","content":" Why did the chicken cross the road? "},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	gen := NewOpenAIGenerator("sk-test", "gpt-4", server.URL+"/", server.Client())
	answer, err := gen.Generate(context.Background(), "You are a helpful FAQ chatbot.", "tell me a joke", 150)

	require.NoError(t, err)
	assert.Equal(t, "Why did the chicken cross the road?", answer)
	assert.Equal(t, "gpt-4", got.Model)
	assert.Equal(t, 150, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, chatMessage{Role: "system", Content: "You are a helpful FAQ chatbot."}, got.Messages[0])
	assert.Equal(t, chatMessage{Role: "user", Content: "tell me a joke"}, got.Messages[1])
}

func TestOpenAIGenerator_Failures(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		retryable bool
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, true},
		{"server error", http.StatusInternalServerError, `oops`, true},
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, false},
		{"malformed json", http.StatusOK, `{not json`, false},
		{"no choices", http.StatusOK, `{"id":"c1","choices":[]}`, false},
		{"empty content", http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"  "}}]}`, false},
		{"error payload", http.StatusOK, `{"error":{"message":"model overloaded","type":"server_error"}}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			gen := NewOpenAIGenerator("sk-test", "gpt-4", server.URL, server.Client())
			_, err := gen.Generate(context.Background(), "sys", "q", 150)

			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrFallback))
			assert.Equal(t, tt.retryable, IsRetryable(err))
		})
	}
}

func TestOpenAIGenerator_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	gen := NewOpenAIGenerator("sk-test", "gpt-4", server.URL, server.Client())
	_, err := gen.Generate(ctx, "sys", "q", 150)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFallback))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, IsRetryable(err))
}

func TestOpenAIGenerator_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	gen := NewOpenAIGenerator("sk-test", "gpt-4", url, nil)
	_, err := gen.Generate(context.Background(), "sys", "q", 150)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFallback))
	assert.True(t, IsRetryable(err))
}
