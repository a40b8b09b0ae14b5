package engine

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/spherical/libs/faq-engine/cmd/faq-api/handlers"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/assistant"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/cache"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/config"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/fallback"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/matching"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/observability"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/reference"
)

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv, _ := setupCachingTestServer(t)
	return srv
}

func setupCachingTestServer(t *testing.T) (*httptest.Server, *cache.MemoryClient) {
	t.Helper()
	store := cache.NewMemoryClient(10)
	t.Cleanup(func() { store.Close() })
	table, err := reference.LoadTable([]reference.Row{
		{"Question": "What are your hours?", "Answer": "9-5", "Category": "General"},
		{"Question": "What is your refund policy?", "Answer": "30 days", "Category": "Billing"},
	})
	require.NoError(t, err)

	fb := config.DefaultConfig().Fallback
	gen := fallback.NewCachingGenerator(fallback.GeneratorFunc(func(ctx context.Context, systemPrompt, userQuery string, maxOutputTokens int) (string, error) {
		return "generated answer", nil
	}), store, time.Hour, fallback.CacheNamespace(fb), nil)
	svc := assistant.NewService(table, matching.NewEngine(matching.DefaultEngineConfig()), gen, assistant.Config{
		SystemPrompt:    fb.SystemPrompt,
		MaxOutputTokens: fb.MaxOutputTokens,
	}, observability.NopLogger())
	h := handlers.NewFAQHandler(observability.NopLogger(), svc)

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"faq-engine"}`))
	})
	r.Get("/api/v1/categories", h.Categories)
	r.Post("/api/v1/ask", h.Ask)
	r.Delete("/api/v1/cache", handlers.NewCacheHandler(nil, fallback.NewCacheInvalidator(store, fb, nil)).Clear)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, store
}

func TestClient_Ask(t *testing.T) {
	srv := setupTestServer(t)
	client := NewClient(ClientConfig{BaseURL: srv.URL + "/"})
	ctx := context.Background()

	matched, err := client.Ask(ctx, AskRequest{Question: "what r ur hours"})
	require.NoError(t, err)
	assert.Equal(t, "matched", matched.Outcome)
	assert.Equal(t, "9-5", matched.Answer)
	assert.Equal(t, 88, matched.ConfidenceScore)

	generated, err := client.Ask(ctx, AskRequest{Question: "tell me a joke"})
	require.NoError(t, err)
	assert.Equal(t, "generated", generated.Outcome)
	assert.Equal(t, "generated answer", generated.Answer)
}

func TestClient_AskRejected(t *testing.T) {
	srv := setupTestServer(t)
	client := NewClient(ClientConfig{BaseURL: srv.URL})

	_, err := client.Ask(context.Background(), AskRequest{Question: "refund", Category: "Shipping"})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "invalid question", apiErr.Message)
	assert.Contains(t, apiErr.Detail, "unknown category")
}

func TestClient_ClearCache(t *testing.T) {
	srv, store := setupCachingTestServer(t)
	client := NewClient(ClientConfig{BaseURL: srv.URL})
	ctx := context.Background()

	_, err := client.Ask(ctx, AskRequest{Question: "tell me a joke"})
	require.NoError(t, err)
	_, err = client.Ask(ctx, AskRequest{Question: "tell me a story"})
	require.NoError(t, err)
	require.Equal(t, 2, store.Len())

	one, err := client.ClearCache(ctx, "Tell me a joke?")
	require.NoError(t, err)
	assert.Equal(t, "query", one.Cleared)
	assert.Equal(t, 1, store.Len())

	all, err := client.ClearCache(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "all", all.Cleared)
	assert.Equal(t, "openai:gpt-4", all.Namespace)
	assert.Equal(t, 0, store.Len())
}

func TestClient_CategoriesAndHealth(t *testing.T) {
	srv := setupTestServer(t)
	client := NewClient(ClientConfig{BaseURL: srv.URL})
	ctx := context.Background()

	cats, err := client.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"All", "General", "Billing"}, cats.Categories)
	assert.Equal(t, 2, cats.Records)

	health, err := client.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)
}

func TestClient_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(ClientConfig{BaseURL: srv.URL}).Health(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
}
