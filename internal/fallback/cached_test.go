package fallback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/spherical/libs/faq-engine/internal/cache"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/config"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/domain"
)

type countingGenerator struct {
	calls  int
	answer string
	err    error
}

func (c *countingGenerator) Generate(ctx context.Context, systemPrompt, userQuery string, maxOutputTokens int) (string, error) {
	c.calls++
	return c.answer, c.err
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}
func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}
func (brokenCache) Delete(context.Context, string) error         { return nil }
func (brokenCache) DeleteByPrefix(context.Context, string) error { return nil }
func (brokenCache) Close() error                                 { return nil }

func TestCachingGenerator_SecondCallIsCached(t *testing.T) {
	store := cache.NewMemoryClient(10)
	defer store.Close()
	next := &countingGenerator{answer: "Here is a joke."}
	g := NewCachingGenerator(next, store, time.Hour, "openai:gpt-4", nil)

	first, err := g.Generate(context.Background(), "sys", "Tell me a joke!", 150)
	require.NoError(t, err)

	ctx := WithCacheReport(context.Background())
	second, err := g.Generate(ctx, "sys", "tell me a joke", 150)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, next.calls)
	assert.True(t, CacheHit(ctx))
}

func TestCachingGenerator_KeyIncludesPromptAndBudget(t *testing.T) {
	store := cache.NewMemoryClient(10)
	defer store.Close()
	next := &countingGenerator{answer: "a"}
	g := NewCachingGenerator(next, store, time.Hour, "openai:gpt-4", nil)
	ctx := context.Background()

	_, _ = g.Generate(ctx, "sys", "q", 150)
	_, _ = g.Generate(ctx, "other system prompt", "q", 150)
	_, _ = g.Generate(ctx, "sys", "q", 50)

	assert.Equal(t, 3, next.calls)
}

func TestCachingGenerator_ErrorsAreNotCached(t *testing.T) {
	store := cache.NewMemoryClient(10)
	defer store.Close()
	next := &countingGenerator{err: domain.FallbackError("down", nil)}
	g := NewCachingGenerator(next, store, time.Hour, "ns", nil)

	_, err := g.Generate(context.Background(), "sys", "q", 150)
	require.Error(t, err)
	assert.Equal(t, 0, store.Len())

	ctx := WithCacheReport(context.Background())
	_, err = g.Generate(ctx, "sys", "q", 150)
	require.Error(t, err)
	assert.Equal(t, 2, next.calls)
	assert.False(t, CacheHit(ctx))
}

func TestCachingGenerator_CacheFailureDoesNotFailRequest(t *testing.T) {
	next := &countingGenerator{answer: "fresh"}
	g := NewCachingGenerator(next, brokenCache{}, time.Hour, "ns", nil)

	answer, err := g.Generate(context.Background(), "sys", "q", 150)

	require.NoError(t, err)
	assert.Equal(t, "fresh", answer)
}

func TestNew_ComposesDecorators(t *testing.T) {
	cfg := config.DefaultConfig().Fallback
	cfg.APIKey = "sk-test"

	gen, err := New(cfg, nil, time.Hour, nil)
	require.NoError(t, err)
	assert.IsType(t, &RetryingGenerator{}, gen)

	store := cache.NewMemoryClient(10)
	defer store.Close()
	gen, err = New(cfg, store, time.Hour, nil)
	require.NoError(t, err)
	assert.IsType(t, &CachingGenerator{}, gen)

	cfg.MaxRetries = 0
	gen, err = New(cfg, nil, time.Hour, nil)
	require.NoError(t, err)
	assert.IsType(t, &OpenAIGenerator{}, gen)

	cfg.Provider = config.ProviderClaude
	gen, err = New(cfg, nil, time.Hour, nil)
	require.NoError(t, err)
	assert.IsType(t, &ClaudeGenerator{}, gen)
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := New(config.DefaultConfig().Fallback, nil, time.Hour, nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMissingCredential))
}

type failingDeleteCache struct{ brokenCache }

func (failingDeleteCache) Delete(context.Context, string) error {
	return errors.New("connection refused")
}
func (failingDeleteCache) DeleteByPrefix(context.Context, string) error {
	return errors.New("connection refused")
}

func TestCacheInvalidator_ForgetRegeneratesOneQuery(t *testing.T) {
	cfg := config.DefaultConfig().Fallback
	store := cache.NewMemoryClient(10)
	defer store.Close()
	next := &countingGenerator{answer: "a joke"}
	g := NewCachingGenerator(next, store, time.Hour, CacheNamespace(cfg), nil)
	inv := NewCacheInvalidator(store, cfg, nil)
	ctx := context.Background()

	_, _ = g.Generate(ctx, cfg.SystemPrompt, "Tell me a joke", cfg.MaxOutputTokens)
	_, _ = g.Generate(ctx, cfg.SystemPrompt, "tell me a story", cfg.MaxOutputTokens)
	require.Equal(t, 2, store.Len())

	require.NoError(t, inv.Forget(ctx, "tell me a joke!"))
	assert.Equal(t, 1, store.Len())

	_, _ = g.Generate(ctx, cfg.SystemPrompt, "tell me a joke", cfg.MaxOutputTokens)
	_, _ = g.Generate(ctx, cfg.SystemPrompt, "tell me a story", cfg.MaxOutputTokens)
	assert.Equal(t, 3, next.calls)
}

func TestCacheInvalidator_PurgeKeepsOtherModels(t *testing.T) {
	cfg := config.DefaultConfig().Fallback
	other := cfg
	other.Model = cfg.Model + "-mini"

	store := cache.NewMemoryClient(10)
	defer store.Close()
	ctx := context.Background()
	current := NewCachingGenerator(&countingGenerator{answer: "a"}, store, time.Hour, CacheNamespace(cfg), nil)
	mini := NewCachingGenerator(&countingGenerator{answer: "b"}, store, time.Hour, CacheNamespace(other), nil)

	_, _ = current.Generate(ctx, "sys", "q1", 150)
	_, _ = current.Generate(ctx, "sys", "q2", 150)
	_, _ = mini.Generate(ctx, "sys", "q1", 150)
	require.Equal(t, 3, store.Len())

	inv := NewCacheInvalidator(store, cfg, nil)
	require.NoError(t, inv.Purge(ctx))

	assert.Equal(t, 1, store.Len())
	assert.Equal(t, "openai:gpt-4", inv.Namespace())
}

func TestCacheInvalidator_StoreFailure(t *testing.T) {
	inv := NewCacheInvalidator(failingDeleteCache{}, config.DefaultConfig().Fallback, nil)

	err := inv.Forget(context.Background(), "q")
	assert.True(t, errors.Is(err, domain.ErrIO))

	err = inv.Purge(context.Background())
	assert.True(t, errors.Is(err, domain.ErrIO))
}
