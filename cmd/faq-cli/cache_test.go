package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/spherical/libs/faq-engine/internal/cache"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/config"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/domain"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/fallback"
)

func TestClearCache(t *testing.T) {
	fb := config.DefaultConfig().Fallback
	gen := fallback.GeneratorFunc(func(ctx context.Context, systemPrompt, userQuery string, maxOutputTokens int) (string, error) {
		return "generated", nil
	})

	tests := []struct {
		name     string
		query    string
		wantLeft int
		wantOut  string
	}{
		{name: "purge namespace", wantLeft: 0, wantOut: "Removed cached answers for openai:gpt-4"},
		{name: "forget one query", query: "Tell me a joke", wantLeft: 1, wantOut: `Removed the cached answer for "Tell me a joke"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := cache.NewMemoryClient(10)
			defer store.Close()
			ctx := context.Background()
			caching := fallback.NewCachingGenerator(gen, store, time.Hour, fallback.CacheNamespace(fb), nil)
			_, _ = caching.Generate(ctx, fb.SystemPrompt, "tell me a joke", fb.MaxOutputTokens)
			_, _ = caching.Generate(ctx, fb.SystemPrompt, "tell me a story", fb.MaxOutputTokens)
			require.Equal(t, 2, store.Len())

			var out bytes.Buffer
			ui := NewUI(strings.NewReader(""), &out, false)
			err := clearCache(ctx, ui, fallback.NewCacheInvalidator(store, fb, nil), tt.query)

			require.NoError(t, err)
			assert.Equal(t, tt.wantLeft, store.Len())
			assert.Contains(t, out.String(), tt.wantOut)
		})
	}
}

func TestOpenSharedCache_RejectsProcessLocalDrivers(t *testing.T) {
	for _, driver := range []string{config.CacheNone, config.CacheMemory} {
		t.Run(driver, func(t *testing.T) {
			_, err := openSharedCache(context.Background(), config.CacheConfig{Driver: driver})
			assert.True(t, errors.Is(err, domain.ErrConfig))
		})
	}
}
