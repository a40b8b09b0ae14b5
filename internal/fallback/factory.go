package fallback

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spherical-ai/spherical/libs/faq-engine/internal/cache"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/config"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/domain"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/observability"
)

// New builds the configured provider, wrapped in retry when max_retries > 0
// and in the answer cache when client is non-nil.
func New(cfg config.FallbackConfig, client cache.Client, cacheTTL time.Duration, logger *observability.Logger) (Generator, error) {
	if cfg.APIKey == "" {
		return nil, domain.MissingCredentialError(fmt.Sprintf("no API key for fallback provider %s", cfg.Provider), nil)
	}

	var gen Generator
	switch cfg.Provider {
	case config.ProviderOpenAI:
		gen = NewOpenAIGenerator(cfg.APIKey, cfg.Model, cfg.BaseURL, &http.Client{Timeout: cfg.Timeout})
	case config.ProviderClaude:
		baseURL := cfg.BaseURL
		if baseURL == defaultOpenAIBaseURL {
			baseURL = ""
		}
		gen = NewClaudeGenerator(cfg.APIKey, cfg.Model, baseURL)
	default:
		return nil, domain.ConfigError(fmt.Sprintf("unknown fallback provider: %s", cfg.Provider), nil)
	}

	if cfg.MaxRetries > 0 {
		gen = NewRetryingGenerator(gen, RetryConfig{
			MaxRetries:     cfg.MaxRetries,
			InitialBackoff: cfg.InitialBackoff,
			MaxBackoff:     cfg.MaxBackoff,
		}, logger)
	}

	if client != nil {
		gen = NewCachingGenerator(gen, client, cacheTTL, CacheNamespace(cfg), logger)
	}

	return gen, nil
}
