package fallback

import (
	"context"
	"math"
	"time"

	"github.com/spherical-ai/spherical/libs/faq-engine/internal/domain"
	"github.com/spherical-ai/spherical/libs/faq-engine/internal/observability"
)

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     2,
		InitialBackoff: time.Second,
		MaxBackoff:     10 * time.Second,
	}
}

// RetryingGenerator retries retryable failures of the wrapped generator with
// capped exponential backoff.
type RetryingGenerator struct {
	next   Generator
	config RetryConfig
	logger *observability.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewRetryingGenerator wraps next.
func NewRetryingGenerator(next Generator, config RetryConfig, logger *observability.Logger) *RetryingGenerator {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &RetryingGenerator{
		next:   next,
		config: config,
		logger: logger.WithComponent("fallback_retry"),
		sleep:  sleepContext,
	}
}

// Generate calls the wrapped generator up to MaxRetries+1 times.
func (g *RetryingGenerator) Generate(ctx context.Context, systemPrompt, userQuery string, maxOutputTokens int) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= g.config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", domain.FallbackError("fallback cancelled", err)
		}

		answer, err := g.next.Generate(ctx, systemPrompt, userQuery, maxOutputTokens)
		if err == nil {
			return answer, nil
		}
		lastErr = err

		if !IsRetryable(err) || attempt == g.config.MaxRetries {
			break
		}

		backoff := calculateBackoff(attempt, g.config)
		g.logger.WithContext(ctx).Warn().
			Int("attempt", attempt+1).
			Int("max_retries", g.config.MaxRetries).
			Dur("backoff", backoff).
			Err(err).
			Msg("Fallback request failed, retrying")

		if err := g.sleep(ctx, backoff); err != nil {
			return "", domain.FallbackError("fallback cancelled", err)
		}
	}

	return "", lastErr
}

// calculateBackoff calculates exponential backoff duration
func calculateBackoff(attempt int, config RetryConfig) time.Duration {
	backoff := float64(config.InitialBackoff) * math.Pow(2, float64(attempt))
	if config.MaxBackoff > 0 && backoff > float64(config.MaxBackoff) {
		backoff = float64(config.MaxBackoff)
	}
	return time.Duration(backoff)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
