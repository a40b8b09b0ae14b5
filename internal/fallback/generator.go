// Package fallback produces answers from a generative language model when the
// reference table has no confident match.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Generator produces a free-text answer for a user query. Implementations
// return errors matching domain.ErrFallback for every failure mode.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userQuery string, maxOutputTokens int) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, systemPrompt, userQuery string, maxOutputTokens int) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, systemPrompt, userQuery string, maxOutputTokens int) (string, error) {
	return f(ctx, systemPrompt, userQuery, maxOutputTokens)
}

// StatusError is a non-2xx reply from a provider.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// IsRetryable reports whether err is worth another attempt: throttling,
// server-side failures and transport errors. Cancellation is never retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return shouldRetry(statusErr.StatusCode)
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// shouldRetry determines if a status code is retryable
func shouldRetry(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		529: // provider overloaded
		return true
	default:
		return false
	}
}
