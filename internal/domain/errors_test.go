package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_IsMatchesByType(t *testing.T) {
	err := SchemaError("missing columns: answer", nil)

	assert.True(t, errors.Is(err, ErrSchema))
	assert.False(t, errors.Is(err, ErrFallback))
	assert.False(t, errors.Is(err, ErrMissingCredential))
}

func TestDomainError_IsThroughWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("ask: %w", FallbackError("generate answer", cause))

	assert.True(t, errors.Is(err, ErrFallback))
	assert.True(t, errors.Is(err, cause))
}

func TestDomainError_Message(t *testing.T) {
	assert.Equal(t, "[config] bad port", ConfigError("bad port", nil).Error())
	assert.Equal(t, "[io] open dataset: boom", IOError("open dataset", errors.New("boom")).Error())
}

func TestDomainError_ConcreteErrorsAreNotSentinels(t *testing.T) {
	a := ValidationError("query is empty", nil)
	b := ValidationError("unknown category", nil)

	// Only bare sentinels act as match targets.
	assert.False(t, errors.Is(a, b))
	assert.True(t, errors.Is(a, ErrValidation))
}
