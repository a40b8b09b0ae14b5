// Package domain holds the error taxonomy shared by the FAQ engine packages.
package domain

import "fmt"

// ErrorType classifies domain errors.
type ErrorType string

const (
	ErrorTypeSchema     ErrorType = "schema"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeCredential ErrorType = "credential"
	ErrorTypeFallback   ErrorType = "fallback"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a sentinel of the same type, so that
// errors.Is(err, domain.ErrSchema) matches any schema error.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Type == e.Type
}

// Sentinels for errors.Is matching.
var (
	ErrSchema            = &DomainError{Type: ErrorTypeSchema}
	ErrConfig            = &DomainError{Type: ErrorTypeConfig}
	ErrMissingCredential = &DomainError{Type: ErrorTypeCredential}
	ErrFallback          = &DomainError{Type: ErrorTypeFallback}
	ErrValidation        = &DomainError{Type: ErrorTypeValidation}
	ErrIO                = &DomainError{Type: ErrorTypeIO}
)

// NewError creates a new domain error
func NewError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func SchemaError(message string, err error) *DomainError {
	return NewError(ErrorTypeSchema, message, err)
}

func ConfigError(message string, err error) *DomainError {
	return NewError(ErrorTypeConfig, message, err)
}

func MissingCredentialError(message string, err error) *DomainError {
	return NewError(ErrorTypeCredential, message, err)
}

func FallbackError(message string, err error) *DomainError {
	return NewError(ErrorTypeFallback, message, err)
}

func ValidationError(message string, err error) *DomainError {
	return NewError(ErrorTypeValidation, message, err)
}

func IOError(message string, err error) *DomainError {
	return NewError(ErrorTypeIO, message, err)
}
