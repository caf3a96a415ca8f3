package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing tender, company or history entry.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput signals a malformed request (bad filters, negative limit).
	ErrInvalidInput = errors.New("invalid input")
	// ErrUpstreamUnavailable signals a failing collaborator (store, LLM, embedder).
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = fmt.Errorf("embedding provider error: %w", ErrUpstreamUnavailable)
	// ErrExtractionFailed signals that metadata extraction produced nothing usable.
	ErrExtractionFailed = fmt.Errorf("metadata extraction failed: %w", ErrUpstreamUnavailable)
)

// UpstreamError names the collaborator behind an ErrUpstreamUnavailable.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrUpstreamUnavailable.Error(), e.Service, e.Err)
}

// Unwrap exposes both the sentinel and the cause to errors.Is / errors.As.
func (e *UpstreamError) Unwrap() []error { return []error{ErrUpstreamUnavailable, e.Err} }

// NewUpstreamError wraps err as an upstream failure of service.
func NewUpstreamError(service string, err error) error {
	return &UpstreamError{Service: service, Err: err}
}

// InvalidInputf formats a validation error wrapping ErrInvalidInput.
func InvalidInputf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
