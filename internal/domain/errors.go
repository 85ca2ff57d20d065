package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals missing or malformed caller input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrUpstream signals a failed call to the registry or an AI provider.
	ErrUpstream = errors.New("upstream error")
	// ErrStore signals a store failure (connection, write, index).
	ErrStore = errors.New("store error")
	// ErrDataShape signals a raw record that cannot be normalized.
	ErrDataShape = errors.New("unusable raw record")

	// ErrTrialNotFound signals a missing trial.
	ErrTrialNotFound = fmt.Errorf("trial %w", ErrNotFound)
	// ErrQueryRequired signals a search without a query string.
	ErrQueryRequired = fmt.Errorf("%w: query parameter \"q\" is required", ErrValidation)
	// ErrRateLimited signals an upstream rate limit hit.
	ErrRateLimited = fmt.Errorf("%w: rate limited", ErrUpstream)
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = fmt.Errorf("%w: embedding provider", ErrUpstream)
	// ErrSummaryProviderError signals a summary provider failure.
	ErrSummaryProviderError = fmt.Errorf("%w: summary provider", ErrUpstream)
	// ErrGeocoderError signals a geocoding provider failure.
	ErrGeocoderError = fmt.Errorf("%w: geocoder", ErrUpstream)
	// ErrTokenBudgetExceeded signals that the AI token budget is spent.
	ErrTokenBudgetExceeded = errors.New("AI token budget exceeded")
)

// ValidationError names the offending input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidation.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a validation error for field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
