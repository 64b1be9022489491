package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrValidation signals invalid caller-supplied parameters.
	ErrValidation = errors.New("validation failed")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")

	// ErrUpstream signals a failure of the vector index or the embedding provider.
	ErrUpstream = errors.New("upstream dependency error")
	// ErrUpstreamTimeout signals an upstream call that timed out. Retryable.
	ErrUpstreamTimeout = errors.New("upstream timeout")
	// ErrRateLimited signals a rate limit hit. Retryable.
	ErrRateLimited = errors.New("rate limited")
	// ErrMisconfigured signals missing credentials or settings. Never retried.
	ErrMisconfigured = errors.New("misconfigured")
)

// DimensionMismatchError wraps ErrVectorDimMismatch with the offending model and sizes.
type DimensionMismatchError struct {
	Model string
	Want  int
	Got   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: model %s expects %d, got %d", ErrVectorDimMismatch.Error(), e.Model, e.Want, e.Got)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrVectorDimMismatch }

// NewDimensionMismatch creates a dimension mismatch error.
func NewDimensionMismatch(model string, want, got int) error {
	return &DimensionMismatchError{Model: model, Want: want, Got: got}
}

// IsRetryable reports whether err belongs to the rate-limit or timeout classes.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUpstreamTimeout)
}
