package neumann

import "github.com/kailas-cloud/neumann/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound          = domain.ErrNotFound
	ErrValidation        = domain.ErrValidation
	ErrVectorDimMismatch = domain.ErrVectorDimMismatch
	ErrUpstream          = domain.ErrUpstream
	ErrUpstreamTimeout   = domain.ErrUpstreamTimeout
	ErrRateLimited       = domain.ErrRateLimited
	ErrMisconfigured     = domain.ErrMisconfigured
)
