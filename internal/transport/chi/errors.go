package chi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/neumann/internal/db"
	"github.com/kailas-cloud/neumann/internal/domain"
	"github.com/kailas-cloud/neumann/internal/logger"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

var errorHandlers = []errorHandler{
	messageHandler(domain.ErrValidation, http.StatusBadRequest, CodeValidationFailed),
	messageHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, CodeValidationFailed),
	sentinelHandler(domain.ErrMisconfigured, http.StatusBadRequest, CodeMisconfigured,
		"embedding provider is not configured; semantic search is unavailable"),
	sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound, "not found"),
	sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited,
		"embedding provider rate limit exceeded"),
	sentinelHandler(domain.ErrUpstreamTimeout, http.StatusBadGateway, CodeUpstreamTimeout,
		"upstream search error: embedding provider timed out"),
	sentinelHandler(domain.ErrUpstream, http.StatusBadGateway, CodeUpstreamError,
		"upstream search error"),
	storeErrorHandler,
}

// storeErrorHandler reports vector-index service failures as upstream errors.
func storeErrorHandler(w http.ResponseWriter, err error) bool {
	var dbErr *db.Error
	if !errors.As(err, &dbErr) {
		return false
	}
	writeError(w, http.StatusBadGateway, CodeUpstreamError, "upstream search error: vector index unavailable")
	return true
}

// sentinelHandler matches a single sentinel and replies with a fixed message.
func sentinelHandler(sentinel error, status int, code ErrorCode, msg string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// messageHandler matches a sentinel whose wrapped message is safe to show.
func messageHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

func handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	for _, h := range errorHandlers {
		if h(w, err) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
