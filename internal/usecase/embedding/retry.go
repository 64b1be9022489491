package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/neumann/internal/domain"
	"github.com/kailas-cloud/neumann/internal/metrics"
)

// RetryPolicy is a bounded exponential backoff. Attempt n (0-based) waits
// BaseDelay * 2^n * (1 + U(0, Jitter)) before the next try.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Jitter      float64
	// Retryable selects the errors worth another attempt.
	Retryable func(error) bool
}

// DefaultRetryPolicy retries rate-limit and timeout failures up to three attempts in total.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Jitter:      0.1,
		Retryable:   domain.IsRetryable,
	}
}

// Delay returns the wait after the given failed attempt.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	base := float64(p.BaseDelay) * math.Pow(2, float64(attempt))
	if p.Jitter > 0 {
		base *= 1 + rand.Float64()*p.Jitter
	}
	return time.Duration(base)
}

// Do runs fn until it succeeds, fails with a non-retryable error, or runs
// out of attempts. onRetry, if set, is called before each wait.
func Do[T any](ctx context.Context, p RetryPolicy, fn func(context.Context) (T, error), onRetry func(int, error)) (T, error) {
	var zero T
	attempts := max(1, p.MaxAttempts)
	retryable := p.Retryable
	if retryable == nil {
		retryable = domain.IsRetryable
	}

	var lastErr error
	for attempt := range attempts {
		res, err := fn(ctx)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if !retryable(err) || attempt == attempts-1 {
			break
		}
		if onRetry != nil {
			onRetry(attempt, err)
		}

		timer := time.NewTimer(p.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("retry aborted: %w", errors.Join(ctx.Err(), lastErr))
		case <-timer.C:
		}
	}
	return zero, lastErr
}

// RetryingEmbedder applies a RetryPolicy to every call of the inner embedder.
type RetryingEmbedder struct {
	inner  domain.Embedder
	policy RetryPolicy
	logger *zap.Logger
}

// NewRetryingEmbedder wraps inner with policy.
func NewRetryingEmbedder(inner domain.Embedder, policy RetryPolicy, logger *zap.Logger) *RetryingEmbedder {
	return &RetryingEmbedder{inner: inner, policy: policy, logger: logger}
}

// Embed implements domain.Embedder.
func (r *RetryingEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	return Do(ctx, r.policy, func(ctx context.Context) (domain.EmbeddingResult, error) {
		return r.inner.Embed(ctx, text)
	}, r.onRetry)
}

// BatchEmbed implements domain.BatchEmbedder. The inner embedder must support batches.
func (r *RetryingEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	be, ok := r.inner.(domain.BatchEmbedder)
	if !ok {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("%w: embedder does not support batches", domain.ErrMisconfigured)
	}
	return Do(ctx, r.policy, func(ctx context.Context) (domain.BatchEmbeddingResult, error) {
		return be.BatchEmbed(ctx, texts)
	}, r.onRetry)
}

// HealthCheck delegates to the inner embedder when it supports health checks.
func (r *RetryingEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := r.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // pass-through decorator
	}
	return nil
}

func (r *RetryingEmbedder) onRetry(attempt int, err error) {
	reason := "timeout"
	if errors.Is(err, domain.ErrRateLimited) {
		reason = "rate_limited"
	}
	metrics.EmbeddingRetriesTotal.WithLabelValues(reason).Inc()
	r.logger.Warn("Retrying embedding request",
		zap.Int("attempt", attempt+1),
		zap.String("reason", reason),
		zap.Error(err),
	)
}
