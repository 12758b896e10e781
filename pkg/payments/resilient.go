package payments

import (
	"context"
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// ResilientProvider wraps a Provider with retry and a circuit breaker so a
// flaky payment service doesn't cascade into checkout failures. The
// idempotency key on session creation is what makes the retries safe.
type ResilientProvider struct {
	provider Provider
	breaker  circuitbreaker.CircuitBreaker[*Session]
	retrier  retry.Retry[*Session]
	log      logger.Logger
}

func NewResilientProvider(provider Provider) *ResilientProvider {
	rp := &ResilientProvider{
		provider: provider,
		log:      logger.New(),
	}

	rp.breaker = circuitbreaker.New[*Session](circuitbreaker.Config{
		MaxRequests: 2,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(from, to circuitbreaker.State) {
			rp.log.Warn("payment provider circuit state change", logger.Data{
				"from": from.String(),
				"to":   to.String(),
			})
		},
	})

	rp.retrier = retry.New[*Session](retry.Config{
		MaxAttempts:   3,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		Multiplier:    2.0,
		BackoffPolicy: retry.BackoffExponential,
		Jitter:        true,
		IsRetryable:   isRetryableProviderError,
	})

	return rp
}

func (p *ResilientProvider) CreateSession(ctx context.Context, input CreateSessionInput) (*Session, error) {
	return p.breaker.Execute(ctx, func(ctx context.Context) (*Session, error) {
		return p.retrier.Do(ctx, func(ctx context.Context) (*Session, error) {
			return p.provider.CreateSession(ctx, input)
		})
	})
}

func (p *ResilientProvider) RetrieveSession(ctx context.Context, sessionID string) (*Session, error) {
	return p.breaker.Execute(ctx, func(ctx context.Context) (*Session, error) {
		return p.retrier.Do(ctx, func(ctx context.Context) (*Session, error) {
			return p.provider.RetrieveSession(ctx, sessionID)
		})
	})
}

func isRetryableProviderError(err error) bool {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		// Transport-level errors (timeouts, connection resets) are retryable.
		return true
	}
	return pe.StatusCode == http.StatusTooManyRequests || pe.StatusCode >= http.StatusInternalServerError
}
