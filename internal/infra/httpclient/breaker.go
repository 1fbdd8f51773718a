package httpclient

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/elidorascodex/tecflow/internal/infra/config"
)

// ErrServerFailure marks a 5xx response counted against the breaker. The response is still
// returned to the caller.
var ErrServerFailure = errors.New("upstream server error")

// Breaker wraps a Doer with a circuit breaker. Transport errors and 5xx responses count as
// failures; 4xx responses and 202 polling replies do not.
type Breaker struct {
	next Doer
	cb   *gobreaker.CircuitBreaker[*http.Response]
}

// NewBreaker wraps next. When cfg.Enabled is false, next is returned unchanged.
func NewBreaker(name string, next Doer, cfg config.BreakerConfig, logger *zap.Logger) Doer {
	if !cfg.Enabled {
		return next
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxHalfOpenRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil
		},
	}

	return &Breaker{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[*http.Response](settings),
	}
}

// Do sends req through the breaker.
func (b *Breaker) Do(req *http.Request) (*http.Response, error) {
	var served *http.Response
	resp, err := b.cb.Execute(func() (*http.Response, error) {
		resp, err := b.next.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			served = resp
			return nil, fmt.Errorf("%w: HTTP %d", ErrServerFailure, resp.StatusCode)
		}
		return resp, nil
	})
	if errors.Is(err, ErrServerFailure) && served != nil {
		return served, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", req.URL.Path, err)
	}
	return resp, nil
}

// State returns the breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
