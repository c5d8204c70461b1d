package circuitbreaker

import (
	"time"

	"github.com/sony/gobreaker"
	apperrors "github.com/stockdash/portfolio_service/pkg/errors"
	"github.com/stockdash/portfolio_service/pkg/metrics"
)

type Config struct {
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// MinRequests is the sample size required before the failure ratio is considered
	MinRequests  uint32
	FailureRatio float64
}

func DefaultConfig() Config {
	return Config{
		MaxRequests:  3,
		Interval:     10 * time.Second,
		Timeout:      60 * time.Second,
		MinRequests:  3,
		FailureRatio: 0.6,
	}
}

// New builds a breaker that only counts infrastructure faults as failures.
// A missing portfolio or a validation error never opens it.
func New(name string, cfg Config) *gobreaker.CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !apperrors.IsCircuitBreakerError(err)
		},
		OnStateChange: func(name string, _, to gobreaker.State) {
			metrics.UpdateCircuitBreakerState(name, StateValue(to))
		},
	}
	return gobreaker.NewCircuitBreaker(settings)
}

// StateValue maps a breaker state onto the gauge: 0 closed, 1 half-open, 2 open
func StateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
