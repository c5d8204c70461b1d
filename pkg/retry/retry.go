package retry

import (
	"context"
	"fmt"
	"math"
	"time"
)

// RetryConfig holds configuration for retry behavior
type RetryConfig struct {
	MaxAttempts int           // total attempts, including the first one
	BaseDelay   time.Duration // delay before the second attempt
	MaxDelay    time.Duration
	Multiplier  float64
}

// DefaultConfig returns the retry configuration used for store writes
func DefaultConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   50 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		Multiplier:  2.0,
	}
}

// WithAttempts returns a copy of the config with MaxAttempts set.
// Values below one are treated as a single attempt.
func (c RetryConfig) WithAttempts(n int) RetryConfig {
	if n < 1 {
		n = 1
	}
	c.MaxAttempts = n
	return c
}

// Delay returns the wait before the given zero-based retry
func (c RetryConfig) Delay(attempt int) time.Duration {
	delay := time.Duration(float64(c.BaseDelay) * math.Pow(c.Multiplier, float64(attempt)))
	if c.MaxDelay > 0 && delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	return delay
}

// RetryableFunc represents a function that can be retried
type RetryableFunc func() error

// IsRetryableFunc determines if an error should trigger a retry
type IsRetryableFunc func(error) bool

// WithExponentialBackoff retries fn until it succeeds, returns a
// non-retryable error, runs out of attempts, or ctx is done.
// The last error is always reachable through errors.Is/As.
func WithExponentialBackoff(
	ctx context.Context,
	config RetryConfig,
	fn RetryableFunc,
	isRetryable IsRetryableFunc,
) error {
	attempts := config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if isRetryable == nil || !isRetryable(err) {
			return err
		}

		if attempt == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled by context: %w", lastErr)
		case <-time.After(config.Delay(attempt)):
		}
	}

	if attempts == 1 {
		return lastErr
	}
	return fmt.Errorf("max retry attempts (%d) exceeded: %w", attempts, lastErr)
}
