package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Config describes a bounded retry policy with exponential backoff.
type Config struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Timeout    time.Duration
}

// Do runs operation with a per-attempt timeout, retrying with
// exponential backoff and jitter until it succeeds or the
// attempt budget is exhausted.
func Do[T any](ctx context.Context, config Config, operation func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		opCtx := ctx
		cancel := context.CancelFunc(func() {})
		if config.Timeout > 0 {
			opCtx, cancel = context.WithTimeout(ctx, config.Timeout)
		}

		result, err := operation(opCtx)
		cancel()

		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt < config.MaxRetries {
			delay := backoffDelay(attempt, config.BaseDelay, config.MaxDelay)
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return zero, fmt.Errorf("operation failed after %d attempts: %w", config.MaxRetries+1, lastErr)
}

func backoffDelay(attempt int, baseDelay, maxDelay time.Duration) time.Duration {
	// Cap the exponent so the shift cannot overflow
	safeAttempt := min(attempt, 30)
	delay := time.Duration(1<<safeAttempt) * baseDelay
	if delay > maxDelay {
		delay = maxDelay
	}

	// Jitter between 0.5x and 1.5x to avoid synchronized retries
	jitter := 0.5 + rand.Float64()
	delay = time.Duration(float64(delay) * jitter)
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}
