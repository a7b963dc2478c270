package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// retrySleep is swapped out in tests so backoff never blocks.
var retrySleep = sleepContext

func sleepContext(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// retriesExhaustedError reports that every attempt of a retried operation
// failed; Last carries the final attempt's error.
type retriesExhaustedError struct {
	Op       string
	Attempts int
	Last     error
}

func (e *retriesExhaustedError) Error() string {
	return fmt.Sprintf("%s: all %d attempts failed: %v", e.Op, e.Attempts, e.Last)
}

func (e *retriesExhaustedError) Unwrap() error { return e.Last }

// withRetry runs op up to maxAttempts times with full-jitter exponential
// backoff between failures (baseDelay*2^attempt plus up to 1s of jitter).
// The wrapped operation must be safe to repeat; only read-style calls are
// retried here. Backoff waits abort when ctx is cancelled.
func withRetry[T any](ctx context.Context, op string, maxAttempts int, baseDelay time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		logger.Warn("api call failed", "op", op, "attempt", attempt+1, "max_attempts", maxAttempts, "error", err)
		if attempt == maxAttempts-1 {
			break
		}
		delay := baseDelay*(1<<attempt) + time.Duration(rand.Int63n(int64(time.Second)))
		if !retrySleep(ctx, delay) {
			// Keep the operation's own failure alongside the cancellation so
			// logs still show what the API said.
			return zero, &retriesExhaustedError{Op: op, Attempts: attempt + 1, Last: errors.Join(lastErr, ctx.Err())}
		}
	}
	return zero, &retriesExhaustedError{Op: op, Attempts: maxAttempts, Last: lastErr}
}
