package main

import (
	"context"
	"errors"
	"testing"
	"time"
)

func stubRetrySleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var delays []time.Duration
	orig := retrySleep
	retrySleep = func(ctx context.Context, d time.Duration) bool {
		delays = append(delays, d)
		return ctx.Err() == nil
	}
	t.Cleanup(func() { retrySleep = orig })
	return &delays
}

func TestWithRetryFirstAttemptSucceeds(t *testing.T) {
	delays := stubRetrySleep(t)
	calls := 0
	v, err := withRetry(context.Background(), "count", 3, time.Second, func(context.Context) (int, error) {
		calls++
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Fatalf("value = %d, want 42", v)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if len(*delays) != 0 {
		t.Fatalf("slept %d times, want 0", len(*delays))
	}
}

func TestWithRetryRecoversAfterFailures(t *testing.T) {
	delays := stubRetrySleep(t)
	calls := 0
	v, err := withRetry(context.Background(), "count", 3, time.Second, func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("boom")
		}
		return 7, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 7 {
		t.Fatalf("value = %d, want 7", v)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	if len(*delays) != 2 {
		t.Fatalf("slept %d times, want 2", len(*delays))
	}
	// Full jitter: base*2^attempt plus up to one extra second.
	for i, d := range *delays {
		lo := time.Second * (1 << i)
		hi := lo + time.Second
		if d < lo || d >= hi {
			t.Fatalf("delay[%d] = %v, want in [%v, %v)", i, d, lo, hi)
		}
	}
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	stubRetrySleep(t)
	cause := errors.New("connection refused")
	calls := 0
	_, err := withRetry(context.Background(), "count", 3, time.Second, func(context.Context) (int, error) {
		calls++
		return 0, cause
	})
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	var exhausted *retriesExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("error = %v, want retriesExhaustedError", err)
	}
	if exhausted.Attempts != 3 {
		t.Fatalf("attempts = %d, want 3", exhausted.Attempts)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("error does not wrap the last failure: %v", err)
	}
}

func TestWithRetryAbortsOnCancelledContext(t *testing.T) {
	stubRetrySleep(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cause := errors.New("boom")
	calls := 0
	_, err := withRetry(ctx, "count", 3, time.Second, func(context.Context) (int, error) {
		calls++
		return 0, cause
	})
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if err == nil {
		t.Fatal("expected error after aborted backoff")
	}
	// The aborted backoff keeps the operation's own failure alongside the
	// cancellation.
	if !errors.Is(err, cause) {
		t.Fatalf("error lost the operation failure: %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error lost the cancellation: %v", err)
	}
}
