package httputil

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTransient = errors.New("transient")

func TestRetryable(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	err := Retryable(errTransient)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if err.Error() != errTransient.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if IsRetryable(ErrNotFound) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetry(t *testing.T) {
	ctx := context.Background()

	calls := 0
	if err := Retry(ctx, 3, time.Millisecond, func() error { calls++; return nil }); err != nil || calls != 1 {
		t.Errorf("success: err %v, calls %d", err, calls)
	}

	calls = 0
	err := Retry(ctx, 3, time.Millisecond, func() error { calls++; return ErrNotFound })
	if err != ErrNotFound || calls != 1 {
		t.Errorf("non-retryable: err %v, calls %d", err, calls)
	}

	calls = 0
	err = Retry(ctx, 3, time.Millisecond, func() error {
		calls++
		if calls < 2 {
			return Retryable(errTransient)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retry then success: err %v, calls %d", err, calls)
	}

	calls = 0
	err = Retry(ctx, 3, time.Millisecond, func() error { calls++; return Retryable(errTransient) })
	if !errors.Is(err, errTransient) || calls != 3 {
		t.Errorf("exhausted: err %v, calls %d", err, calls)
	}
}

func TestRetryContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(errTransient)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}
