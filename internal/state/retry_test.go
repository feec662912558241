package state

import (
	"errors"
	"os"
	"testing"
	"time"
)

func TestRetryPolicyNextDelay(t *testing.T) {
	policy := DefaultAppendRetry()

	if delay := policy.NextDelay(1); delay != 50*time.Millisecond {
		t.Errorf("expected 50ms delay, got %v", delay)
	}
	if delay := policy.NextDelay(2); delay != 100*time.Millisecond {
		t.Errorf("expected 100ms delay, got %v", delay)
	}
}

func TestRetryPolicyMaxDelayCap(t *testing.T) {
	policy := &RetryPolicy{
		MaxAttempts:  10,
		InitialDelay: 100 * time.Millisecond,
		Multiplier:   10.0,
		MaxDelay:     time.Second,
	}

	if delay := policy.NextDelay(5); delay > policy.MaxDelay {
		t.Errorf("delay %v exceeds max delay %v", delay, policy.MaxDelay)
	}
}

func TestRetryPolicyExecuteSuccess(t *testing.T) {
	policy := &RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     10 * time.Millisecond,
	}
	calls := 0

	err := policy.Execute(func() error {
		calls++
		if calls < 3 {
			return errors.New("disk busy")
		}
		return nil
	})

	if err != nil {
		t.Errorf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryPolicyExecuteNonRetryable(t *testing.T) {
	policy := DefaultAppendRetry()
	calls := 0

	err := policy.Execute(func() error {
		calls++
		return os.ErrPermission
	})

	if err == nil {
		t.Error("expected error for non-retryable failure")
	}
	if calls != 1 {
		t.Errorf("expected 1 call for non-retryable error, got %d", calls)
	}
}

func TestRetryPolicyExecuteAllFail(t *testing.T) {
	policy := &RetryPolicy{
		MaxAttempts:  2,
		InitialDelay: time.Millisecond,
		Multiplier:   1.0,
		MaxDelay:     10 * time.Millisecond,
	}
	calls := 0

	err := policy.Execute(func() error {
		calls++
		return errors.New("timeout")
	})

	if err == nil {
		t.Error("expected error after all attempts exhausted")
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}
