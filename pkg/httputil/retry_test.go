package httputil

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errBackend = errors.New("backend down")

func TestRetryable(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(errBackend)
	if !IsRetryable(err) {
		t.Error("IsRetryable should be true for wrapped error")
	}
	if !errors.Is(err, errBackend) {
		t.Error("wrapped error should unwrap to the cause")
	}
	if err.Error() != errBackend.Error() {
		t.Errorf("message = %q", err.Error())
	}
	if IsRetryable(errBackend) {
		t.Error("plain error should not be retryable")
	}
}

func TestRetry(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		failures  int
		retryable bool
		wantCalls int
		wantErr   bool
	}{
		{"success first try", 0, true, 1, false},
		{"recovers after one failure", 1, true, 2, false},
		{"exhausts attempts", 5, true, 3, true},
		{"permanent error", 5, false, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Policy{Attempts: 3, Delay: time.Millisecond}.Do(ctx, func() error {
				calls++
				if calls <= tt.failures {
					if tt.retryable {
						return Retryable(errBackend)
					}
					return errBackend
				}
				return nil
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryZeroAttempts(t *testing.T) {
	calls := 0
	_ = Policy{}.Do(context.Background(), func() error {
		calls++
		return Retryable(errBackend)
	})
	if calls != 1 {
		t.Errorf("calls = %d, want exactly one attempt", calls)
	}
}

func TestPolicyOnce(t *testing.T) {
	calls := 0
	err := DefaultPolicy.Once().Do(context.Background(), func() error {
		calls++
		return Retryable(errBackend)
	})
	if calls != 1 || !errors.Is(err, errBackend) {
		t.Errorf("calls = %d, err = %v; want one failed attempt", calls, err)
	}
	if DefaultPolicy.Attempts != 3 {
		t.Error("Once modified DefaultPolicy")
	}
}

func TestCause(t *testing.T) {
	if got := Cause(Retryable(errBackend)); got != errBackend {
		t.Errorf("Cause() = %v, want the wrapped error", got)
	}
	if got := Cause(errBackend); got != errBackend {
		t.Errorf("Cause() of a plain error = %v", got)
	}
	if Cause(nil) != nil {
		t.Error("Cause(nil) != nil")
	}
}

func TestRetryContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := DefaultPolicy.Do(ctx, func() error {
		return Retryable(errBackend)
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
