package httputil

import (
	"context"
	"errors"
	"time"
)

// RetryableError marks a failure as transient. [Policy.Do] only retries
// errors carrying this wrapper.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err in a RetryableError. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err is wrapped with RetryableError.
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// Cause strips the retry marker so callers see the underlying error.
func Cause(err error) error {
	var re *RetryableError
	if errors.As(err, &re) {
		return re.Err
	}
	return err
}

// Policy bounds how often a backend call is attempted. The delay doubles
// after every failed attempt.
type Policy struct {
	Attempts int
	Delay    time.Duration
}

// DefaultPolicy is 3 attempts starting with a 1 second delay.
var DefaultPolicy = Policy{Attempts: 3, Delay: time.Second}

// Once is a policy that never retries.
func (p Policy) Once() Policy {
	p.Attempts = 1
	return p
}

// Do calls fn until it succeeds, fails with a non-retryable error, or the
// attempts run out, in which case the last error is returned. A cancelled
// ctx ends the wait between attempts with ctx.Err().
func (p Policy) Do(ctx context.Context, fn func() error) error {
	delay := p.Delay
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil || !IsRetryable(err) {
			return err
		}
		if attempt >= p.Attempts {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
}
