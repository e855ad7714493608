// Package retry runs an operation under an explicit retry policy.
//
// Every I/O call site in the keeper receives its Policy from configuration
// so backoff behaviour is visible at the point of use.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// ErrExhausted wraps the last error once all attempts have failed.
var ErrExhausted = errors.New("retries exhausted")

// Policy describes how an operation is retried.
type Policy struct {
	// MaxRetries is the number of attempts after the first one.
	MaxRetries int

	// InitialBackoff is the wait before the first retry.
	InitialBackoff time.Duration

	// MaxBackoff caps the wait between attempts.
	MaxBackoff time.Duration

	// BackoffFactor multiplies the wait after each retry. 1 gives a fixed backoff.
	BackoffFactor float64

	// Jitter adds rand(0, backoff) to each wait.
	Jitter bool
}

// Fixed waits the same delay between up to retries additional attempts.
func Fixed(retries int, delay time.Duration) Policy {
	return Policy{
		MaxRetries:     retries,
		InitialBackoff: delay,
		MaxBackoff:     delay,
		BackoffFactor:  1,
	}
}

// Exponential doubles the wait from initial up to max, with jitter.
func Exponential(retries int, initial, max time.Duration) Policy {
	return Policy{
		MaxRetries:     retries,
		InitialBackoff: initial,
		MaxBackoff:     max,
		BackoffFactor:  2,
		Jitter:         true,
	}
}

// None runs the operation exactly once.
func None() Policy {
	return Policy{}
}

func (p Policy) withDefaults() Policy {
	if p.BackoffFactor <= 0 {
		p.BackoffFactor = 2.0
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = 10 * time.Millisecond
	}
	if p.MaxBackoff < p.InitialBackoff {
		p.MaxBackoff = p.InitialBackoff
	}
	return p
}

// IsRetryableFunc determines if an error should trigger a retry.
type IsRetryableFunc func(error) bool

// Always retries every error.
func Always(error) bool { return true }

// OnRetryFunc is called before each retry attempt. attempt is 1-indexed.
type OnRetryFunc func(attempt int, err error, backoff time.Duration)

// Do calls fn until it succeeds, isRetryable rejects its error, or the policy
// runs out of attempts. Exhaustion returns an error matching ErrExhausted that
// also wraps the last failure.
func Do[T any](
	ctx context.Context,
	p Policy,
	isRetryable IsRetryableFunc,
	onRetry OnRetryFunc,
	fn func() (T, error),
) (T, error) {
	var zero T
	var lastErr error

	if isRetryable == nil {
		isRetryable = Always
	}
	p = p.withDefaults()
	backoff := p.InitialBackoff

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := backoff
			if p.Jitter {
				wait += time.Duration(rand.Int63n(int64(backoff)))
			}

			if onRetry != nil {
				onRetry(attempt, lastErr, wait)
			}

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, fmt.Errorf("context cancelled while retrying: %w", ctx.Err())
			case <-timer.C:
			}

			backoff = time.Duration(float64(backoff) * p.BackoffFactor)
			if backoff > p.MaxBackoff {
				backoff = p.MaxBackoff
			}
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !isRetryable(err) {
			return zero, err
		}
	}

	return zero, fmt.Errorf("%w after %d retries: %w", ErrExhausted, p.MaxRetries, lastErr)
}

// DoVoid is like Do for operations without a result.
func DoVoid(
	ctx context.Context,
	p Policy,
	isRetryable IsRetryableFunc,
	onRetry OnRetryFunc,
	fn func() error,
) error {
	_, err := Do(ctx, p, isRetryable, onRetry, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
