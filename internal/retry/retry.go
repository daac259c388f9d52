// Package retry runs an operation under a bounded retry policy with capped
// exponential backoff and a linear jitter term.
package retry

import (
	"context"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"github.com/masteraset/cardfetch/internal/apperrors"
)

// Policy configures Do.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first one.
	MaxAttempts int

	// BaseDelay is the wait after the first failed attempt; it doubles per attempt.
	BaseDelay time.Duration

	// MaxDelay caps the exponential part of the wait.
	MaxDelay time.Duration

	// JitterStep is added once per previous attempt on top of the exponential wait.
	JitterStep time.Duration

	// Retryable decides whether an error is worth another attempt.
	// Defaults to apperrors.IsRetryable.
	Retryable func(error) bool

	// OnRetry is called before each retry with the 1-based number of the failed
	// attempt, the error it produced and the wait before the next attempt.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// DefaultPolicy returns six attempts waiting min(2^i, 20)s + i*200ms after attempt i.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 6,
		BaseDelay:   time.Second,
		MaxDelay:    20 * time.Second,
		JitterStep:  200 * time.Millisecond,
	}
}

// Delay returns the wait after the attempt with the given 0-based index.
func (p Policy) Delay(index int) time.Duration {
	if index < 0 {
		index = 0
	}
	wait := p.BaseDelay
	for i := 0; i < index && (p.MaxDelay <= 0 || wait < p.MaxDelay); i++ {
		wait *= 2
	}
	if p.MaxDelay > 0 && wait > p.MaxDelay {
		wait = p.MaxDelay
	}
	return wait + time.Duration(index)*p.JitterStep
}

func (p Policy) maxAttempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Do calls fn until it succeeds, returns a non-retryable error, the context is done,
// or MaxAttempts is reached. After exhausting attempts the last error is returned
// unchanged.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	retryable := p.Retryable
	if retryable == nil {
		retryable = apperrors.IsRetryable
	}

	builder := retrypolicy.NewBuilder[T]().
		HandleIf(func(_ T, err error) bool {
			return err != nil && ctx.Err() == nil && retryable(err)
		}).
		WithMaxAttempts(p.maxAttempts()).
		WithDelayFunc(func(exec failsafe.ExecutionAttempt[T]) time.Duration {
			return p.Delay(exec.Attempts() - 1)
		}).
		ReturnLastFailure()

	if p.OnRetry != nil {
		builder = builder.OnRetryScheduled(func(e failsafe.ExecutionScheduledEvent[T]) {
			p.OnRetry(e.Attempts(), e.LastError(), e.Delay)
		})
	}

	return failsafe.With[T](builder.Build()).
		WithContext(ctx).
		Get(func() (T, error) {
			return fn(ctx)
		})
}
