package robustness

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the production Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Attempt describes one failed try, passed to OnFailure.
type Attempt struct {
	Number    int
	Max       int
	Err       error
	Retryable bool
	Final     bool
}

// Policy configures Retry.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	// IsRetryable classifies an error. Every error is retried up to
	// MaxAttempts regardless; the classification is reported to OnFailure
	// so callers can log transient and permanent failures differently.
	IsRetryable func(error) bool
	OnFailure   func(Attempt)
	Sleep       Sleeper
}

// RetryError is returned when every attempt failed.
type RetryError struct {
	Attempts int
	Last     error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("failed after %d attempt(s): %v", e.Attempts, e.Last)
}

func (e *RetryError) Unwrap() error {
	return e.Last
}

// Retry runs fn until it succeeds, MaxAttempts is reached, or ctx is done.
// A fixed Delay separates attempts. It returns the number of attempts made.
func Retry(ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) error) (int, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	var last error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if last == nil {
				last = err
			}
			return attempt - 1, &RetryError{Attempts: attempt - 1, Last: last}
		}

		err := fn(ctx, attempt)
		if err == nil {
			return attempt, nil
		}
		last = err

		final := attempt == maxAttempts || errors.Is(err, context.Canceled)
		if p.OnFailure != nil {
			retryable := false
			if p.IsRetryable != nil {
				retryable = p.IsRetryable(err)
			}
			p.OnFailure(Attempt{Number: attempt, Max: maxAttempts, Err: err, Retryable: retryable, Final: final})
		}
		if final {
			return attempt, &RetryError{Attempts: attempt, Last: last}
		}

		if err := sleep(ctx, p.Delay); err != nil {
			return attempt, &RetryError{Attempts: attempt, Last: last}
		}
	}

	return maxAttempts, &RetryError{Attempts: maxAttempts, Last: last}
}
