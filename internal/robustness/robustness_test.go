package robustness

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noSleep(delays *[]time.Duration) Sleeper {
	return func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return ctx.Err()
	}
}

func TestRetryRetriesRegardlessOfClassification(t *testing.T) {
	var delays []time.Duration
	var seen []Attempt
	permanent := errors.New("invalid api key")

	attempts, err := Retry(context.Background(), Policy{
		MaxAttempts: 3,
		Delay:       10 * time.Second,
		IsRetryable: func(error) bool { return false },
		OnFailure:   func(a Attempt) { seen = append(seen, a) },
		Sleep:       noSleep(&delays),
	}, func(ctx context.Context, attempt int) error {
		return permanent
	})

	require.ErrorIs(t, err, permanent)
	var re *RetryError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, re.Attempts)
	assert.Equal(t, []time.Duration{10 * time.Second, 10 * time.Second}, delays)
	require.Len(t, seen, 3)
	assert.False(t, seen[0].Retryable)
	assert.True(t, seen[2].Final)
}

func TestRetryStopsOnSuccess(t *testing.T) {
	var delays []time.Duration
	attempts, err := Retry(context.Background(), Policy{
		MaxAttempts: 3,
		Delay:       time.Second,
		Sleep:       noSleep(&delays),
	}, func(ctx context.Context, attempt int) error {
		if attempt < 2 {
			return errors.New("timeout")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Len(t, delays, 1)
}

func TestRetryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	_, err := Retry(ctx, Policy{
		MaxAttempts: 5,
		Sleep: func(ctx context.Context, d time.Duration) error {
			cancel()
			return ctx.Err()
		},
	}, func(ctx context.Context, attempt int) error {
		calls++
		return errors.New("connection reset")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestCircuitBreakerOpensAndRecovers(t *testing.T) {
	now := time.Unix(0, 0)
	cb := NewCircuitBreaker(2, time.Minute)
	cb.now = func() time.Time { return now }

	var transitions []State
	cb.OnStateChange(func(_, to State) { transitions = append(transitions, to) })

	boom := errors.New("503 service unavailable")
	ctx := context.Background()
	require.ErrorIs(t, cb.Execute(ctx, func() error { return boom }), boom)
	require.ErrorIs(t, cb.Execute(ctx, func() error { return boom }), boom)
	assert.Equal(t, StateOpen, cb.GetState())

	require.ErrorIs(t, cb.Execute(ctx, func() error { return nil }), ErrCircuitOpen)

	now = now.Add(2 * time.Minute)
	require.NoError(t, cb.Execute(ctx, func() error { return nil }))
	assert.Equal(t, StateClosed, cb.GetState())
	assert.Equal(t, []State{StateOpen, StateHalfOpen, StateClosed}, transitions)
}
