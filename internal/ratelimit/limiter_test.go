package ratelimit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitCountsRequests(t *testing.T) {
	l := NewLimiter(Config{Enabled: true, RequestsPerMinute: 600, TokensPerMinute: 6000, BurstSize: 3})

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Wait(context.Background(), 10))
	}

	stats := l.Stats()
	assert.Equal(t, int64(3), stats.TotalRequests)
	assert.Equal(t, int64(30), stats.TotalTokens)
}

func TestWaitDisabledAndNil(t *testing.T) {
	var nilLimiter *Limiter
	require.NoError(t, nilLimiter.Wait(context.Background(), 1))

	l := NewLimiter(Config{Enabled: false})
	require.NoError(t, l.Wait(context.Background(), 1))
	assert.Zero(t, l.Stats().TotalRequests)
}

func TestWaitCancelled(t *testing.T) {
	l := NewLimiter(Config{Enabled: true, RequestsPerMinute: 1, BurstSize: 1})
	require.NoError(t, l.Wait(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, l.Wait(ctx, 0))
}
