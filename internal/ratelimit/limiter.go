package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter paces generation requests by request count and estimated tokens.
type Limiter struct {
	requests *rate.Limiter
	tokens   *rate.Limiter
	enabled  bool
	mu       sync.Mutex

	totalRequests int64
	totalTokens   int64
}

// Config holds rate limiter configuration.
type Config struct {
	Enabled           bool  `yaml:"enabled"`
	RequestsPerMinute int   `yaml:"requests_per_minute"`
	TokensPerMinute   int64 `yaml:"tokens_per_minute"`
	BurstSize         int   `yaml:"burst_size"`
}

// DefaultConfig returns the default rate limiter configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		RequestsPerMinute: 30,
		TokensPerMinute:   1000000,
		BurstSize:         5,
	}
}

// NewLimiter creates a new rate limiter with the given configuration.
func NewLimiter(cfg Config) *Limiter {
	burst := cfg.BurstSize
	if burst < 1 {
		burst = 1
	}
	reqLimit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		reqLimit = rate.Limit(float64(cfg.RequestsPerMinute) / 60.0)
	}

	tokLimit := rate.Inf
	tokBurst := 1
	if cfg.TokensPerMinute > 0 {
		tokLimit = rate.Limit(float64(cfg.TokensPerMinute) / 60.0)
		// One tenth of the per-minute budget may be spent at once.
		tokBurst = int(cfg.TokensPerMinute / 10)
		if tokBurst < 1 {
			tokBurst = 1
		}
	}

	return &Limiter{
		requests: rate.NewLimiter(reqLimit, burst),
		tokens:   rate.NewLimiter(tokLimit, tokBurst),
		enabled:  cfg.Enabled,
	}
}

// Wait blocks until a request slot and estimatedTokens of capacity are
// available, or ctx is done.
func (l *Limiter) Wait(ctx context.Context, estimatedTokens int64) error {
	if l == nil || !l.isEnabled() {
		return nil
	}

	if err := l.requests.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if estimatedTokens > 0 {
		n := int(estimatedTokens)
		if n > l.tokens.Burst() {
			n = l.tokens.Burst()
		}
		if err := l.tokens.WaitN(ctx, n); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	l.mu.Lock()
	l.totalRequests++
	l.totalTokens += estimatedTokens
	l.mu.Unlock()
	return nil
}

// Stats holds rate limiter statistics.
type Stats struct {
	Enabled       bool
	TotalRequests int64
	TotalTokens   int64
}

// Stats returns rate limiter statistics.
func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Stats{Enabled: l.enabled, TotalRequests: l.totalRequests, TotalTokens: l.totalTokens}
}

func (l *Limiter) isEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

// EstimateTokens estimates the number of tokens for a message.
// This is a rough estimate based on character count.
func EstimateTokens(message string) int64 {
	return int64(len(message) / 4)
}
