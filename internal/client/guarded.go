package client

import (
	"context"

	"appforge/internal/logging"
	"appforge/internal/ratelimit"
	"appforge/internal/robustness"
)

// Guarded paces calls through a rate limiter and stops calling a backend
// that keeps failing.
type Guarded struct {
	inner   Client
	limiter *ratelimit.Limiter
	breaker *robustness.CircuitBreaker
}

// NewGuarded wraps inner. A nil limiter or breaker disables that guard.
func NewGuarded(inner Client, limiter *ratelimit.Limiter, breaker *robustness.CircuitBreaker) *Guarded {
	if breaker != nil {
		name := inner.Name()
		breaker.OnStateChange(func(from, to robustness.State) {
			logging.Warn("generation circuit breaker changed state",
				"client", name, "from", from.String(), "to", to.String())
		})
	}
	return &Guarded{inner: inner, limiter: limiter, breaker: breaker}
}

// Name returns the wrapped client's name.
func (g *Guarded) Name() string {
	return g.inner.Name()
}

// Generate waits for rate-limit capacity, then calls the backend through the
// circuit breaker.
func (g *Guarded) Generate(ctx context.Context, req *Request) (*Response, error) {
	if err := g.limiter.Wait(ctx, estimateRequestTokens(req)); err != nil {
		return nil, err
	}

	if g.breaker == nil {
		return g.inner.Generate(ctx, req)
	}

	var resp *Response
	err := g.breaker.Execute(ctx, func() error {
		var genErr error
		resp, genErr = g.inner.Generate(ctx, req)
		return genErr
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Close closes the wrapped client.
func (g *Guarded) Close() error {
	return g.inner.Close()
}

func estimateRequestTokens(req *Request) int64 {
	if req == nil {
		return 0
	}
	n := ratelimit.EstimateTokens(req.SystemPrompt)
	for _, content := range req.History {
		if content == nil {
			continue
		}
		for _, part := range content.Parts {
			if part != nil {
				n += ratelimit.EstimateTokens(part.Text)
			}
		}
	}
	return n
}
