package client

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"appforge/internal/config"
	"appforge/internal/ratelimit"
	"appforge/internal/robustness"
)

// Client is a remote text-generation backend that can request tool calls.
type Client interface {
	// Generate sends one request and returns the model's reply.
	Generate(ctx context.Context, req *Request) (*Response, error)

	// Name returns the provider and model, e.g. "gemini/gemini-2.5-pro".
	Name() string

	// Close releases backend resources.
	Close() error
}

// Request is a single generation call.
type Request struct {
	SystemPrompt string
	History      []*genai.Content
	Tools        []*genai.FunctionDeclaration
}

// Response is the model's reply to a Request.
type Response struct {
	Text          string
	FunctionCalls []*genai.FunctionCall
	InputTokens   int
	OutputTokens  int
}

// HasFunctionCalls reports whether the model asked for tool invocations.
func (r *Response) HasFunctionCalls() bool {
	return r != nil && len(r.FunctionCalls) > 0
}

// Content converts the response into a model-role history entry.
func (r *Response) Content() *genai.Content {
	var parts []*genai.Part
	if r.Text != "" {
		parts = append(parts, genai.NewPartFromText(r.Text))
	}
	for _, fc := range r.FunctionCalls {
		parts = append(parts, &genai.Part{FunctionCall: fc})
	}
	if len(parts) == 0 {
		parts = []*genai.Part{genai.NewPartFromText(" ")}
	}
	return &genai.Content{Role: genai.RoleModel, Parts: parts}
}

// NewClient builds the configured backend wrapped with rate limiting and a
// circuit breaker.
func NewClient(ctx context.Context, cfg *config.Config) (Client, error) {
	var (
		backend Client
		err     error
	)

	switch strings.ToLower(cfg.API.Provider) {
	case "gemini", "":
		backend, err = NewGeminiClient(ctx, GeminiConfig{
			APIKey:          cfg.API.GeminiKey,
			Model:           cfg.ModelName(),
			Temperature:     cfg.API.Temperature,
			MaxOutputTokens: cfg.API.MaxOutputTokens,
		})
	case "ollama":
		backend, err = NewOllamaClient(OllamaConfig{
			BaseURL:     cfg.API.OllamaBaseURL,
			Model:       cfg.ModelName(),
			Temperature: cfg.API.Temperature,
			MaxTokens:   int(cfg.API.MaxOutputTokens),
			HTTPTimeout: cfg.API.RequestTimeout,
		})
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownProvider, cfg.API.Provider)
	}
	if err != nil {
		return nil, err
	}

	return NewGuarded(
		backend,
		ratelimit.NewLimiter(cfg.RateLimit),
		robustness.NewCircuitBreaker(cfg.CircuitBreaker.Threshold, cfg.CircuitBreaker.ResetTimeout),
	), nil
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
