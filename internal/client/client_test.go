package client

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"appforge/internal/ratelimit"
	"appforge/internal/robustness"
)

type stubClient struct {
	calls int
	err   error
}

func (s *stubClient) Generate(ctx context.Context, req *Request) (*Response, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &Response{Text: "ok"}, nil
}

func (s *stubClient) Name() string { return "stub/test" }
func (s *stubClient) Close() error { return nil }

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o deadline" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limited", &GenerationError{Provider: "gemini", StatusCode: 429}, true},
		{"server error", &GenerationError{Provider: "gemini", StatusCode: 503}, true},
		{"bad request", &GenerationError{Provider: "gemini", StatusCode: 400, Message: "invalid argument"}, false},
		{"net timeout", fmt.Errorf("dial: %w", timeoutErr{}), true},
		{"no choices", errors.New("No choices returned"), true},
		{"unexpected response", errors.New("Unexpected API response shape"), true},
		{"connection reset", errors.New("read: connection reset by peer"), true},
		{"circuit open", robustness.ErrCircuitOpen, true},
		{"plain", errors.New("permission denied"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestStatusFromMessage(t *testing.T) {
	assert.Equal(t, 429, statusFromMessage("Error 429, Message: quota, Status: RESOURCE_EXHAUSTED"))
	assert.Equal(t, 503, statusFromMessage("status 503 service unavailable"))
	assert.Zero(t, statusFromMessage("wrote 500 bytes"))
}

func TestGuardedOpensCircuit(t *testing.T) {
	stub := &stubClient{err: &GenerationError{Provider: "stub", StatusCode: 500, Message: "boom"}}
	g := NewGuarded(stub, nil, robustness.NewCircuitBreaker(2, time.Hour))

	for i := 0; i < 2; i++ {
		_, err := g.Generate(context.Background(), &Request{})
		require.Error(t, err)
	}

	_, err := g.Generate(context.Background(), &Request{})
	require.ErrorIs(t, err, robustness.ErrCircuitOpen)
	assert.Equal(t, 2, stub.calls)
}

func TestGuardedCountsRequests(t *testing.T) {
	stub := &stubClient{}
	limiter := ratelimit.NewLimiter(ratelimit.Config{Enabled: true, RequestsPerMinute: 600, BurstSize: 5})
	g := NewGuarded(stub, limiter, nil)

	resp, err := g.Generate(context.Background(), &Request{SystemPrompt: "you are a planner"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, int64(1), limiter.Stats().TotalRequests)
	assert.Equal(t, "stub/test", g.Name())
}

func TestResponseContent(t *testing.T) {
	resp := &Response{
		Text:          "calling a tool",
		FunctionCalls: []*genai.FunctionCall{{Name: "read_file", Args: map[string]any{"path": "a"}}},
	}
	content := resp.Content()
	assert.Equal(t, genai.RoleModel, content.Role)
	require.Len(t, content.Parts, 2)
	assert.Equal(t, "read_file", content.Parts[1].FunctionCall.Name)
	assert.True(t, resp.HasFunctionCalls())
}

func TestConvertHistory(t *testing.T) {
	history := []*genai.Content{
		genai.NewContentFromText("build a todo app", genai.RoleUser),
		{Role: genai.RoleModel, Parts: []*genai.Part{{FunctionCall: &genai.FunctionCall{ID: "c1", Name: "mkdir", Args: map[string]any{"path": "x"}}}}},
		{Role: genai.RoleUser, Parts: []*genai.Part{{FunctionResponse: &genai.FunctionResponse{ID: "c1", Name: "mkdir", Response: map[string]any{"output": "Created directory: x"}}}}},
	}

	msgs := convertHistory("system rules", history)
	require.Len(t, msgs, 4)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "user", msgs[1].Role)
	assert.Equal(t, "assistant", msgs[2].Role)
	require.Len(t, msgs[2].ToolCalls, 1)
	assert.Equal(t, "tool", msgs[3].Role)
	assert.Equal(t, "Created directory: x", msgs[3].Content)
	assert.Equal(t, "mkdir", msgs[3].ToolName)
}

func TestConvertTools(t *testing.T) {
	decls := []*genai.FunctionDeclaration{{
		Name:        "write_file",
		Description: "Write a file",
		Parameters: &genai.Schema{
			Type:     genai.TypeObject,
			Required: []string{"path"},
			Properties: map[string]*genai.Schema{
				"path": {Type: genai.TypeString, Description: "target"},
				"mode": {Type: genai.TypeString, Enum: []string{"w", "a"}},
			},
		},
	}}

	tools := convertTools(decls)
	require.Len(t, tools, 1)
	assert.Equal(t, "write_file", tools[0].Function.Name)
	assert.Equal(t, []string{"path"}, tools[0].Function.Parameters.Required)
	assert.Equal(t, "function", tools[0].Type)
	assert.Equal(t, "object", tools[0].Function.Parameters.Type)
}
