package tools

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"google.golang.org/genai"

	"appforge/internal/audit"
	"appforge/internal/logging"
)

// DefaultTimeout bounds a single tool call.
const DefaultTimeout = 2 * time.Minute

// Executor runs function calls against a registry and records each one in
// the audit log.
type Executor struct {
	registry *Registry
	audit    *audit.Logger
	timeout  time.Duration
}

// NewExecutor creates an executor. A nil audit logger disables auditing.
func NewExecutor(registry *Registry, auditLogger *audit.Logger, timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Executor{
		registry: registry,
		audit:    auditLogger,
		timeout:  timeout,
	}
}

// Registry returns the registry calls are resolved against.
func (e *Executor) Registry() *Registry {
	return e.registry
}

// WithRegistry returns an executor sharing the audit log but resolving
// calls against registry.
func (e *Executor) WithRegistry(registry *Registry) *Executor {
	return &Executor{registry: registry, audit: e.audit, timeout: e.timeout}
}

// Execute runs one call and returns its function response.
func (e *Executor) Execute(ctx context.Context, phase string, call *genai.FunctionCall) *genai.FunctionResponse {
	result := e.executeTool(ctx, phase, call)
	return &genai.FunctionResponse{
		ID:       call.ID,
		Name:     call.Name,
		Response: result.ToMap(),
	}
}

func (e *Executor) executeTool(ctx context.Context, phase string, call *genai.FunctionCall) (result ToolResult) {
	start := time.Now()
	entry := audit.NewEntry(e.audit.RunID(), phase, call.Name, call.Args)

	defer func() {
		if r := recover(); r != nil {
			stack := make([]byte, 4096)
			length := runtime.Stack(stack, false)
			logging.Error("tool execution panic",
				"tool", call.Name,
				"panic", r,
				"stack", string(stack[:length]))
			result = NewErrorResult(fmt.Sprintf("panic: %v", r))
		}

		duration := time.Since(start)
		result.Duration = duration.Round(time.Millisecond).String()

		entry.Complete(result.Content, result.Success, result.Error, duration)
		if err := e.audit.Log(entry); err != nil {
			logging.Warn("failed to write audit log", "error", err, "tool", call.Name)
		}

		logging.Info("tool execution completed",
			"phase", phase,
			"tool", call.Name,
			"success", result.Success,
			"duration", duration)
	}()

	tool, ok := e.registry.Get(call.Name)
	if !ok {
		return NewErrorResult(fmt.Sprintf("tool not available in this phase: %s", call.Name))
	}

	if err := tool.Validate(call.Args); err != nil {
		return NewErrorResult(fmt.Sprintf("validation error: %s", err))
	}

	execCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	res, err := tool.Execute(execCtx, call.Args)
	if err != nil {
		logging.Error("tool execution failed", "tool", call.Name, "error", err)
		return NewErrorResult(err.Error())
	}
	return res
}
