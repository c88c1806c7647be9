package agent

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"google.golang.org/genai"

	"appforge/internal/client"
	"appforge/internal/logging"
	"appforge/internal/tools"
)

// DefaultMaxSteps is used when no budget is configured for a phase.
const DefaultMaxSteps = 20

// ErrMaxSteps is returned when the model keeps calling tools past the
// phase's step budget.
var ErrMaxSteps = errors.New("step limit reached without a final answer")

// nudge is sent when the model answers with neither text nor tool calls.
const nudge = "Continue with the task. Use the available tools, or reply with a short summary when you are done."

// StepBudget returns the step limit of a phase.
type StepBudget func(phase string) int

// LLMAgent drives a generation client through the tool-calling loop of a
// phase, exposing only the phase's whitelisted tools.
type LLMAgent struct {
	client   client.Client
	executor *tools.Executor
	steps    StepBudget
}

// NewLLMAgent creates an agent. A nil budget selects DefaultMaxSteps.
func NewLLMAgent(c client.Client, executor *tools.Executor, steps StepBudget) *LLMAgent {
	return &LLMAgent{client: c, executor: executor, steps: steps}
}

func (a *LLMAgent) maxSteps(p Phase) int {
	if a.steps != nil {
		if n := a.steps(p.String()); n > 0 {
			return n
		}
	}
	return DefaultMaxSteps
}

// Run executes task until the model replies without tool calls.
func (a *LLMAgent) Run(ctx context.Context, task Task) (Outcome, error) {
	var out Outcome
	start := time.Now()
	log := logging.With("phase", task.Phase.String(), "model", a.client.Name())

	exec := a.executor.WithRegistry(a.executor.Registry().Filter(task.Phase.AllowedTools()))
	system := buildSystemPrompt(task.Phase, exec.Registry().Names())
	decls := exec.Registry().Declarations()
	history := []*genai.Content{genai.NewContentFromText(task.Prompt, genai.RoleUser)}

	limit := a.maxSteps(task.Phase)
	for out.Steps < limit {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		// Each step gets its own request; clients may keep it.
		req := &client.Request{SystemPrompt: system, History: slices.Clone(history), Tools: decls}
		resp, err := a.client.Generate(ctx, req)
		out.Steps++
		if err != nil {
			log.Warn("generation failed", "step", out.Steps, "error", err)
			return out, fmt.Errorf("%s step %d: %w", task.Phase, out.Steps, err)
		}
		history = append(history, resp.Content())

		if !resp.HasFunctionCalls() {
			if strings.TrimSpace(resp.Text) == "" {
				history = append(history, genai.NewContentFromText(nudge, genai.RoleUser))
				continue
			}
			out.Output = resp.Text
			log.Info("agent finished", "steps", out.Steps, "tool_calls", out.ToolCalls, "duration", time.Since(start))
			return out, nil
		}

		parts := make([]*genai.Part, 0, len(resp.FunctionCalls))
		for _, call := range resp.FunctionCalls {
			parts = append(parts, &genai.Part{FunctionResponse: exec.Execute(ctx, task.Phase.String(), call)})
			out.ToolCalls++
		}
		history = append(history, &genai.Content{Role: genai.RoleUser, Parts: parts})
	}

	log.Warn("agent exhausted its step budget", "steps", out.Steps, "tool_calls", out.ToolCalls)
	return out, fmt.Errorf("%s: %w (%d steps)", task.Phase, ErrMaxSteps, limit)
}

// buildSystemPrompt creates the system prompt for a phase.
func buildSystemPrompt(p Phase, toolNames []string) string {
	var sb strings.Builder

	sb.WriteString("You are one agent in an app-generation pipeline. Other agents handle the other phases.\n")
	fmt.Fprintf(&sb, "Phase: %s\n", p)
	sb.WriteString("Available tools: ")
	sb.WriteString(strings.Join(toolNames, ", "))
	sb.WriteString("\n\n")

	sb.WriteString("Rules:\n")
	sb.WriteString("1. Do the work with tool calls. Files you only describe in text do not exist.\n")
	sb.WriteString("2. Look paths up with get_project_path instead of guessing them.\n")
	sb.WriteString("3. Read a file before you rewrite it.\n")
	sb.WriteString("4. If a tool reports an error, fix the arguments and try again, or work around it.\n")
	sb.WriteString("5. When the phase is complete, reply with a short summary and no tool calls.\n")
	return sb.String()
}
