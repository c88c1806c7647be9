package agent

import (
	"context"
	"fmt"
)

// Phase identifies one stage of the generation pipeline and the agent
// that runs it.
type Phase string

const (
	// PhaseRequirements turns the user's request into PRD.md and names the app.
	PhaseRequirements Phase = "requirements"

	// PhaseSpecBuild writes app_spec.json from the requirements.
	PhaseSpecBuild Phase = "spec_build"

	// PhaseUIScaffold copies the template and designs the UI.
	PhaseUIScaffold Phase = "ui_scaffold"

	// PhaseImplementation writes the working application code.
	PhaseImplementation Phase = "implementation"

	// PhaseValidation checks the implementation and writes VALIDATION_REPORT.md.
	PhaseValidation Phase = "validation"

	// PhaseQA reviews the app against the requirements and writes QA_TEST_REPORT.md.
	PhaseQA Phase = "qa"

	// PhaseAutoFix repairs what the QA report found. It only runs on demand.
	PhaseAutoFix Phase = "auto_fix"
)

// Phases returns every phase in pipeline order.
func Phases() []Phase {
	return []Phase{
		PhaseRequirements, PhaseSpecBuild, PhaseUIScaffold, PhaseImplementation,
		PhaseValidation, PhaseQA, PhaseAutoFix,
	}
}

// projectLookup is granted to every phase so agents can find their files.
var projectLookup = []string{"get_current_project", "get_project_path", "set_current_project", "list_projects"}

// AllowedTools returns the fixed tool whitelist of the phase.
func (p Phase) AllowedTools() []string {
	var own []string
	switch p {
	case PhaseRequirements:
		own = []string{
			"get_user_requirements", "set_app_name",
			"read_file", "write_file", "mkdir",
		}
	case PhaseSpecBuild:
		own = []string{
			"get_user_requirements", "read_file", "write_file",
			"build_app_spec", "generate_app_from_template",
		}
	case PhaseUIScaffold:
		own = []string{
			"read_file", "write_file", "list_files", "mkdir",
			"copy_template_to_ui", "copy_from_template", "save_ui_file",
			"set_memory", "get_memory", "get_all_memory",
			"generate_ui_structure",
		}
	case PhaseImplementation:
		own = []string{
			"get_user_requirements", "read_file", "write_file", "list_files", "mkdir",
			"apply_patch", "save_ui_file",
			"get_memory", "get_all_memory",
			"read_ui_structure", "generate_ui_structure",
		}
	case PhaseValidation:
		own = []string{
			"read_file", "write_file", "list_files",
			"validate_implementation",
		}
	case PhaseQA:
		own = []string{
			"get_user_requirements", "read_file", "write_file", "list_files",
			"read_ui_structure", "validate_implementation",
		}
	case PhaseAutoFix:
		own = []string{
			"get_user_requirements", "read_file", "write_file", "list_files", "mkdir",
			"apply_patch", "save_ui_file",
			"read_ui_structure", "validate_implementation",
		}
	default:
		return []string{}
	}
	return append(own, projectLookup...)
}

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// ParsePhase parses a phase name.
func ParsePhase(s string) (Phase, error) {
	for _, p := range Phases() {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown phase %q", s)
}

// Task is one phase assignment.
type Task struct {
	Phase  Phase
	Prompt string
}

// Outcome summarizes a finished Run.
type Outcome struct {
	Output    string `json:"output"`
	Steps     int    `json:"steps"`
	ToolCalls int    `json:"tool_calls"`
}

// Agent runs a phase task to completion.
type Agent interface {
	Run(ctx context.Context, task Task) (Outcome, error)
}

// Func adapts a function to the Agent interface.
type Func func(ctx context.Context, task Task) (Outcome, error)

// Run calls f.
func (f Func) Run(ctx context.Context, task Task) (Outcome, error) {
	return f(ctx, task)
}
