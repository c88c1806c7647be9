package pipeline

import (
	"fmt"
	"time"

	"appforge/internal/agent"
	"appforge/internal/report"
)

// Status is the final state of one phase.
type Status int

const (
	StatusSucceeded Status = iota
	StatusFailed
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// MarshalText writes statuses by name in run reports.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name.
func (s *Status) UnmarshalText(text []byte) error {
	for _, c := range []Status{StatusSucceeded, StatusFailed, StatusSkipped} {
		if c.String() == string(text) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("unknown phase status %q", text)
}

// ErrorKind classifies the last error of a failed phase.
type ErrorKind string

const (
	ErrorRetryable ErrorKind = "retryable"
	ErrorPermanent ErrorKind = "permanent"
)

// PhaseOutcome records how one phase ended.
type PhaseOutcome struct {
	Phase     agent.Phase   `json:"phase"`
	Status    Status        `json:"status"`
	Artifacts []string      `json:"artifacts,omitempty"`
	ErrorKind ErrorKind     `json:"error_kind,omitempty"`
	Message   string        `json:"message,omitempty"`
	Attempts  int           `json:"attempts"`
	Steps     int           `json:"steps,omitempty"`
	ToolCalls int           `json:"tool_calls,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// State is the lifecycle state of a run.
type State string

const (
	StateRunning   State = "running"
	StateCompleted State = "completed"
)

// RunReport summarizes a whole pipeline run. It is written next to the
// run's completion sentinel.
type RunReport struct {
	RunID              string         `json:"run_id"`
	StartedAt          time.Time      `json:"started_at"`
	FinishedAt         time.Time      `json:"finished_at"`
	RequirementsSource string         `json:"requirements_source"`
	AppName            string         `json:"app_name,omitempty"`
	State              State          `json:"state"`
	Cancelled          bool           `json:"cancelled,omitempty"`
	Phases             []PhaseOutcome `json:"phases"`
	Verdict            report.Verdict `json:"verdict"`
	VerdictReason      string         `json:"verdict_reason"`
	AutoFixRan         bool           `json:"auto_fix_ran"`
}

// Outcome returns the recorded outcome of a phase.
func (r *RunReport) Outcome(p agent.Phase) (PhaseOutcome, bool) {
	for _, o := range r.Phases {
		if o.Phase == p {
			return o, true
		}
	}
	return PhaseOutcome{}, false
}

// Failed returns the phases that exhausted their retries.
func (r *RunReport) Failed() []agent.Phase {
	var out []agent.Phase
	for _, o := range r.Phases {
		if o.Status == StatusFailed {
			out = append(out, o.Phase)
		}
	}
	return out
}
