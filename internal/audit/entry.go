package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entry is one recorded tool invocation.
type Entry struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	RunID     string         `json:"run_id"`
	Phase     string         `json:"phase,omitempty"`
	ToolName  string         `json:"tool_name"`
	Args      map[string]any `json:"args"`
	Result    string         `json:"result"` // Truncated result
	Success   bool           `json:"success"`
	Error     string         `json:"error,omitempty"`
	Duration  time.Duration  `json:"-"`
}

// NewEntry creates an entry with a generated ID and timestamp.
func NewEntry(runID, phase, toolName string, args map[string]any) *Entry {
	return &Entry{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		RunID:     runID,
		Phase:     phase,
		ToolName:  toolName,
		Args:      args,
	}
}

// Complete fills in the result fields after the tool returns.
func (e *Entry) Complete(result string, success bool, errMsg string, duration time.Duration) {
	e.Result = result
	e.Success = success
	e.Error = errMsg
	e.Duration = duration
}

// MarshalJSON writes the duration as whole milliseconds.
func (e *Entry) MarshalJSON() ([]byte, error) {
	type Alias Entry
	return json.Marshal(&struct {
		*Alias
		DurationMs int64 `json:"duration_ms"`
	}{
		Alias:      (*Alias)(e),
		DurationMs: e.Duration.Milliseconds(),
	})
}

// UnmarshalJSON reads the millisecond duration back.
func (e *Entry) UnmarshalJSON(data []byte) error {
	type Alias Entry
	aux := &struct {
		*Alias
		DurationMs int64 `json:"duration_ms"`
	}{
		Alias: (*Alias)(e),
	}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	e.Duration = time.Duration(aux.DurationMs) * time.Millisecond
	return nil
}

// QueryFilter selects entries.
type QueryFilter struct {
	ToolName string
	Phase    string
	Success  *bool
	Limit    int
}

// Matches reports whether the entry passes the filter.
func (e *Entry) Matches(filter QueryFilter) bool {
	if filter.ToolName != "" && e.ToolName != filter.ToolName {
		return false
	}
	if filter.Phase != "" && e.Phase != filter.Phase {
		return false
	}
	if filter.Success != nil && e.Success != *filter.Success {
		return false
	}
	return true
}

// TruncateResult shortens result to maxLen bytes.
func TruncateResult(result string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = 1000
	}
	if len(result) <= maxLen {
		return result
	}
	return result[:maxLen] + "...[truncated]"
}
