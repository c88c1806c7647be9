package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"appforge/internal/fileutil"
)

// RunsDir is the directory below the state dir that holds run reports.
const RunsDir = "runs"

// ReportPath returns the JSON report path of a run.
func ReportPath(stateDir, runID string) string {
	return filepath.Join(stateDir, RunsDir, runID+".json")
}

// SentinelPath returns the completion sentinel of a run. It is written
// after the report, so its presence means the report is final.
func SentinelPath(stateDir, runID string) string {
	return filepath.Join(stateDir, RunsDir, runID+".complete")
}

// WriteReport persists rep and then its completion sentinel.
func WriteReport(stateDir string, rep *RunReport) error {
	if stateDir == "" {
		return nil
	}
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encode run report: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(stateDir, RunsDir), 0755); err != nil {
		return fmt.Errorf("create runs dir: %w", err)
	}
	if err := fileutil.AtomicWrite(ReportPath(stateDir, rep.RunID), data, 0644); err != nil {
		return fmt.Errorf("write run report: %w", err)
	}
	stamp := rep.FinishedAt.UTC().Format(time.RFC3339) + "\n"
	if err := fileutil.AtomicWriteString(SentinelPath(stateDir, rep.RunID), stamp, 0644); err != nil {
		return fmt.Errorf("write completion sentinel: %w", err)
	}
	return nil
}

// ReadReport loads the report of a run.
func ReadReport(stateDir, runID string) (*RunReport, error) {
	data, err := os.ReadFile(ReportPath(stateDir, runID))
	if err != nil {
		return nil, err
	}
	var rep RunReport
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("parse run report %s: %w", runID, err)
	}
	return &rep, nil
}

// Completed reports whether a run wrote its sentinel.
func Completed(stateDir, runID string) bool {
	_, err := os.Stat(SentinelPath(stateDir, runID))
	return err == nil
}

// ListRuns returns the ids of completed runs, newest first.
func ListRuns(stateDir string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(stateDir, RunsDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	type run struct {
		id  string
		mod time.Time
	}
	var runs []run
	for _, e := range entries {
		id, ok := strings.CutSuffix(e.Name(), ".complete")
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		runs = append(runs, run{id, info.ModTime()})
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].mod.After(runs[j].mod) })

	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.id
	}
	return ids, nil
}
