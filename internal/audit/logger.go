package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"appforge/internal/fileutil"
	"appforge/internal/security"
)

// Dir is the audit directory below the state dir.
const Dir = "audit"

// Logger appends tool invocations of one run to a JSONL file.
type Logger struct {
	path         string
	runID        string
	maxResultLen int
	redactor     *security.Redactor
	mu           sync.Mutex
	count        int
}

// Config holds audit logger configuration.
type Config struct {
	Enabled      bool
	MaxResultLen int
}

// DefaultConfig returns the default audit configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:      true,
		MaxResultLen: 1000,
	}
}

// PathFor returns the JSONL file for a run below stateDir.
func PathFor(stateDir, runID string) string {
	return filepath.Join(stateDir, Dir, runID+".jsonl")
}

// NewLogger creates an audit logger for runID. A disabled config yields a
// logger whose Log is a no-op.
func NewLogger(stateDir, runID string, cfg Config) (*Logger, error) {
	if !cfg.Enabled {
		return &Logger{runID: runID}, nil
	}

	// Use 0700 to restrict access to owner only (contains tool arguments)
	if err := os.MkdirAll(filepath.Join(stateDir, Dir), 0700); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}

	return &Logger{
		path:         PathFor(stateDir, runID),
		runID:        runID,
		maxResultLen: cfg.MaxResultLen,
		redactor:     security.NewRedactor(),
	}, nil
}

// RunID returns the run this logger records.
func (l *Logger) RunID() string {
	if l == nil {
		return ""
	}
	return l.runID
}

// Path returns the JSONL file, or "" when disabled.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Log redacts and appends entry. A nil or disabled logger ignores it.
func (l *Logger) Log(entry *Entry) error {
	if l == nil || l.path == "" || entry == nil {
		return nil
	}

	entry.RunID = l.runID
	entry.Args = l.redactor.RedactArgs(entry.Args)
	entry.Result = l.redactor.Redact(TruncateResult(entry.Result, l.maxResultLen))
	entry.Error = l.redactor.Redact(entry.Error)

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := fileutil.AppendString(l.path, string(data)+"\n", 0600); err != nil {
		return fmt.Errorf("write audit entry: %w", err)
	}
	l.count++
	return nil
}

// Count returns how many entries this logger has written.
func (l *Logger) Count() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// ReadRun loads every entry of a run. A missing file yields no entries.
func ReadRun(stateDir, runID string) ([]*Entry, error) {
	f, err := os.Open(PathFor(stateDir, runID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var entries []*Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		e := &Entry{}
		if err := json.Unmarshal(scanner.Bytes(), e); err != nil {
			// Skip a torn trailing line from an interrupted run
			continue
		}
		entries = append(entries, e)
	}
	return entries, scanner.Err()
}

// Query filters entries.
func Query(entries []*Entry, filter QueryFilter) []*Entry {
	var results []*Entry
	for _, entry := range entries {
		if !entry.Matches(filter) {
			continue
		}
		results = append(results, entry)
		if filter.Limit > 0 && len(results) >= filter.Limit {
			break
		}
	}
	return results
}
