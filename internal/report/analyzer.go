// Package report classifies QA reports to decide whether an auto-fix pass
// should run.
package report

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// ErrAnalysis is returned when a report cannot be read.
var ErrAnalysis = errors.New("qa report analysis failed")

// Verdict is the outcome of analyzing a QA report.
type Verdict int

const (
	FixesNeeded Verdict = iota
	NoFixesNeeded
	// Indeterminate means no rule matched; it is treated as FixesNeeded.
	Indeterminate
	AnalysisError
)

func (v Verdict) String() string {
	switch v {
	case FixesNeeded:
		return "fixes_needed"
	case NoFixesNeeded:
		return "no_fixes_needed"
	case Indeterminate:
		return "indeterminate"
	case AnalysisError:
		return "analysis_error"
	default:
		return "unknown"
	}
}

// NeedsFixes reports whether the verdict calls for an auto-fix pass.
// AnalysisError is deliberately false here; callers choose a policy for it.
func (v Verdict) NeedsFixes() bool {
	return v == FixesNeeded || v == Indeterminate
}

// MarshalText lets verdicts appear by name in JSON run reports.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText parses a verdict name written by MarshalText.
func (v *Verdict) UnmarshalText(text []byte) error {
	for _, c := range []Verdict{FixesNeeded, NoFixesNeeded, Indeterminate, AnalysisError} {
		if c.String() == string(text) {
			*v = c
			return nil
		}
	}
	return fmt.Errorf("unknown verdict %q", text)
}

// Result carries the verdict and the rule that produced it.
type Result struct {
	Verdict Verdict `json:"verdict"`
	Reason  string  `json:"reason"`
}

var criticalIssuesRe = regexp.MustCompile(`critical issues:\s*([0-9]+)`)

// The count must be exactly zero: "10 blocking issues found" does not match.
var noBlockingRe = regexp.MustCompile(`(^|[^0-9])0 blocking issues found`)

var crashPhrases = []string{
	"app crashes",
	"application crashes",
	"crashes on",
	"won't start",
	"will not start",
	"fails to start",
	"does not start",
	"doesn't start",
	"blank page",
	"white screen",
}

// Analyze applies the rules in priority order and returns on the first
// match. Matching is case-insensitive.
func Analyze(text string) Result {
	t := strings.ToLower(text)

	// 1. Explicit prototype status. "non-functional" contains "functional",
	// so it is checked first.
	if strings.Contains(t, "prototype status: non-functional") {
		return Result{FixesNeeded, "prototype status is non-functional"}
	}
	if strings.Contains(t, "prototype status: functional") {
		return Result{NoFixesNeeded, "prototype status is functional"}
	}

	// 2. Critical issue count.
	if m := criticalIssuesRe.FindStringSubmatch(t); m != nil {
		n, _ := strconv.Atoi(m[1])
		switch {
		case n >= 1 && n <= 3:
			return Result{FixesNeeded, fmt.Sprintf("%d critical issue(s) reported", n)}
		case n == 0:
			return Result{NoFixesNeeded, "no critical issues reported"}
		}
	}

	// 3. Recommendation.
	if strings.Contains(t, "major rework required") {
		return Result{FixesNeeded, "major rework required"}
	}
	if strings.Contains(t, "ready for development") {
		return Result{NoFixesNeeded, "ready for development"}
	}

	// 4. Blocking issues and crashes.
	if noBlockingRe.MatchString(t) {
		return Result{NoFixesNeeded, "no blocking issues found"}
	}
	for _, phrase := range crashPhrases {
		if strings.Contains(t, phrase) {
			return Result{FixesNeeded, fmt.Sprintf("report mentions %q", phrase)}
		}
	}

	// 5. Partial functionality.
	if strings.Contains(t, "partially functional") && strings.Contains(t, "needs critical fixes") {
		return Result{FixesNeeded, "partially functional and needs critical fixes"}
	}

	// 6. Ambiguous reports are treated as needing fixes.
	return Result{Indeterminate, "no recognized status; assuming fixes are needed"}
}

// AnalyzeFile reads path and analyzes it. The report is read fresh on every
// call because later phases may rewrite it.
func AnalyzeFile(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{AnalysisError, err.Error()}, fmt.Errorf("%w: %w", ErrAnalysis, err)
	}
	return Analyze(string(data)), nil
}
