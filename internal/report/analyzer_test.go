package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeRules(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Verdict
	}{
		{"non-functional", "Prototype Status: NON-FUNCTIONAL", FixesNeeded},
		{"functional", "prototype status: functional", NoFixesNeeded},
		{"critical issues 2", "Critical Issues: 2", FixesNeeded},
		{"critical issues 0", "critical issues: 0", NoFixesNeeded},
		{"critical issues 7 falls through", "critical issues: 7", Indeterminate},
		{"major rework", "Recommendation: MAJOR REWORK REQUIRED", FixesNeeded},
		{"ready", "Recommendation: Ready for development", NoFixesNeeded},
		{"no blocking", "0 blocking issues found", NoFixesNeeded},
		{"no blocking mid-line", "Result: 0 blocking issues found", NoFixesNeeded},
		{"ten blocking", "10 blocking issues found in the checkout flow", Indeterminate},
		{"ten blocking with crash", "10 blocking issues found, the app crashes on load", FixesNeeded},
		{"crash", "The app crashes when adding a task", FixesNeeded},
		{"won't start", "Dev server won't start", FixesNeeded},
		{"partial", "Partially functional, needs critical fixes", FixesNeeded},
		{"partial alone", "Partially functional", Indeterminate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Analyze(tt.text)
			assert.Equal(t, tt.want, got.Verdict)
			assert.NotEmpty(t, got.Reason)
		})
	}
}

func TestAnalyzePriorityBeatsTextOrder(t *testing.T) {
	text := "Critical Issues: 2\n...\nPrototype Status: Functional\n"
	assert.Equal(t, NoFixesNeeded, Analyze(text).Verdict)

	text = "Ready for development\nCritical issues: 1"
	assert.Equal(t, FixesNeeded, Analyze(text).Verdict)
}

func TestAnalyzeConservativeDefault(t *testing.T) {
	got := Analyze("The report talks about colors and fonts only.")
	assert.Equal(t, Indeterminate, got.Verdict)
	assert.True(t, got.Verdict.NeedsFixes())
}

func TestNeedsFixes(t *testing.T) {
	assert.True(t, FixesNeeded.NeedsFixes())
	assert.True(t, Indeterminate.NeedsFixes())
	assert.False(t, NoFixesNeeded.NeedsFixes())
	assert.False(t, AnalysisError.NeedsFixes())
}

func TestAnalyzeFile(t *testing.T) {
	dir := t.TempDir()

	got, err := AnalyzeFile(filepath.Join(dir, "missing.md"))
	require.ErrorIs(t, err, ErrAnalysis)
	assert.Equal(t, AnalysisError, got.Verdict)

	path := filepath.Join(dir, "QA_TEST_REPORT.md")
	require.NoError(t, os.WriteFile(path, []byte("0 blocking issues found"), 0644))
	got, err = AnalyzeFile(path)
	require.NoError(t, err)
	assert.Equal(t, NoFixesNeeded, got.Verdict)
}
