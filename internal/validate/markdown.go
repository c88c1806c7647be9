package validate

import (
	"fmt"
	"strings"
)

// Markdown renders the report as VALIDATION_REPORT.md content.
func (r *Report) Markdown() string {
	var b strings.Builder

	b.WriteString("# Validation Report\n\n")
	status := "PASSED"
	if !r.Passed() {
		status = "FAILED"
	}
	fmt.Fprintf(&b, "**Status:** %s\n\n", status)
	fmt.Fprintf(&b, "**Directory:** `%s`\n\n", r.Dir)
	fmt.Fprintf(&b, "**Checks run:** %s\n\n", strings.Join(r.Checked, ", "))

	counts := map[Severity]int{}
	for _, f := range r.Findings {
		counts[f.Severity]++
	}
	fmt.Fprintf(&b, "Errors: %d, warnings: %d\n\n", counts[SeverityError], counts[SeverityWarning])

	if len(r.Findings) == 0 {
		b.WriteString("No issues found.\n")
		return b.String()
	}

	b.WriteString("## Findings\n\n")
	b.WriteString("| Severity | Check | File | Message |\n")
	b.WriteString("|----------|-------|------|---------|\n")
	for _, f := range r.Findings {
		msg := strings.ReplaceAll(f.Message, "\n", "<br>")
		msg = strings.ReplaceAll(msg, "|", "\\|")
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", f.Severity, f.Check, f.File, msg)
	}
	return b.String()
}
