package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"appforge/internal/agent"
	"appforge/internal/pipeline"
)

// Progress prints one styled line per phase. It implements
// pipeline.Observer.
type Progress struct {
	out    io.Writer
	styles *Styles
	mu     sync.Mutex
}

// NewProgress creates a progress printer writing to out.
func NewProgress(out io.Writer, styles *Styles) *Progress {
	if styles == nil {
		styles = DefaultStyles()
	}
	return &Progress{out: out, styles: styles}
}

// PhaseStarted prints the running marker of a phase.
func (p *Progress) PhaseStarted(phase agent.Phase) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, p.styles.Running.Render(MessageIcons["active"])+" "+p.styles.Phase.Render(phase.String())+p.styles.Dim.Render(" running"))
}

// PhaseFinished prints the outcome line of a phase.
func (p *Progress) PhaseFinished(o pipeline.PhaseOutcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, p.styles.PhaseLine(o))
}

// PhaseLine renders an outcome as a single line with a status icon.
func (s *Styles) PhaseLine(o pipeline.PhaseOutcome) string {
	var icon, detail string
	switch o.Status {
	case pipeline.StatusSucceeded:
		icon = s.Success.Render(MessageIcons["success"])
		detail = s.Dim.Render(fmt.Sprintf("%s, %s", plural(o.Attempts, "attempt"), formatDuration(o.Duration)))
		if len(o.Artifacts) > 0 {
			detail += s.Muted.Render(" " + MessageIcons["done"] + " " + plural(len(o.Artifacts), "artifact"))
		}
	case pipeline.StatusFailed:
		icon = s.Error.Render(MessageIcons["error"])
		detail = s.Error.Render(fmt.Sprintf("failed after %s", plural(o.Attempts, "attempt")))
		if o.ErrorKind != "" {
			detail += s.Dim.Render(fmt.Sprintf(" (%s)", o.ErrorKind))
		}
		if msg := firstLine(o.Message); msg != "" {
			detail += s.Muted.Render(": " + msg)
		}
	default:
		icon = s.Warning.Render(MessageIcons["skip"])
		detail = s.Muted.Render("skipped")
		if o.Message != "" {
			detail += s.Dim.Render(": " + firstLine(o.Message))
		}
	}
	return icon + " " + s.Phase.Render(o.Phase.String()) + detail
}

// Summary renders the end-of-run box.
func (s *Styles) Summary(rep *pipeline.RunReport, reportPath string) string {
	var b strings.Builder
	b.WriteString(s.Title.Render("Run "+rep.RunID) + "\n")
	if rep.AppName != "" {
		b.WriteString(s.FormatField("app", rep.AppName) + "\n")
	}
	b.WriteString(s.FormatField("duration", formatDuration(rep.FinishedAt.Sub(rep.StartedAt))) + "\n")

	failed := rep.Failed()
	if len(failed) == 0 {
		b.WriteString(s.FormatField("phases", s.Success.Render("all succeeded")) + "\n")
	} else {
		names := make([]string, len(failed))
		for i, p := range failed {
			names[i] = p.String()
		}
		b.WriteString(s.FormatField("failed", s.Error.Render(strings.Join(names, ", "))) + "\n")
	}

	b.WriteString(s.FormatField("qa verdict", fmt.Sprintf("%s %s", rep.Verdict, s.Dim.Render("("+rep.VerdictReason+")"))) + "\n")
	fix := "not needed"
	if rep.AutoFixRan {
		fix = "ran"
	}
	b.WriteString(s.FormatField("auto-fix", fix) + "\n")
	if rep.Cancelled {
		b.WriteString(s.FormatField("state", s.Warning.Render("cancelled")) + "\n")
	}
	if reportPath != "" {
		b.WriteString(s.FormatField("report", reportPath))
	}
	return s.Box.Render(strings.TrimRight(b.String(), "\n"))
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
