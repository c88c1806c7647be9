// Package ui renders operator-facing console output: phase progress,
// run summaries and markdown reports.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Colors for the console theme - Muted Professional Palette
var (
	ColorPrimary   = lipgloss.Color("#A78BFA") // Soft Purple (Lavender 400)
	ColorSecondary = lipgloss.Color("#22D3EE") // Bright Cyan (Cyan 400)
	ColorSuccess   = lipgloss.Color("#059669") // Emerald 600
	ColorWarning   = lipgloss.Color("#D97706") // Amber 600
	ColorError     = lipgloss.Color("#DC2626") // Red 600
	ColorMuted     = lipgloss.Color("#9CA3AF") // Gray 400
	ColorDim       = lipgloss.Color("#6B7280") // Gray 500
	ColorRunning   = lipgloss.Color("#60A5FA") // Sky Blue (Blue 400)
	ColorInfo      = lipgloss.Color("#2DD4BF") // Teal 400
)

// MessageIcons provides consistent icons for different message types
var MessageIcons = map[string]string{
	"success": "✓",
	"error":   "✗",
	"warning": "⚠",
	"info":    "ℹ",
	"active":  "●",
	"skip":    "↷",
	"done":    "✨",
}

// Styles holds the lipgloss styles of the console output.
type Styles struct {
	Title    lipgloss.Style
	Phase    lipgloss.Style
	Success  lipgloss.Style
	Error    lipgloss.Style
	Warning  lipgloss.Style
	Running  lipgloss.Style
	Info     lipgloss.Style
	Muted    lipgloss.Style
	Dim      lipgloss.Style
	Key      lipgloss.Style
	Box      lipgloss.Style
	ErrorBox lipgloss.Style
}

// DefaultStyles returns the default styles.
func DefaultStyles() *Styles {
	return &Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary),
		Phase:   lipgloss.NewStyle().Bold(true).Width(16),
		Success: lipgloss.NewStyle().Foreground(ColorSuccess),
		Error:   lipgloss.NewStyle().Foreground(ColorError).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(ColorWarning),
		Running: lipgloss.NewStyle().Foreground(ColorRunning),
		Info:    lipgloss.NewStyle().Foreground(ColorInfo),
		Muted:   lipgloss.NewStyle().Foreground(ColorMuted),
		Dim:     lipgloss.NewStyle().Foreground(ColorDim),
		Key:     lipgloss.NewStyle().Foreground(ColorSecondary).Width(14),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 1),
		ErrorBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorError).
			Padding(0, 1),
	}
}

// FormatError formats an error message with an optional suggestion.
func (s *Styles) FormatError(err, suggestion string) string {
	var result strings.Builder
	result.WriteString(s.Error.Render(MessageIcons["error"]+" Error: ") + err)
	if suggestion != "" {
		result.WriteString("\n" + s.Dim.Render("  ⎿  ") + s.Warning.Render(suggestion))
	}
	return result.String()
}

// FormatSuccess formats a one-line success message.
func (s *Styles) FormatSuccess(msg string) string {
	return s.Success.Render(MessageIcons["success"] + " " + msg)
}

// FormatField formats a key/value line of a summary.
func (s *Styles) FormatField(key, value string) string {
	return s.Key.Render(key) + " " + value
}

// formatDuration renders durations the way progress lines show them.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return d.Round(time.Second).String()
	}
}
