package ui

import (
	"github.com/charmbracelet/glamour"
)

// RenderMarkdown renders a markdown report for the terminal. width <= 0
// disables wrapping. On renderer failure the source is returned as is.
func RenderMarkdown(text string, width int) string {
	if width < 0 {
		width = 0
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return text
	}
	out, err := renderer.Render(text)
	if err != nil {
		return text
	}
	return out
}
