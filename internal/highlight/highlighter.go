// Package highlight colors generated artifacts for terminal display.
package highlight

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

// Highlighter provides syntax highlighting for project files.
type Highlighter struct {
	style     string
	formatter chroma.Formatter
}

// New creates a new Highlighter with the specified style.
// Supported styles: "monokai", "dracula", "github-dark", "native".
func New(style string) *Highlighter {
	if style == "" {
		style = "monokai"
	}

	return &Highlighter{
		style:     style,
		formatter: formatters.Get("terminal256"),
	}
}

// Highlight applies syntax highlighting to code based on language.
// Unknown languages and tokenizer failures return code unchanged.
func (h *Highlighter) Highlight(code, lang string) string {
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(h.style)
	if style == nil {
		style = styles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf bytes.Buffer
	if err := h.formatter.Format(&buf, style, iterator); err != nil {
		return code
	}

	return buf.String()
}

// HighlightFile highlights content using the language of filename.
func (h *Highlighter) HighlightFile(filename, content string) string {
	return h.Highlight(content, DetectLanguage(filename))
}

// HighlightWithLineNumbers highlights code with line numbers.
func (h *Highlighter) HighlightWithLineNumbers(code, lang string, startLine int) string {
	highlighted := h.Highlight(code, lang)
	lines := strings.Split(highlighted, "\n")

	lineNumStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	var result strings.Builder
	for i, line := range lines {
		result.WriteString(lineNumStyle.Render(fmt.Sprintf("%4d", startLine+i)))
		result.WriteString(" │ ")
		result.WriteString(line)
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}

	return result.String()
}

// webLanguages covers the files a generated app is made of.
var webLanguages = map[string]string{
	".ts":    "typescript",
	".tsx":   "tsx",
	".js":    "javascript",
	".jsx":   "jsx",
	".json":  "json",
	".html":  "html",
	".css":   "css",
	".md":    "markdown",
	".yaml":  "yaml",
	".yml":   "yaml",
	".jsonl": "json",
}

// DetectLanguage returns the chroma lexer name for filename.
func DetectLanguage(filename string) string {
	if lang, ok := webLanguages[strings.ToLower(filepath.Ext(filename))]; ok {
		return lang
	}
	if lexer := lexers.Match(filepath.Base(filename)); lexer != nil {
		return lexer.Config().Name
	}
	return "text"
}
