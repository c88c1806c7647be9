package highlight

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, "tsx", DetectLanguage("src/App.tsx"))
	assert.Equal(t, "json", DetectLanguage("app_spec.json"))
	assert.Equal(t, "json", DetectLanguage("audit/run.jsonl"))
	assert.Equal(t, "text", DetectLanguage("LICENSE"))
}

func TestHighlightKeepsText(t *testing.T) {
	h := New("")
	out := h.HighlightFile("app_spec.json", `{"app_name": "todo-app"}`)
	assert.Contains(t, out, "todo-app")
	assert.Contains(t, out, "\x1b[")

	numbered := h.HighlightWithLineNumbers("a\nb", "text", 9)
	assert.Contains(t, numbered, "   9")
	assert.Contains(t, numbered, "  10")
}
