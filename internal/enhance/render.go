package enhance

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"appforge/internal/fileutil"
)

// DefaultOutput is where the prompt lands, relative to the app dir.
const DefaultOutput = "prompts/enhancement_prompt.j2"

// DefaultChangeBudget caps the number of files the follow-up may touch.
const DefaultChangeBudget = 8

// PromptTools are the tools the enhancement agent may use.
var PromptTools = []string{"read_file", "write_file", "list_files", "mkdir"}

//go:embed enhancement.tmpl
var promptSource string

var promptTmpl = template.Must(template.New("enhancement").Funcs(sprig.TxtFuncMap()).Parse(promptSource))

type promptData struct {
	Snapshot     Snapshot
	Tasks        []Task
	Budget       int
	AllowNewDeps bool
	Tools        []string
}

// Render produces the enhancement prompt text.
func Render(snap Snapshot, tasks []Task, budget int, allowNewDeps bool) (string, error) {
	if budget <= 0 {
		budget = DefaultChangeBudget
	}
	var buf bytes.Buffer
	err := promptTmpl.Execute(&buf, promptData{
		Snapshot:     snap,
		Tasks:        tasks,
		Budget:       budget,
		AllowNewDeps: allowNewDeps,
		Tools:        PromptTools,
	})
	if err != nil {
		return "", fmt.Errorf("render enhancement prompt: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n") + "\n", nil
}

// WritePrompt writes text to rel inside appDir and returns the absolute path.
// rel must stay inside appDir.
func WritePrompt(appDir, rel, text string) (string, error) {
	if rel == "" {
		rel = DefaultOutput
	}
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("output path %q must be relative to the app", rel)
	}
	target := filepath.Join(appDir, filepath.FromSlash(rel))
	back, err := filepath.Rel(appDir, target)
	if err != nil || back == ".." || strings.HasPrefix(back, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("output path %q leaves the app directory", rel)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", err
	}
	if err := fileutil.AtomicWriteString(target, text, 0644); err != nil {
		return "", err
	}
	return target, nil
}
