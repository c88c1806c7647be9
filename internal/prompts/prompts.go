// Package prompts renders the task prompt handed to each phase agent.
package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(
	template.New("prompts").Funcs(sprig.TxtFuncMap()).ParseFS(templateFS, "templates/*.tmpl"),
)

// Data is the context available to every phase template.
type Data struct {
	// BaseDir is the project storage directory, relative to the workspace.
	BaseDir string
	// AppName is empty until the requirements phase has named the app.
	AppName string
	// TemplateDir is the UI template copied by the scaffold phase.
	TemplateDir string
	// OutputDir is where generate_app_from_template instantiates apps.
	OutputDir    string
	Requirements string
	// Feedback carries the QA verdict reason into the auto-fix prompt.
	Feedback string
}

// Render returns the prompt of a phase. Phase names match the agent phases.
func Render(phase string, data Data) (string, error) {
	t := templates.Lookup(phase + ".tmpl")
	if t == nil {
		return "", fmt.Errorf("no prompt template for phase %q", phase)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", phase, err)
	}
	return strings.TrimSpace(buf.String()) + "\n", nil
}

// Available lists the phases that have a template.
func Available() []string {
	var names []string
	for _, t := range templates.Templates() {
		if name, ok := strings.CutSuffix(t.Name(), ".tmpl"); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
