package tools

import (
	"appforge/internal/project"
	"appforge/internal/sandbox"
	"appforge/internal/validate"
)

// DefaultTemplatesRoot holds one directory per app template.
const DefaultTemplatesRoot = "templates"

// Env is what the tools of one run operate on. Nothing in it is shared
// between runs.
type Env struct {
	// FS is confined to the workspace, which holds both the templates and
	// the project base directory.
	FS    *sandbox.FS
	Store *project.Store

	// Requirements is the raw requirements text of the run.
	Requirements string

	// TemplatesRoot is relative to the workspace.
	TemplatesRoot string

	Validation validate.Options
}

// NewDefaultRegistry registers every tool bound to env.
func NewDefaultRegistry(env *Env) *Registry {
	if env.TemplatesRoot == "" {
		env.TemplatesRoot = DefaultTemplatesRoot
	}

	r := NewRegistry()
	for _, t := range fileTools(env) {
		r.MustRegister(t)
	}
	for _, t := range projectTools(env) {
		r.MustRegister(t)
	}
	for _, t := range artifactTools(env) {
		r.MustRegister(t)
	}
	return r
}

// path resolves a store path against the workspace.
func (e *Env) path(kind project.Kind) (string, error) {
	p, err := e.Store.Path(kind)
	if err != nil {
		return "", err
	}
	return e.FS.Resolve(p)
}
