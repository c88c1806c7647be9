package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"appforge/internal/agent"
	"appforge/internal/audit"
	"appforge/internal/client"
	"appforge/internal/config"
	"appforge/internal/project"
	"appforge/internal/sandbox"
	"appforge/internal/security"
	"appforge/internal/tools"
	"appforge/internal/validate"
)

// Paths are the absolute locations a run works in.
type Paths struct {
	Workspace   string
	BaseDir     string
	TemplateDir string
	StateDir    string
}

// ErrOutsideWorkspace is returned when a storage location the agents write
// to lies outside the sandboxed workspace.
var ErrOutsideWorkspace = errors.New("storage path is outside the workspace")

// ResolvePaths makes the storage locations of cfg absolute. Relative
// base and template dirs resolve against the workspace; a relative state
// dir resolves against the base dir. The base and template dirs must lie
// inside the workspace, and the base dir must not be the workspace itself.
func ResolvePaths(cfg *config.Config) (Paths, error) {
	ws := cfg.Storage.Workspace
	if ws == "" {
		ws = "."
	}
	ws, err := filepath.Abs(ws)
	if err != nil {
		return Paths{}, fmt.Errorf("resolve workspace: %w", err)
	}

	p := Paths{
		Workspace:   ws,
		BaseDir:     under(ws, cfg.Storage.BaseDir),
		TemplateDir: under(ws, cfg.Storage.TemplateDir),
	}
	state := cfg.Storage.StateDir
	if state == "" {
		state = config.DefaultStateDir
	}
	p.StateDir = under(p.BaseDir, state)

	if !security.Within(ws, p.BaseDir) || p.BaseDir == ws {
		return Paths{}, fmt.Errorf("%w: storage.base_dir %s must be a directory inside %s", ErrOutsideWorkspace, p.BaseDir, ws)
	}
	if !security.Within(ws, p.TemplateDir) {
		return Paths{}, fmt.Errorf("%w: storage.template_dir %s must be inside %s", ErrOutsideWorkspace, p.TemplateDir, ws)
	}
	return p, nil
}

func under(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

// Rel returns target relative to the workspace, slash-separated, when it
// lies inside it; other paths come back unchanged.
func (p Paths) Rel(target string) string {
	r, err := filepath.Rel(p.Workspace, target)
	if err != nil {
		return target
	}
	r = filepath.ToSlash(r)
	if r == ".." || strings.HasPrefix(r, "../") {
		return target
	}
	return r
}

// Run bundles everything one generation run owns. Nothing in it is shared
// with other runs.
type Run struct {
	ID           string
	Paths        Paths
	Store        *project.Store
	Audit        *audit.Logger
	Orchestrator *Orchestrator

	req    Requirements
	client client.Client
}

// NewRun wires a run from configuration: the client stack, the sandboxed
// tool registry, the audit log and the orchestrator.
func NewRun(ctx context.Context, cfg *config.Config, req Requirements, observer Observer) (*Run, error) {
	c, err := client.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	run, err := NewRunWithClient(cfg, c, req, observer)
	if err != nil {
		c.Close()
		return nil, err
	}
	return run, nil
}

// NewRunWithClient is NewRun with a caller-supplied client.
func NewRunWithClient(cfg *config.Config, c client.Client, req Requirements, observer Observer) (*Run, error) {
	paths, err := ResolvePaths(cfg)
	if err != nil {
		return nil, err
	}

	fsys, err := sandbox.New(paths.Workspace)
	if err != nil {
		return nil, fmt.Errorf("open workspace: %w", err)
	}
	store, err := project.NewStore(paths.BaseDir, paths.Rel(paths.TemplateDir))
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	auditCfg := audit.DefaultConfig()
	auditCfg.MaxResultLen = config.DefaultAuditMaxResultLen
	auditLog, err := audit.NewLogger(paths.StateDir, id, auditCfg)
	if err != nil {
		return nil, err
	}

	env := &tools.Env{
		FS:            fsys,
		Store:         store,
		Requirements:  req.Text,
		TemplatesRoot: paths.Rel(filepath.Dir(paths.TemplateDir)),
		Validation: validate.Options{
			TypecheckCommand: cfg.Validation.TypecheckCommand,
			LintCommand:      cfg.Validation.LintCommand,
			CommandTimeout:   cfg.Validation.CommandTimeout,
		},
	}
	executor := tools.NewExecutor(tools.NewDefaultRegistry(env), auditLog, 0)
	llm := agent.NewLLMAgent(c, executor, cfg.StepsFor)

	orch := NewOrchestrator(llm, store, Options{
		MaxAttempts:            cfg.Pipeline.MaxRetries,
		RetryDelay:             cfg.Pipeline.RetryDelay,
		AutoFixOnAnalysisError: cfg.Pipeline.AutoFixOnAnalysisError,
		StateDir:               paths.StateDir,
		BaseDir:                paths.Rel(paths.BaseDir),
		TemplateDir:            paths.Rel(paths.TemplateDir),
		Observer:               observer,
		RunID:                  id,
	})

	return &Run{
		ID:           id,
		Paths:        paths,
		Store:        store,
		Audit:        auditLog,
		Orchestrator: orch,
		req:          req,
		client:       c,
	}, nil
}

// Execute runs the pipeline.
func (r *Run) Execute(ctx context.Context) (*RunReport, error) {
	return r.Orchestrator.Run(ctx, r.req)
}

// Close releases the client.
func (r *Run) Close() error {
	return r.client.Close()
}
