package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appforge/internal/agent"
	"appforge/internal/client"
	"appforge/internal/config"
	"appforge/internal/project"
	"appforge/internal/report"
)

// fakeApp simulates the phase agents against a real store.
type fakeApp struct {
	store  *project.Store
	qa     string
	fail   map[agent.Phase]error
	mu     sync.Mutex
	calls  map[agent.Phase]int
	prompt map[agent.Phase]string
}

func newFakeApp(store *project.Store) *fakeApp {
	return &fakeApp{
		store:  store,
		qa:     "Prototype status: functional\nCritical issues: 2\n",
		fail:   map[agent.Phase]error{},
		calls:  map[agent.Phase]int{},
		prompt: map[agent.Phase]string{},
	}
}

func (f *fakeApp) Run(_ context.Context, task agent.Task) (agent.Outcome, error) {
	f.mu.Lock()
	f.calls[task.Phase]++
	f.prompt[task.Phase] = task.Prompt
	f.mu.Unlock()

	if err := f.fail[task.Phase]; err != nil {
		return agent.Outcome{Steps: 1}, err
	}

	write := func(kind project.Kind, content string) error {
		p, err := f.store.Path(kind)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return err
		}
		return os.WriteFile(p, []byte(content), 0644)
	}

	var err error
	switch task.Phase {
	case agent.PhaseRequirements:
		if _, err = f.store.SetAppName("todo-app"); err == nil {
			err = write(project.KindRequirementsDoc, "# PRD\n")
		}
	case agent.PhaseUIScaffold:
		ui, _ := f.store.Path(project.KindUIOutputDir)
		if err = os.MkdirAll(filepath.Join(ui, "src"), 0755); err == nil {
			err = os.WriteFile(filepath.Join(ui, "src", "App.tsx"), []byte("export default function App() { return null }\n"), 0644)
		}
	case agent.PhaseQA:
		err = write(project.KindQAReport, f.qa)
	}
	return agent.Outcome{Output: "done", Steps: 2, ToolCalls: 1}, err
}

type recorder struct {
	started  []agent.Phase
	finished []PhaseOutcome
}

func (r *recorder) PhaseStarted(p agent.Phase)   { r.started = append(r.started, p) }
func (r *recorder) PhaseFinished(o PhaseOutcome) { r.finished = append(r.finished, o) }

type harness struct {
	stateDir string
	store    *project.Store
	app      *fakeApp
	obs      *recorder
	sleeps   int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	base := filepath.Join(t.TempDir(), "generated_app")
	store, err := project.NewStore(base, "")
	require.NoError(t, err)
	return &harness{
		stateDir: filepath.Join(base, ".appforge"),
		store:    store,
		app:      newFakeApp(store),
		obs:      &recorder{},
	}
}

func (h *harness) orchestrator(onAnalysisError bool) *Orchestrator {
	return NewOrchestrator(h.app, h.store, Options{
		MaxAttempts:            3,
		RetryDelay:             time.Hour,
		AutoFixOnAnalysisError: onAnalysisError,
		StateDir:               h.stateDir,
		BaseDir:                "generated_app",
		Observer:               h.obs,
		Sleep: func(ctx context.Context, d time.Duration) error {
			h.sleeps++
			return ctx.Err()
		},
	})
}

func phasesOf(outcomes []PhaseOutcome) []agent.Phase {
	out := make([]agent.Phase, len(outcomes))
	for i, o := range outcomes {
		out[i] = o.Phase
	}
	return out
}

func TestRunForwardProgressAfterExhaustedPhase(t *testing.T) {
	h := newHarness(t)
	h.app.fail[agent.PhaseUIScaffold] = errors.New("model produced garbage")

	rep, err := h.orchestrator(true).Run(context.Background(), Requirements{Text: "todo app", Source: "argument"})
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, rep.State)
	assert.Equal(t, agent.Phases(), phasesOf(rep.Phases))
	assert.Equal(t, []agent.Phase{agent.PhaseUIScaffold}, rep.Failed())

	scaffold, ok := rep.Outcome(agent.PhaseUIScaffold)
	require.True(t, ok)
	assert.Equal(t, StatusFailed, scaffold.Status)
	assert.Equal(t, 3, scaffold.Attempts)
	assert.Equal(t, ErrorPermanent, scaffold.ErrorKind)
	assert.Equal(t, "model produced garbage", scaffold.Message)
	assert.Equal(t, 3, h.app.calls[agent.PhaseUIScaffold])
	assert.Equal(t, 2, h.sleeps)

	qa, _ := rep.Outcome(agent.PhaseQA)
	assert.Equal(t, StatusSucceeded, qa.Status)
	assert.Equal(t, 1, qa.Attempts)

	assert.Equal(t, report.NoFixesNeeded, rep.Verdict)
	assert.False(t, rep.AutoFixRan)
	fix, _ := rep.Outcome(agent.PhaseAutoFix)
	assert.Equal(t, StatusSkipped, fix.Status)
	assert.Zero(t, h.app.calls[agent.PhaseAutoFix])

	assert.True(t, Completed(h.stateDir, rep.RunID))
	saved, err := ReadReport(h.stateDir, rep.RunID)
	require.NoError(t, err)
	assert.Equal(t, "todo-app", saved.AppName)
	assert.Equal(t, "argument", saved.RequirementsSource)
	assert.Equal(t, rep.Verdict, saved.Verdict)
	assert.Equal(t, StatusFailed, saved.Phases[2].Status)
}

func TestRunRecordsArtifactsAndObserver(t *testing.T) {
	h := newHarness(t)
	rep, err := h.orchestrator(true).Run(context.Background(), Requirements{Text: "todo app"})
	require.NoError(t, err)

	req, _ := rep.Outcome(agent.PhaseRequirements)
	prd, _ := h.store.Path(project.KindRequirementsDoc)
	assert.Equal(t, []string{prd}, req.Artifacts)
	assert.Equal(t, 2, req.Steps)

	// The scaffold fake never writes UI_STRUCTURE.json, so the run creates it.
	structure, _ := h.store.Path(project.KindUIStructure)
	assert.FileExists(t, structure)

	assert.Len(t, h.obs.started, 6)
	assert.Len(t, h.obs.finished, 7)
	assert.Equal(t, agent.PhaseAutoFix, h.obs.finished[6].Phase)

	assert.Contains(t, h.app.prompt[agent.PhaseRequirements], "todo app")
	assert.Contains(t, h.app.prompt[agent.PhaseImplementation], `"todo-app"`)
}

func TestRunAutoFixWhenQANeedsFixes(t *testing.T) {
	h := newHarness(t)
	h.app.qa = "Summary\nCritical issues: 2\n"

	rep, err := h.orchestrator(true).Run(context.Background(), Requirements{Text: "todo app"})
	require.NoError(t, err)

	assert.Equal(t, report.FixesNeeded, rep.Verdict)
	assert.True(t, rep.AutoFixRan)
	assert.Equal(t, 1, h.app.calls[agent.PhaseAutoFix])
	assert.Contains(t, h.app.prompt[agent.PhaseAutoFix], "2 critical issue(s) reported")
}

func TestRunAnalysisErrorPolicy(t *testing.T) {
	for _, tc := range []struct {
		name    string
		policy  bool
		wantRan bool
	}{
		{"fix", true, true},
		{"skip", false, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.app.fail[agent.PhaseQA] = &client.GenerationError{Provider: "fake", StatusCode: 503, Message: "unavailable"}

			rep, err := h.orchestrator(tc.policy).Run(context.Background(), Requirements{Text: "todo app"})
			require.NoError(t, err)

			qa, _ := rep.Outcome(agent.PhaseQA)
			assert.Equal(t, ErrorRetryable, qa.ErrorKind)
			assert.Equal(t, report.AnalysisError, rep.Verdict)
			assert.Equal(t, tc.wantRan, rep.AutoFixRan)
		})
	}
}

func TestRunCancelled(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	orch := NewOrchestrator(agent.Func(func(ctx context.Context, task agent.Task) (agent.Outcome, error) {
		cancel()
		return agent.Outcome{}, ctx.Err()
	}), h.store, Options{MaxAttempts: 3, StateDir: h.stateDir})

	rep, err := orch.Run(ctx, Requirements{Text: "todo app"})
	require.ErrorIs(t, err, context.Canceled)

	assert.True(t, rep.Cancelled)
	assert.Equal(t, StateCompleted, rep.State)
	require.Len(t, rep.Phases, 7)
	assert.Equal(t, StatusFailed, rep.Phases[0].Status)
	assert.Equal(t, 1, rep.Phases[0].Attempts)
	for _, o := range rep.Phases[1:] {
		assert.Equal(t, StatusSkipped, o.Status, o.Phase)
	}
	assert.True(t, Completed(h.stateDir, rep.RunID))
}

func TestListRuns(t *testing.T) {
	dir := t.TempDir()
	ids, err := ListRuns(dir)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, WriteReport(dir, &RunReport{RunID: "a", State: StateCompleted}))
	require.NoError(t, os.WriteFile(ReportPath(dir, "orphan"), []byte("{}"), 0644))

	ids, err = ListRuns(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)
}

func TestResolvePaths(t *testing.T) {
	ws := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Storage.Workspace = ws

	p, err := ResolvePaths(cfg)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(ws, "generated_app"), p.BaseDir)
	assert.Equal(t, filepath.Join(ws, "templates", "react-simple-spa"), p.TemplateDir)
	assert.Equal(t, filepath.Join(ws, "generated_app", ".appforge"), p.StateDir)
	assert.Equal(t, "templates/react-simple-spa", p.Rel(p.TemplateDir))
	assert.True(t, strings.HasPrefix(p.Rel("/elsewhere"), "/"))

	outside := filepath.Join(t.TempDir(), "apps")
	tests := []struct {
		name     string
		base     string
		template string
	}{
		{"absolute base dir elsewhere", outside, "templates/react-simple-spa"},
		{"relative base dir escaping", "../apps", "templates/react-simple-spa"},
		{"base dir is the workspace", ".", "templates/react-simple-spa"},
		{"template dir elsewhere", "generated_app", outside},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Storage.Workspace = ws
			cfg.Storage.BaseDir = tt.base
			cfg.Storage.TemplateDir = tt.template
			_, err := ResolvePaths(cfg)
			require.ErrorIs(t, err, ErrOutsideWorkspace)
		})
	}
}
