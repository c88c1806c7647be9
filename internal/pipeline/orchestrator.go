// Package pipeline drives the phase agents through a generation run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"appforge/internal/agent"
	"appforge/internal/client"
	"appforge/internal/logging"
	"appforge/internal/project"
	"appforge/internal/prompts"
	"appforge/internal/report"
	"appforge/internal/robustness"
	"appforge/internal/uistructure"
)

// mainPhases run unconditionally, in order. AutoFix follows the QA branch.
var mainPhases = []agent.Phase{
	agent.PhaseRequirements,
	agent.PhaseSpecBuild,
	agent.PhaseUIScaffold,
	agent.PhaseImplementation,
	agent.PhaseValidation,
	agent.PhaseQA,
}

// Observer receives phase progress. Callbacks run on the orchestrator's
// goroutine.
type Observer interface {
	PhaseStarted(phase agent.Phase)
	PhaseFinished(outcome PhaseOutcome)
}

type nopObserver struct{}

func (nopObserver) PhaseStarted(agent.Phase)   {}
func (nopObserver) PhaseFinished(PhaseOutcome) {}

// Options configures the orchestrator.
type Options struct {
	MaxAttempts            int
	RetryDelay             time.Duration
	AutoFixOnAnalysisError bool
	// StateDir receives runs/<id>.json and runs/<id>.complete.
	StateDir string
	// BaseDir and TemplateDir are shown to the agents in their prompts.
	BaseDir     string
	TemplateDir string
	Sleep       robustness.Sleeper
	Observer    Observer
	// RunID is generated when empty.
	RunID string
}

// Requirements is the user's request and where it came from.
type Requirements struct {
	Text   string
	Source string
}

// Orchestrator runs the fixed phase sequence. A failed phase is recorded
// and the run moves on; every run ends Completed.
type Orchestrator struct {
	agent agent.Agent
	store *project.Store
	opts  Options
}

// NewOrchestrator creates an orchestrator. One agent serves every phase;
// it receives the phase with each task.
func NewOrchestrator(a agent.Agent, store *project.Store, opts Options) *Orchestrator {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.Sleep == nil {
		opts.Sleep = robustness.SleepContext
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.RunID == "" {
		opts.RunID = uuid.New().String()
	}
	return &Orchestrator{agent: a, store: store, opts: opts}
}

// RunID returns the identifier of the run this orchestrator records.
func (o *Orchestrator) RunID() string {
	return o.opts.RunID
}

// Run executes the pipeline. The report is always returned and persisted;
// the error is non-nil only when ctx was cancelled or the report could not
// be written.
func (o *Orchestrator) Run(ctx context.Context, req Requirements) (*RunReport, error) {
	rep := &RunReport{
		RunID:              o.opts.RunID,
		StartedAt:          time.Now(),
		RequirementsSource: req.Source,
		State:              StateRunning,
	}
	log := logging.With("run_id", rep.RunID)
	log.Info("pipeline started", "requirements_source", req.Source)

	for _, phase := range mainPhases {
		rep.Phases = append(rep.Phases, o.runPhase(ctx, phase, req, ""))
		if phase == agent.PhaseUIScaffold {
			o.ensureStructure(ctx)
		}
	}

	o.branch(ctx, req, rep)

	rep.Cancelled = ctx.Err() != nil
	rep.State = StateCompleted
	rep.FinishedAt = time.Now()
	if name, ok := o.store.Current(); ok {
		rep.AppName = name
	}
	log.Info("pipeline completed",
		"duration", rep.FinishedAt.Sub(rep.StartedAt),
		"failed_phases", len(rep.Failed()),
		"verdict", rep.Verdict.String(),
		"auto_fix", rep.AutoFixRan)

	if err := WriteReport(o.opts.StateDir, rep); err != nil {
		return rep, err
	}
	return rep, ctx.Err()
}

// runPhase runs one phase under the retry policy and records its outcome.
func (o *Orchestrator) runPhase(ctx context.Context, phase agent.Phase, req Requirements, feedback string) PhaseOutcome {
	out := PhaseOutcome{Phase: phase}
	log := logging.With("run_id", o.opts.RunID, "phase", phase.String())

	if err := ctx.Err(); err != nil {
		out.Status = StatusSkipped
		out.Message = "run cancelled"
		o.opts.Observer.PhaseFinished(out)
		return out
	}

	o.opts.Observer.PhaseStarted(phase)
	start := time.Now()

	policy := robustness.Policy{
		MaxAttempts: o.opts.MaxAttempts,
		Delay:       o.opts.RetryDelay,
		IsRetryable: client.IsRetryable,
		Sleep:       o.opts.Sleep,
		OnFailure: func(a robustness.Attempt) {
			switch {
			case a.Final:
				log.Error("phase failed", "attempt", a.Number, "max", a.Max, "error", a.Err)
			case a.Retryable:
				log.Warn("transient phase failure, retrying", "attempt", a.Number, "max", a.Max, "delay", o.opts.RetryDelay, "error", a.Err)
			default:
				log.Warn("phase failed, retrying anyway", "attempt", a.Number, "max", a.Max, "delay", o.opts.RetryDelay, "error", a.Err)
			}
		},
	}

	attempts, err := robustness.Retry(ctx, policy, func(ctx context.Context, attempt int) error {
		prompt, err := prompts.Render(phase.String(), o.promptData(req, feedback))
		if err != nil {
			return err
		}
		res, err := o.agent.Run(ctx, agent.Task{Phase: phase, Prompt: prompt})
		out.Steps += res.Steps
		out.ToolCalls += res.ToolCalls
		return err
	})
	out.Attempts = attempts
	out.Duration = time.Since(start)

	if err != nil {
		out.Status = StatusFailed
		out.Message = err.Error()
		out.ErrorKind = ErrorPermanent
		var re *robustness.RetryError
		if errors.As(err, &re) {
			out.Message = re.Last.Error()
			if client.IsRetryable(re.Last) {
				out.ErrorKind = ErrorRetryable
			}
		}
	} else {
		out.Status = StatusSucceeded
		out.Artifacts = o.artifacts(phase)
		log.Info("phase succeeded", "attempts", attempts, "steps", out.Steps, "duration", out.Duration)
	}

	o.opts.Observer.PhaseFinished(out)
	return out
}

// branch analyzes the QA report and runs AutoFix when it calls for fixes.
func (o *Orchestrator) branch(ctx context.Context, req Requirements, rep *RunReport) {
	res := o.analyze()
	rep.Verdict = res.Verdict
	rep.VerdictReason = res.Reason
	logging.Info("qa report analyzed", "run_id", rep.RunID, "verdict", res.Verdict.String(), "reason", res.Reason)

	run := res.Verdict.NeedsFixes()
	if res.Verdict == report.AnalysisError {
		run = o.opts.AutoFixOnAnalysisError
	}

	if !run {
		out := PhaseOutcome{
			Phase:   agent.PhaseAutoFix,
			Status:  StatusSkipped,
			Message: fmt.Sprintf("not needed: %s", res.Reason),
		}
		o.opts.Observer.PhaseFinished(out)
		rep.Phases = append(rep.Phases, out)
		return
	}

	out := o.runPhase(ctx, agent.PhaseAutoFix, req, fmt.Sprintf("%s (%s)", res.Verdict, res.Reason))
	rep.AutoFixRan = out.Status != StatusSkipped
	rep.Phases = append(rep.Phases, out)
}

func (o *Orchestrator) analyze() report.Result {
	path, err := o.store.Path(project.KindQAReport)
	if err != nil {
		return report.Result{Verdict: report.AnalysisError, Reason: err.Error()}
	}
	res, err := report.AnalyzeFile(path)
	if err != nil {
		logging.Warn("qa report analysis failed", "path", path, "error", err)
	}
	return res
}

// ensureStructure writes UI_STRUCTURE.json when the scaffold phase did not.
func (o *Orchestrator) ensureStructure(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	target, err := o.store.Path(project.KindUIStructure)
	if err != nil {
		logging.Warn("skipping ui structure check", "error", err)
		return
	}
	if _, err := os.Stat(target); err == nil {
		return
	}

	uiDir := filepath.Dir(target)
	s, err := uistructure.Generate(uiDir)
	if err != nil {
		logging.Warn("ui structure generation failed", "dir", uiDir, "error", err)
		return
	}
	if _, err := uistructure.Write(uiDir, s); err != nil {
		logging.Warn("ui structure write failed", "dir", uiDir, "error", err)
		return
	}
	logging.Info("generated missing ui structure", "path", target)
}

func (o *Orchestrator) promptData(req Requirements, feedback string) prompts.Data {
	d := prompts.Data{
		BaseDir:      o.opts.BaseDir,
		TemplateDir:  o.opts.TemplateDir,
		Requirements: req.Text,
		Feedback:     feedback,
	}
	if name, ok := o.store.Current(); ok {
		d.AppName = name
	}
	return d
}

// phaseArtifacts lists the files each phase is expected to leave behind.
var phaseArtifacts = map[agent.Phase][]project.Kind{
	agent.PhaseRequirements:   {project.KindRequirementsDoc},
	agent.PhaseSpecBuild:      {project.KindSpecDoc},
	agent.PhaseUIScaffold:     {project.KindUIDesignDoc, project.KindUIStructure},
	agent.PhaseImplementation: {project.KindUIOutputDir},
	agent.PhaseValidation:     {project.KindValidationReport},
	agent.PhaseQA:             {project.KindQAReport},
	agent.PhaseAutoFix:        {project.KindValidationReport},
}

// artifacts returns the expected outputs of phase that exist on disk.
func (o *Orchestrator) artifacts(phase agent.Phase) []string {
	var out []string
	for _, kind := range phaseArtifacts[phase] {
		p, err := o.store.Path(kind)
		if err != nil {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}
