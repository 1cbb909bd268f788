package exec

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/pressbuild/internal/log"
	"github.com/felixgeelhaar/pressbuild/internal/plan"
)

// Runner expands a task and executes its leaf actions one at a time, in
// plan order. It stops at the first failure; there is no rollback and no
// retry.
type Runner struct {
	Registry *plan.Registry
	Handlers map[plan.ActionKind]Handler
	Logger   *log.Logger

	// Force runs idempotent actions even when their outputs are up to date
	Force bool

	// ManifestDir receives one JSON run manifest per completed action;
	// empty disables manifests
	ManifestDir string

	// Workspace resolves manifest input and output paths for hashing
	Workspace Workspace
}

// NewRunner creates a Runner over registry with the given handlers
func NewRunner(registry *plan.Registry, handlers map[plan.ActionKind]Handler) *Runner {
	return &Runner{
		Registry: registry,
		Handlers: handlers,
	}
}

func (r *Runner) logger() *log.Logger {
	if r.Logger == nil {
		return log.DefaultLogger()
	}
	return r.Logger
}

// DryRun expands name without executing anything
func (r *Runner) DryRun(name string) (*plan.Plan, error) {
	return plan.Expand(r.Registry, name)
}

// Preview collects the diffs of every action in p whose handler is a
// Previewer. A failure is reported as a *LeafActionFailure, the same way a
// run reports it.
func (r *Runner) Preview(p *plan.Plan) ([]FileDiff, error) {
	var diffs []FileDiff
	for _, action := range p.Actions {
		pv, ok := r.Handlers[action.Kind].(Previewer)
		if !ok {
			continue
		}
		d, err := pv.Preview(action)
		if err != nil {
			return diffs, &LeafActionFailure{ActionID: action.ID, Kind: action.Kind, Err: err}
		}
		diffs = append(diffs, d...)
	}
	return diffs, nil
}

// Run expands name and executes the plan. Expansion errors, and rewrite
// rules that already fail against the files on disk, are returned with a
// nil log before any action runs. On a later failure the log holds only the
// actions that completed and the error is a *LeafActionFailure. The context
// is checked between actions, never during one: a started tool runs to
// completion.
func (r *Runner) Run(ctx context.Context, name string) (*ExecutionLog, error) {
	p, err := plan.Expand(r.Registry, name)
	if err != nil {
		return nil, err
	}
	if err := r.preflight(p); err != nil {
		r.logger().WithError(err).ErrorContext(ctx, "preflight failed", "task", name)
		return nil, err
	}

	execLog := &ExecutionLog{
		RunID:     uuid.New(),
		Task:      name,
		Plan:      p,
		StartTime: time.Now(),
	}
	defer func() { execLog.EndTime = time.Now() }()

	logger := r.logger().With("run_id", execLog.RunID.String(), "task", name)
	logger.InfoContext(ctx, "run started", "actions", p.Len())

	for i, action := range p.Actions {
		if err := ctx.Err(); err != nil {
			logger.WarnContext(ctx, "run cancelled", "completed", i, "remaining", p.Len()-i)
			return execLog, &CancelledError{Completed: i, Remaining: p.Len() - i, Err: err}
		}

		actionLog := logger.With("action", action.ID, "kind", string(action.Kind), "step", i+1)
		actionLog.DebugContext(ctx, "action started")

		outcome, result, err := r.runAction(ctx, action)
		if err != nil {
			actionLog.WithError(err).ErrorContext(ctx, "action failed")
			return execLog, err
		}

		execLog.Outcomes = append(execLog.Outcomes, outcome)
		actionLog.InfoContext(ctx, "action finished",
			"status", string(outcome.Status),
			"duration", outcome.Duration.String())

		if r.ManifestDir != "" && outcome.Status == StatusCompleted {
			path, err := r.writeManifest(execLog.RunID.String(), action, outcome, result)
			if err != nil {
				actionLog.WarnContext(ctx, "failed to save run manifest", "error", err.Error())
				continue
			}
			execLog.Manifests = append(execLog.Manifests, path)
		}
	}

	logger.InfoContext(ctx, "run finished",
		"completed", execLog.Count(StatusCompleted),
		"up_to_date", execLog.Count(StatusUpToDate))
	return execLog, nil
}

// runAction executes one leaf action and converts every failure into a
// *LeafActionFailure
func (r *Runner) runAction(ctx context.Context, action plan.LeafAction) (Outcome, *Result, error) {
	outcome := Outcome{ActionID: action.ID, Kind: action.Kind}

	h, ok := r.Handlers[action.Kind]
	if !ok {
		return outcome, nil, &LeafActionFailure{
			ActionID: action.ID,
			Kind:     action.Kind,
			Err:      &NoHandlerError{Kind: action.Kind},
		}
	}

	if action.Idempotent && !r.Force {
		if checker, ok := h.(UpToDateChecker); ok {
			current, err := checker.UpToDate(action)
			if err != nil {
				return outcome, nil, &LeafActionFailure{ActionID: action.ID, Kind: action.Kind, Err: err}
			}
			if current {
				outcome.Status = StatusUpToDate
				return outcome, nil, nil
			}
		}
	}

	start := time.Now()
	result, err := h.Handle(ctx, action)
	if err != nil {
		failure := &LeafActionFailure{ActionID: action.ID, Kind: action.Kind, Err: err}
		if result != nil {
			failure.ExitCode = result.ExitCode
			failure.Stderr = result.Stderr
		}
		return outcome, result, failure
	}
	if result == nil {
		result = &Result{Duration: time.Since(start)}
	}
	if result.ExitCode != 0 {
		return outcome, result, &LeafActionFailure{
			ActionID: action.ID,
			Kind:     action.Kind,
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
		}
	}

	outcome.Status = StatusCompleted
	outcome.Duration = result.Duration
	outcome.Stdout = result.Stdout
	outcome.Stderr = result.Stderr
	return outcome, result, nil
}

func (r *Runner) writeManifest(runID string, action plan.LeafAction, outcome Outcome, result *Result) (string, error) {
	fs := r.Workspace.fs()
	manifest := CreateManifest(runID, action, outcome, result)

	if result != nil {
		for _, rel := range result.Inputs {
			if err := manifest.AddInputHash(fs, rel, r.Workspace.Path(action.Files, rel)); err != nil {
				return "", fmt.Errorf("hash input %s: %w", rel, err)
			}
		}
		for _, rel := range result.Outputs {
			path := r.Workspace.Path(action.Files, rel)
			if info, err := fs.Stat(path); err != nil || info.IsDir() {
				// removed by a clean action, or a directory
				continue
			}
			if err := manifest.AddOutputHash(fs, rel, path); err != nil {
				return "", fmt.Errorf("hash output %s: %w", rel, err)
			}
		}
	}

	return SaveManifest(fs, manifest, r.ManifestDir)
}
