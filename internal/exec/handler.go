package exec

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"time"

	"github.com/otiai10/copy"

	"github.com/felixgeelhaar/pressbuild/internal/plan"
	"github.com/felixgeelhaar/pressbuild/internal/rewrite"
)

// Handler executes one kind of leaf action. A returned error, or a result
// with a non-zero exit code, fails the run.
type Handler interface {
	Handle(ctx context.Context, action plan.LeafAction) (*Result, error)
}

// HandlerFunc adapts a function to the Handler interface
type HandlerFunc func(ctx context.Context, action plan.LeafAction) (*Result, error)

// Handle implements Handler
func (f HandlerFunc) Handle(ctx context.Context, action plan.LeafAction) (*Result, error) {
	return f(ctx, action)
}

// Previewer is implemented by handlers that can show the changes an action
// would make without making them
type Previewer interface {
	Preview(action plan.LeafAction) ([]FileDiff, error)
	// Sources lists the files Preview reads, joined to the action's
	// working directory and slash separated
	Sources(action plan.LeafAction) ([]string, error)
}

// UpToDateChecker is implemented by handlers that can tell whether an
// idempotent action's outputs are current
type UpToDateChecker interface {
	UpToDate(action plan.LeafAction) (bool, error)
}

// RewriteHandler runs a named rewrite pipeline over every input of the
// action. With an output template each input is written to the rendered
// path; without one the input is rewritten in place.
type RewriteHandler struct {
	Workspace Workspace
	Package   PackageInfo
	Store     *rewrite.Store
	Pipelines map[string]*rewrite.Pipeline
}

// Handle implements Handler
func (h *RewriteHandler) Handle(_ context.Context, action plan.LeafAction) (*Result, error) {
	start := time.Now()

	p, targets, err := h.targets(action)
	if err != nil {
		return nil, err
	}

	result := &Result{Inputs: make([]string, len(targets))}
	for i, t := range targets {
		result.Inputs[i] = t.input
	}
	for _, t := range targets {
		outcome, err := h.Store.Rewrite(t.src, t.dst, p)
		if err != nil {
			return result, err
		}
		if outcome.Written {
			result.Outputs = append(result.Outputs, t.rel)
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}

// Preview implements Previewer. Each file is diffed against its current
// content on disk, so earlier actions of the same plan are not taken into
// account.
func (h *RewriteHandler) Preview(action plan.LeafAction) ([]FileDiff, error) {
	p, targets, err := h.targets(action)
	if err != nil {
		return nil, err
	}

	var diffs []FileDiff
	for _, t := range targets {
		pv, err := h.Store.Preview(t.src, t.dst, p)
		if err != nil {
			return diffs, err
		}
		if pv.Changed() {
			diffs = append(diffs, FileDiff{
				ActionID: action.ID,
				Path:     t.rel,
				Diff:     rewrite.Diff(t.rel, pv.Before, pv.After),
			})
		}
	}
	return diffs, nil
}

// Sources implements Previewer
func (h *RewriteHandler) Sources(action plan.LeafAction) ([]string, error) {
	inputs, err := h.Workspace.Inputs(action.Files, true)
	if err != nil {
		return nil, err
	}
	workdir := filepath.ToSlash(action.Files.Workdir)
	sources := make([]string, len(inputs))
	for i, in := range inputs {
		sources[i] = path.Join(workdir, in)
	}
	return sources, nil
}

type rewriteTarget struct {
	input string // input relative to the working directory
	rel   string // file written, relative to the working directory
	src   string
	dst   string // empty for an in-place rewrite
}

// targets resolves the pipeline and the source and destination of every
// input of action
func (h *RewriteHandler) targets(action plan.LeafAction) (*rewrite.Pipeline, []rewriteTarget, error) {
	p, ok := h.Pipelines[action.Pipeline]
	if !ok {
		return nil, nil, fmt.Errorf("action %s: unknown pipeline %q", action.ID, action.Pipeline)
	}

	inputs, err := h.Workspace.Inputs(action.Files, true)
	if err != nil {
		return nil, nil, err
	}
	if len(inputs) == 0 {
		return nil, nil, &rewrite.IOError{
			Op:   "read",
			Path: h.Workspace.Dir(action.Files),
			Err:  fmt.Errorf("no file matches %v", action.Files.Inputs),
		}
	}

	targets := make([]rewriteTarget, 0, len(inputs))
	for _, in := range inputs {
		data, err := newTemplateData(h.Workspace, action.Files, h.Package, in, inputs)
		if err != nil {
			return nil, nil, fmt.Errorf("render output for %s: %w", action.ID, err)
		}

		t := rewriteTarget{input: in, rel: in, src: h.Workspace.Path(action.Files, in)}
		if data.Output != "" {
			t.rel = data.Output
			t.dst = h.Workspace.Path(action.Files, data.Output)
		}
		targets = append(targets, t)
	}
	return p, targets, nil
}

// CleanHandler removes every path matched by the action's inputs
type CleanHandler struct {
	Workspace Workspace
}

// Handle implements Handler
func (h *CleanHandler) Handle(_ context.Context, action plan.LeafAction) (*Result, error) {
	start := time.Now()

	matches, err := h.Workspace.Inputs(action.Files, false)
	if err != nil {
		return nil, err
	}

	fs := h.Workspace.fs()
	for _, rel := range matches {
		if err := fs.RemoveAll(h.Workspace.Path(action.Files, rel)); err != nil {
			return nil, &rewrite.IOError{Op: "write", Path: rel, Err: err}
		}
	}

	return &Result{Outputs: matches, Duration: time.Since(start)}, nil
}

// CopyHandler copies every matched file or directory into the output
// directory, keeping paths relative to the working directory. Copying goes
// through the OS filesystem.
type CopyHandler struct {
	Workspace Workspace
	Package   PackageInfo
}

// Handle implements Handler
func (h *CopyHandler) Handle(_ context.Context, action plan.LeafAction) (*Result, error) {
	start := time.Now()

	inputs, err := h.Workspace.Inputs(action.Files, true)
	if err != nil {
		return nil, err
	}

	data, err := newTemplateData(h.Workspace, action.Files, h.Package, "", inputs)
	if err != nil {
		return nil, fmt.Errorf("render output for %s: %w", action.ID, err)
	}
	dest := h.Workspace.Path(action.Files, data.Output)

	outputs := make([]string, 0, len(inputs))
	for _, rel := range inputs {
		src := h.Workspace.Path(action.Files, rel)
		dst := filepath.Join(dest, filepath.FromSlash(rel))
		if err := copy.Copy(src, dst, copy.Options{PreserveTimes: true}); err != nil {
			return nil, &rewrite.IOError{Op: "write", Path: dst, Err: err}
		}
		outputs = append(outputs, filepath.ToSlash(filepath.Join(data.Output, rel)))
	}

	return &Result{Inputs: inputs, Outputs: outputs, Duration: time.Since(start)}, nil
}
