package exec

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	osexec "os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/shlex"

	"github.com/felixgeelhaar/pressbuild/internal/plan"
	"github.com/felixgeelhaar/pressbuild/internal/rewrite"
)

// ToolHandler runs external tools (minifiers, linters, i18n extractors) as
// opaque processes. Arguments are text/template strings rendered against
// TemplateData. In per-file mode the tool runs once per resolved input.
type ToolHandler struct {
	Workspace Workspace
	Package   PackageInfo
	Env       []string
}

// NewToolHandler creates a ToolHandler rooted at root
func NewToolHandler(root string, pkg PackageInfo) *ToolHandler {
	return &ToolHandler{Workspace: Workspace{Root: root}, Package: pkg}
}

// Handle implements Handler
func (h *ToolHandler) Handle(ctx context.Context, action plan.LeafAction) (*Result, error) {
	start := time.Now()
	inputs, err := h.inputs(action)
	if err != nil {
		return nil, err
	}

	result := &Result{Inputs: inputs}
	runs := [][]string{inputs}
	if action.PerFile {
		runs = make([][]string, len(inputs))
		for i, in := range inputs {
			runs[i] = []string{in}
		}
	}

	var stdout, stderr strings.Builder
	for _, files := range runs {
		first := ""
		if len(files) > 0 {
			first = files[0]
		}
		data, err := newTemplateData(h.Workspace, action.Files, h.Package, first, files)
		if err != nil {
			return result, fmt.Errorf("render output for %s: %w", action.ID, err)
		}

		argv, err := h.command(action, data)
		if err != nil {
			return result, err
		}

		if data.Output != "" {
			if err := h.Workspace.fs().MkdirAll(filepath.Dir(h.Workspace.Path(action.Files, data.Output)), 0o755); err != nil {
				return result, fmt.Errorf("create output directory: %w", err)
			}
			result.Outputs = append(result.Outputs, data.Output)
		}

		run, err := h.run(ctx, data.Workdir, argv)
		if run != nil {
			stdout.WriteString(run.Stdout)
			stderr.WriteString(run.Stderr)
			result.Command = argv
			result.ExitCode = run.ExitCode
		}
		if err != nil {
			result.Stdout, result.Stderr = stdout.String(), stderr.String()
			return result, err
		}
		if run.ExitCode != 0 {
			result.Stdout, result.Stderr = stdout.String(), stderr.String()
			result.Duration = time.Since(start)
			return result, nil
		}
	}

	result.Stdout, result.Stderr = stdout.String(), stderr.String()
	result.Duration = time.Since(start)
	return result, nil
}

// UpToDate implements UpToDateChecker: every rendered output must exist and
// be at least as new as the newest input.
func (h *ToolHandler) UpToDate(action plan.LeafAction) (bool, error) {
	inputs, err := h.inputs(action)
	if err != nil {
		return false, err
	}
	if len(inputs) == 0 || action.Files.Output == "" {
		return false, nil
	}

	groups := [][]string{inputs}
	if action.PerFile {
		groups = make([][]string, len(inputs))
		for i, in := range inputs {
			groups[i] = []string{in}
		}
	}

	outputs := make([]string, 0, len(groups))
	for _, files := range groups {
		data, err := newTemplateData(h.Workspace, action.Files, h.Package, files[0], files)
		if err != nil {
			return false, err
		}
		outputs = append(outputs, data.Output)
	}
	return h.Workspace.upToDate(action.Files, inputs, outputs), nil
}

func (h *ToolHandler) inputs(action plan.LeafAction) ([]string, error) {
	if len(action.Files.Inputs) == 0 {
		return nil, nil
	}
	return h.Workspace.Inputs(action.Files, true)
}

// command renders the argv for one invocation
func (h *ToolHandler) command(action plan.LeafAction, data TemplateData) ([]string, error) {
	if action.Command != "" {
		line, err := rewrite.RenderTemplate(action.ID, action.Command, data)
		if err != nil {
			return nil, fmt.Errorf("render command for %s: %w", action.ID, err)
		}
		argv, err := shlex.Split(line)
		if err != nil {
			return nil, fmt.Errorf("parse command for %s: %w", action.ID, err)
		}
		if len(argv) == 0 {
			return nil, fmt.Errorf("command for %s is empty after rendering", action.ID)
		}
		return argv, nil
	}

	argv := []string{action.Tool}
	for i, arg := range action.Args {
		out, err := rewrite.RenderTemplate(fmt.Sprintf("%s.arg%d", action.ID, i), arg, data)
		if err != nil {
			return nil, fmt.Errorf("render args for %s: %w", action.ID, err)
		}
		argv = append(argv, out)
	}
	return argv, nil
}

// run starts argv in dir and waits for it. A non-zero exit is reported in
// the result, not as an error; an error means the process never ran.
func (h *ToolHandler) run(ctx context.Context, dir string, argv []string) (*Result, error) {
	startTime := time.Now()

	name := argv[0]
	if strings.ContainsRune(name, '/') && !filepath.IsAbs(name) {
		// project-local tools such as node_modules/.bin/cleancss
		name = filepath.Join(dir, name)
	}
	path, err := osexec.LookPath(name)
	if err != nil {
		return nil, &ToolNotFoundError{Tool: argv[0], Err: err}
	}

	// a started tool always runs to completion; cancellation is honoured
	// between actions only
	cmd := osexec.CommandContext(context.WithoutCancel(ctx), path, argv[1:]...)
	cmd.Dir = dir
	if len(h.Env) > 0 {
		cmd.Env = append(os.Environ(), h.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()

	exitCode := 0
	if err != nil {
		var exitErr *osexec.ExitError
		if !stderrors.As(err, &exitErr) {
			return nil, fmt.Errorf("failed to execute %s: %w", argv[0], err)
		}
		exitCode = exitErr.ExitCode()
	}

	return &Result{
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(startTime),
		Command:  argv,
	}, nil
}
