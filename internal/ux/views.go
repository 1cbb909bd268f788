package ux

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/pressbuild/internal/errors"
	"github.com/felixgeelhaar/pressbuild/internal/exec"
	"github.com/felixgeelhaar/pressbuild/internal/plan"
)

// PlanView is the printable form of an expanded plan
type PlanView struct {
	Task    string          `json:"task" yaml:"task"`
	Actions []ActionView    `json:"actions" yaml:"actions"`
	Diffs   []exec.FileDiff `json:"diffs,omitempty" yaml:"diffs,omitempty"`
}

// ActionView describes one planned leaf action
type ActionView struct {
	ID          string   `json:"id" yaml:"id"`
	Kind        string   `json:"kind" yaml:"kind"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Workdir     string   `json:"workdir,omitempty" yaml:"workdir,omitempty"`
	Inputs      []string `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Output      string   `json:"output,omitempty" yaml:"output,omitempty"`
	PerFile     bool     `json:"per_file,omitempty" yaml:"per_file,omitempty"`
	Idempotent  bool     `json:"idempotent,omitempty" yaml:"idempotent,omitempty"`
}

// NewPlanView converts p for display
func NewPlanView(p *plan.Plan) PlanView {
	v := PlanView{Task: p.Task, Actions: make([]ActionView, len(p.Actions))}
	for i, a := range p.Actions {
		v.Actions[i] = ActionView{
			ID:          a.ID,
			Kind:        string(a.Kind),
			Description: a.Description,
			Workdir:     a.Files.Workdir,
			Inputs:      a.Files.Inputs,
			Output:      a.Files.Output,
			PerFile:     a.PerFile,
			Idempotent:  a.Idempotent,
		}
	}
	return v
}

// Render implements Renderer
func (v PlanView) Render(s Styles) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s (%d actions)\n", s.Title.Render("Plan for"), s.Code.Render(v.Task), len(v.Actions))
	width := 0
	for _, a := range v.Actions {
		width = max(width, len(a.ID))
	}
	for i, a := range v.Actions {
		fmt.Fprintf(&b, "  %2d. %-*s  %s", i+1, width, a.ID, s.Muted.Render("["+a.Kind+"]"))
		if a.Description != "" {
			fmt.Fprintf(&b, "  %s", a.Description)
		}
		b.WriteString("\n")
	}
	for _, d := range v.Diffs {
		fmt.Fprintf(&b, "\n%s %s\n", s.Title.Render(d.ActionID+":"), d.Path)
		b.WriteString(renderDiff(d.Diff, s))
	}
	return b.String()
}

// renderDiff colours the added and removed lines of a unified diff
func renderDiff(diff string, s Styles) string {
	lines := strings.SplitAfter(diff, "\n")
	for i, line := range lines {
		body := strings.TrimSuffix(line, "\n")
		switch {
		case strings.HasPrefix(body, "+++"), strings.HasPrefix(body, "---"):
			lines[i] = s.Muted.Render(body) + line[len(body):]
		case strings.HasPrefix(body, "@@"):
			lines[i] = s.Code.Render(body) + line[len(body):]
		case strings.HasPrefix(body, "+"):
			lines[i] = s.Success.Render(body) + line[len(body):]
		case strings.HasPrefix(body, "-"):
			lines[i] = s.Error.Render(body) + line[len(body):]
		}
	}
	return strings.Join(lines, "")
}

// PlanListView holds the plans of several tasks
type PlanListView struct {
	Plans []PlanView `json:"plans" yaml:"plans"`
}

// Render implements Renderer
func (v PlanListView) Render(s Styles) string {
	parts := make([]string, len(v.Plans))
	for i, p := range v.Plans {
		parts[i] = p.Render(s)
	}
	return strings.Join(parts, "\n")
}

// TaskItem is one entry of list-tasks
type TaskItem struct {
	Name        string   `json:"name" yaml:"name"`
	Kind        string   `json:"kind" yaml:"kind"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Runs        []string `json:"runs,omitempty" yaml:"runs,omitempty"`
}

// TaskListView lists every task and leaf action, sorted by name
type TaskListView struct {
	Tasks []TaskItem `json:"tasks" yaml:"tasks"`
}

// NewTaskListView lists the names registered in reg
func NewTaskListView(reg *plan.Registry) TaskListView {
	tasks, actions := reg.TaskNames(), reg.ActionIDs()
	items := make([]TaskItem, 0, len(tasks)+len(actions))

	i, j := 0, 0
	for i < len(tasks) || j < len(actions) {
		if j >= len(actions) || (i < len(tasks) && tasks[i] < actions[j]) {
			t, _ := reg.Task(tasks[i])
			runs := make([]string, len(t.Refs))
			for k, ref := range t.Refs {
				runs[k] = ref.Name
			}
			items = append(items, TaskItem{Name: t.Name, Kind: "task", Description: t.Description, Runs: runs})
			i++
			continue
		}
		a, _ := reg.Action(actions[j])
		items = append(items, TaskItem{Name: a.ID, Kind: string(a.Kind), Description: a.Description})
		j++
	}
	return TaskListView{Tasks: items}
}

// Render implements Renderer
func (v TaskListView) Render(s Styles) string {
	width := 0
	for _, t := range v.Tasks {
		width = max(width, len(t.Name))
	}
	var b strings.Builder
	for _, t := range v.Tasks {
		fmt.Fprintf(&b, "%-*s  %s", width, t.Name, s.Muted.Render(fmt.Sprintf("%-7s", t.Kind)))
		switch {
		case t.Description != "":
			fmt.Fprintf(&b, "  %s", t.Description)
		case len(t.Runs) > 0:
			fmt.Fprintf(&b, "  %s", strings.Join(t.Runs, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RunView summarises one task run
type RunView struct {
	RunID     string        `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Task      string        `json:"task" yaml:"task"`
	Succeeded bool          `json:"succeeded" yaml:"succeeded"`
	Duration  string        `json:"duration" yaml:"duration"`
	Actions   []OutcomeView `json:"actions" yaml:"actions"`
	Manifests []string      `json:"manifests,omitempty" yaml:"manifests,omitempty"`
	Failure   *FailureView  `json:"failure,omitempty" yaml:"failure,omitempty"`
}

// OutcomeView is one completed action
type OutcomeView struct {
	ID       string `json:"id" yaml:"id"`
	Status   string `json:"status" yaml:"status"`
	Duration string `json:"duration" yaml:"duration"`
}

// FailureView names the action that stopped a run and its error code
type FailureView struct {
	ActionID string `json:"action_id,omitempty" yaml:"action_id,omitempty"`
	Code     string `json:"code,omitempty" yaml:"code,omitempty"`
	Message  string `json:"message" yaml:"message"`
}

// NewRunView builds the summary of a run. runLog may be nil when the task
// failed validation before anything ran.
func NewRunView(task string, runLog *exec.ExecutionLog, err error) RunView {
	v := RunView{Task: task, Succeeded: err == nil, Actions: []OutcomeView{}}
	if runLog != nil {
		v.RunID = runLog.RunID.String()
		v.Duration = round(runLog.Duration()).String()
		v.Manifests = runLog.Manifests
		for _, o := range runLog.Outcomes {
			v.Actions = append(v.Actions, OutcomeView{
				ID:       o.ActionID,
				Status:   string(o.Status),
				Duration: round(o.Duration).String(),
			})
		}
	}
	if err != nil {
		v.Failure = NewFailureView(err)
	}
	return v
}

// NewFailureView extracts the failing action id and error code from err
func NewFailureView(err error) *FailureView {
	f := &FailureView{Message: err.Error()}
	var failure *exec.LeafActionFailure
	if stderrors.As(err, &failure) {
		f.ActionID = failure.ActionID
	}
	if code, ok := errors.CodeOf(err); ok {
		f.Code = string(code)
	}
	return f
}

// Render implements Renderer
func (v RunView) Render(s Styles) string {
	var b strings.Builder
	for _, a := range v.Actions {
		mark := s.Success.Render("✓")
		if a.Status == string(exec.StatusUpToDate) {
			mark = s.Muted.Render("-")
		}
		fmt.Fprintf(&b, "%s %s %s\n", mark, a.ID, s.Muted.Render(a.Status+" "+a.Duration))
	}

	if v.Failure != nil {
		id := v.Failure.ActionID
		if id == "" {
			id = v.Task
		}
		fmt.Fprintf(&b, "%s %s %s\n", s.Error.Render("✗"), id, s.Error.Render("["+v.Failure.Code+"]"))
		fmt.Fprintf(&b, "\n%s %s failed after %d completed actions\n", s.Error.Render("Task"), v.Task, len(v.Actions))
		return b.String()
	}

	fmt.Fprintf(&b, "\n%s %s (%d actions, %s)\n", s.Success.Render("Task completed:"), v.Task, len(v.Actions), v.Duration)
	return b.String()
}

func round(d time.Duration) time.Duration {
	if d > time.Second {
		return d.Round(10 * time.Millisecond)
	}
	return d.Round(time.Microsecond)
}
