package exec

import (
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/pressbuild/internal/plan"
)

// Status is the final state of one executed leaf action
type Status string

const (
	// StatusCompleted means the handler ran and succeeded
	StatusCompleted Status = "completed"
	// StatusUpToDate means an idempotent action was skipped because its
	// outputs were newer than its inputs
	StatusUpToDate Status = "up-to-date"
)

// Result represents the outcome of running one leaf action
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration

	// Command is the argv of the last process started, if any
	Command []string

	// Inputs and Outputs are the resolved paths the action read and wrote
	Inputs  []string
	Outputs []string
}

// Outcome records one completed leaf action in an ExecutionLog
type Outcome struct {
	ActionID string          `json:"action_id" yaml:"action_id"`
	Kind     plan.ActionKind `json:"kind" yaml:"kind"`
	Status   Status          `json:"status" yaml:"status"`
	Duration time.Duration   `json:"duration" yaml:"duration"`
	ExitCode int             `json:"exit_code" yaml:"exit_code"`
	Stdout   string          `json:"stdout,omitempty" yaml:"stdout,omitempty"`
	Stderr   string          `json:"stderr,omitempty" yaml:"stderr,omitempty"`
}

// ExecutionLog is the ordered record of completed actions for one run.
// When a run fails, Outcomes holds only the actions that completed.
type ExecutionLog struct {
	RunID     uuid.UUID  `json:"run_id" yaml:"run_id"`
	Task      string     `json:"task" yaml:"task"`
	Plan      *plan.Plan `json:"-" yaml:"-"`
	Outcomes  []Outcome  `json:"outcomes" yaml:"outcomes"`
	Manifests []string   `json:"manifests,omitempty" yaml:"manifests,omitempty"`
	StartTime time.Time  `json:"start_time" yaml:"start_time"`
	EndTime   time.Time  `json:"end_time" yaml:"end_time"`
}

// Completed returns the ids of the recorded actions in execution order
func (l *ExecutionLog) Completed() []string {
	ids := make([]string, len(l.Outcomes))
	for i, o := range l.Outcomes {
		ids[i] = o.ActionID
	}
	return ids
}

// Duration returns the wall time of the run
func (l *ExecutionLog) Duration() time.Duration {
	if l.EndTime.IsZero() {
		return 0
	}
	return l.EndTime.Sub(l.StartTime)
}

// Count returns how many outcomes have the given status
func (l *ExecutionLog) Count(status Status) int {
	n := 0
	for _, o := range l.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// RunManifest is the audit record written for each completed action
type RunManifest struct {
	Timestamp    time.Time         `json:"timestamp"`
	RunID        string            `json:"run_id"`
	ActionID     string            `json:"action_id"`
	Kind         string            `json:"kind"`
	Status       string            `json:"status"`
	Command      []string          `json:"command,omitempty"`
	ExitCode     int               `json:"exit_code"`
	Duration     string            `json:"duration"`
	InputHashes  map[string]string `json:"input_hashes"`
	OutputHashes map[string]string `json:"output_hashes"`
}

// FileDiff is the unified diff of one file an action would write
type FileDiff struct {
	ActionID string `json:"action_id" yaml:"action_id"`
	Path     string `json:"path" yaml:"path"`
	Diff     string `json:"diff" yaml:"diff"`
}
