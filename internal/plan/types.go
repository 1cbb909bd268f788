package plan

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/pressbuild/internal/domain"
)

// RefKind distinguishes the two shapes a task reference can take
type RefKind int

const (
	// RefAlias points at another TaskDefinition
	RefAlias RefKind = iota
	// RefLeaf points at a LeafAction
	RefLeaf
)

func (k RefKind) String() string {
	if k == RefLeaf {
		return "leaf"
	}
	return "alias"
}

// TaskRef is one entry of a task's reference list: either Alias(name) or Leaf(id)
type TaskRef struct {
	Kind RefKind
	Name string
}

// Alias references another task by name
func Alias(name string) TaskRef {
	return TaskRef{Kind: RefAlias, Name: name}
}

// Leaf references a leaf action by id
func Leaf(id string) TaskRef {
	return TaskRef{Kind: RefLeaf, Name: id}
}

func (r TaskRef) String() string {
	return fmt.Sprintf("%s(%s)", r.Kind, r.Name)
}

// TaskDefinition is a named, ordered list of references
type TaskDefinition struct {
	Name        string
	Description string
	Refs        []TaskRef
}

// ActionKind selects the handler that executes a LeafAction
type ActionKind string

const (
	KindTool    ActionKind = "tool"
	KindRewrite ActionKind = "rewrite"
	KindClean   ActionKind = "clean"
	KindCopy    ActionKind = "copy"
)

// FileContract describes the files a leaf action reads and writes.
// Inputs are doublestar globs relative to Workdir; a leading "!" excludes.
// Output is a path template relative to Workdir.
type FileContract struct {
	Workdir string
	Inputs  []string
	Output  string
}

// LeafAction is an indivisible unit of work
type LeafAction struct {
	ID          string
	Description string
	Kind        ActionKind

	// Tool and Args are used by KindTool. Args are text/template strings.
	Tool string
	Args []string

	// Command is an alternative to Tool and Args: one command line that is
	// rendered as a template and then split with shell quoting rules.
	Command string

	// Pipeline names the rewrite pipeline used by KindRewrite.
	Pipeline string

	Files FileContract

	// PerFile runs the tool once per matched input instead of once in total.
	PerFile bool

	// Idempotent marks actions whose outputs depend only on their inputs, so
	// an up-to-date output may be reused without running the action.
	Idempotent bool
}

// Validate checks the action is complete for its kind
func (a LeafAction) Validate() error {
	if _, err := domain.NewTaskName(a.ID); err != nil {
		return fmt.Errorf("invalid action id: %w", err)
	}

	switch a.Kind {
	case KindTool:
		if strings.TrimSpace(a.Tool) == "" && strings.TrimSpace(a.Command) == "" {
			return fmt.Errorf("action %s: tool cannot be empty", a.ID)
		}
	case KindRewrite:
		if a.Pipeline == "" {
			return fmt.Errorf("action %s: rewrite action needs a pipeline", a.ID)
		}
		if len(a.Files.Inputs) == 0 {
			return fmt.Errorf("action %s: rewrite action needs at least one input", a.ID)
		}
	case KindClean:
		if len(a.Files.Inputs) == 0 {
			return fmt.Errorf("action %s: clean action needs at least one path", a.ID)
		}
	case KindCopy:
		if len(a.Files.Inputs) == 0 || a.Files.Output == "" {
			return fmt.Errorf("action %s: copy action needs inputs and an output directory", a.ID)
		}
	default:
		return fmt.Errorf("action %s: unknown kind %q", a.ID, a.Kind)
	}

	if a.PerFile && len(a.Files.Inputs) == 0 {
		return fmt.Errorf("action %s: per_file requires inputs", a.ID)
	}

	return nil
}

// Plan is the flattened, ordered list of leaf actions for one task
type Plan struct {
	Task    string
	Actions []LeafAction
}

// IDs returns the action ids in plan order
func (p *Plan) IDs() []string {
	ids := make([]string, len(p.Actions))
	for i, a := range p.Actions {
		ids[i] = a.ID
	}
	return ids
}

// Len returns the number of leaf actions in the plan
func (p *Plan) Len() int {
	return len(p.Actions)
}
