package plan

import (
	"sort"

	"github.com/felixgeelhaar/pressbuild/internal/domain"
)

// Registry holds the task definitions and leaf actions of one invocation.
// It is built before a run and must not be modified while one is in progress.
type Registry struct {
	tasks   map[string]TaskDefinition
	actions map[string]LeafAction
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		tasks:   make(map[string]TaskDefinition),
		actions: make(map[string]LeafAction),
	}
}

// AddAction registers a leaf action. Ids share one namespace with task names.
func (r *Registry) AddAction(a LeafAction) error {
	if err := a.Validate(); err != nil {
		return &RegistryError{Name: a.ID, Reason: err.Error()}
	}
	if r.has(a.ID) {
		return &RegistryError{Name: a.ID, Reason: "name already registered", Duplicate: true}
	}
	r.actions[a.ID] = a
	return nil
}

// AddTask registers a task definition
func (r *Registry) AddTask(t TaskDefinition) error {
	if _, err := domain.NewTaskName(t.Name); err != nil {
		return &RegistryError{Name: t.Name, Reason: err.Error()}
	}
	if len(t.Refs) == 0 {
		return &RegistryError{Name: t.Name, Reason: "task must reference at least one task or action"}
	}
	if r.has(t.Name) {
		return &RegistryError{Name: t.Name, Reason: "name already registered", Duplicate: true}
	}
	refs := make([]TaskRef, len(t.Refs))
	copy(refs, t.Refs)
	t.Refs = refs
	r.tasks[t.Name] = t
	return nil
}

func (r *Registry) has(name string) bool {
	_, isTask := r.tasks[name]
	_, isAction := r.actions[name]
	return isTask || isAction
}

// Task looks up a task definition
func (r *Registry) Task(name string) (TaskDefinition, bool) {
	t, ok := r.tasks[name]
	return t, ok
}

// Action looks up a leaf action
func (r *Registry) Action(id string) (LeafAction, bool) {
	a, ok := r.actions[id]
	return a, ok
}

// Resolve turns a bare name from a manifest into a typed reference. Names
// that match an action become leaves; everything else is an alias, so that
// unknown names surface as UnknownTaskError during expansion.
func (r *Registry) Resolve(name string) TaskRef {
	if _, ok := r.actions[name]; ok {
		return Leaf(name)
	}
	return Alias(name)
}

// TaskNames returns the names of all task definitions, sorted
func (r *Registry) TaskNames() []string {
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ActionIDs returns the ids of all leaf actions, sorted
func (r *Registry) ActionIDs() []string {
	ids := make([]string, 0, len(r.actions))
	for id := range r.actions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Validate expands every task and returns the first failure
func (r *Registry) Validate() error {
	for _, name := range r.TaskNames() {
		if _, err := Expand(r, name); err != nil {
			return err
		}
	}
	return nil
}
