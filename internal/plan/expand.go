package plan

// Expand resolves name into an ordered plan of leaf actions.
//
// References are walked depth-first in declared order. Every task and every
// leaf appears at most once in the result, however many parents reference
// it. Revisiting a task that is still being expanded is a CycleError; a name
// that is neither a task nor an action is an UnknownTaskError. Expand has no
// side effects, so a failing expansion never leaves partial work behind.
func Expand(r *Registry, name string) (*Plan, error) {
	p := &Plan{Task: name}

	if a, ok := r.actions[name]; ok {
		p.Actions = append(p.Actions, a)
		return p, nil
	}

	e := &expander{
		registry: r,
		plan:     p,
		onStack:  make(map[string]bool),
		done:     make(map[string]bool),
		emitted:  make(map[string]bool),
	}
	if err := e.visit(name, ""); err != nil {
		return nil, err
	}
	return p, nil
}

type expander struct {
	registry *Registry
	plan     *Plan

	stack   []string
	onStack map[string]bool
	done    map[string]bool
	emitted map[string]bool
}

func (e *expander) visit(name, parent string) error {
	if e.onStack[name] {
		return &CycleError{Path: e.cyclePath(name)}
	}
	if e.done[name] {
		return nil
	}

	def, ok := e.registry.tasks[name]
	if !ok {
		return &UnknownTaskError{Name: name, Parent: parent}
	}

	e.stack = append(e.stack, name)
	e.onStack[name] = true

	for _, ref := range def.Refs {
		if err := e.visitRef(ref, name); err != nil {
			return err
		}
	}

	e.stack = e.stack[:len(e.stack)-1]
	e.onStack[name] = false
	e.done[name] = true
	return nil
}

func (e *expander) visitRef(ref TaskRef, parent string) error {
	if ref.Kind == RefAlias {
		// An alias naming an action is accepted as a leaf.
		if _, isTask := e.registry.tasks[ref.Name]; isTask {
			return e.visit(ref.Name, parent)
		}
	}

	a, ok := e.registry.actions[ref.Name]
	if !ok {
		return &UnknownTaskError{Name: ref.Name, Parent: parent}
	}
	if !e.emitted[a.ID] {
		e.emitted[a.ID] = true
		e.plan.Actions = append(e.plan.Actions, a)
	}
	return nil
}

// cyclePath returns the stack from the first occurrence of name, closed by name
func (e *expander) cyclePath(name string) []string {
	start := 0
	for i, n := range e.stack {
		if n == name {
			start = i
			break
		}
	}
	path := make([]string, 0, len(e.stack)-start+1)
	path = append(path, e.stack[start:]...)
	return append(path, name)
}
