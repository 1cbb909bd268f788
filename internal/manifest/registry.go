package manifest

import (
	"github.com/felixgeelhaar/pressbuild/internal/plan"
)

// Registry builds the task registry declared by the manifest. Every name in
// a task's run list that is an action becomes a leaf reference; any other
// name is kept as an alias, so a typo surfaces as an unknown task when the
// task is expanded.
func (m *Manifest) Registry() (*plan.Registry, error) {
	reg := plan.NewRegistry()

	for _, id := range sortedKeys(m.Actions) {
		if err := reg.AddAction(m.Actions[id].leaf(id)); err != nil {
			return nil, err
		}
	}

	for _, name := range sortedKeys(m.Tasks) {
		t := m.Tasks[name]
		refs := make([]plan.TaskRef, len(t.Run))
		for i, ref := range t.Run {
			refs[i] = reg.Resolve(ref)
		}
		if err := reg.AddTask(plan.TaskDefinition{
			Name:        name,
			Description: t.Description,
			Refs:        refs,
		}); err != nil {
			return nil, err
		}
	}

	return reg, nil
}

func (a ActionConfig) leaf(id string) plan.LeafAction {
	return plan.LeafAction{
		ID:          id,
		Description: a.Description,
		Kind:        plan.ActionKind(a.Kind),
		Tool:        a.Tool,
		Args:        a.Args,
		Command:     a.Command,
		Pipeline:    a.Pipeline,
		Files: plan.FileContract{
			Workdir: a.Workdir,
			Inputs:  a.Inputs,
			Output:  a.Output,
		},
		PerFile:    a.PerFile,
		Idempotent: a.Idempotent,
	}
}
