package rewrite

import (
	"fmt"
	"sort"
)

// Rule is a pure text transformation. Every rule in this package is
// idempotent: applying it to its own output changes nothing.
type Rule interface {
	Name() string
	Apply(text string) (string, error)
}

// Step places a rule in a pipeline. Lower priorities run first.
type Step struct {
	Priority int
	Rule     Rule
}

// Pipeline is a named, ordered list of rewrite steps
type Pipeline struct {
	Name  string
	Steps []Step
}

// NewPipeline creates a pipeline from rules, giving each rule a priority of
// ten times its position so that later additions can slot in between.
func NewPipeline(name string, rules ...Rule) *Pipeline {
	p := &Pipeline{Name: name}
	for i, r := range rules {
		p.Steps = append(p.Steps, Step{Priority: (i + 1) * 10, Rule: r})
	}
	return p
}

// Add appends a rule at the given priority
func (p *Pipeline) Add(priority int, rule Rule) *Pipeline {
	p.Steps = append(p.Steps, Step{Priority: priority, Rule: rule})
	return p
}

// Apply runs the pipeline over doc
func (p *Pipeline) Apply(doc *Document) (*Document, error) {
	if err := Apply(doc, p.Steps); err != nil {
		return doc, fmt.Errorf("pipeline %s: %w", p.Name, err)
	}
	return doc, nil
}

// Apply runs steps over doc in ascending priority; steps with equal priority
// keep their declared order. The document text is replaced only when every
// step succeeds.
func Apply(doc *Document, steps []Step) error {
	ordered := make([]Step, len(steps))
	copy(ordered, steps)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	text := doc.Text
	for _, step := range ordered {
		next, err := step.Rule.Apply(text)
		if err != nil {
			return err
		}
		text = next
	}

	doc.Text = text
	return nil
}
