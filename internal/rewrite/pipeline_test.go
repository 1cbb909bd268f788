package rewrite

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// appendRule appends its suffix unless the text already contains it
type appendRule struct {
	name   string
	suffix string
}

func (r appendRule) Name() string { return r.name }

func (r appendRule) Apply(text string) (string, error) {
	if strings.Contains(text, r.suffix) {
		return text, nil
	}
	return text + r.suffix, nil
}

type failRule struct{ err error }

func (failRule) Name() string { return "fail" }

func (r failRule) Apply(text string) (string, error) { return text, r.err }

func TestApplyOrdersByPriority(t *testing.T) {
	doc := NewDocument("readme.md", []byte("x"))
	steps := []Step{
		{Priority: 30, Rule: appendRule{"c", "C"}},
		{Priority: 10, Rule: appendRule{"a", "A"}},
		{Priority: 20, Rule: appendRule{"b1", "B1"}},
		{Priority: 20, Rule: appendRule{"b2", "B2"}},
	}

	require.NoError(t, Apply(doc, steps))
	assert.Equal(t, "xAB1B2C", doc.Text)
	assert.True(t, doc.Changed())

	// declared order is not mutated
	assert.Equal(t, "c", steps[0].Rule.Name())
}

func TestApplyFailureLeavesTextUntouched(t *testing.T) {
	boom := stderrors.New("boom")
	doc := NewDocument("readme.md", []byte("x"))

	err := Apply(doc, []Step{
		{Priority: 1, Rule: appendRule{"a", "A"}},
		{Priority: 2, Rule: failRule{boom}},
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, "x", doc.Text)
	assert.False(t, doc.Changed())
}

func TestPipelineApply(t *testing.T) {
	p := NewPipeline("readme", appendRule{"a", "A"}, appendRule{"c", "C"})
	p.Add(15, appendRule{"b", "B"})

	require.Len(t, p.Steps, 3)
	assert.Equal(t, 10, p.Steps[0].Priority)
	assert.Equal(t, 20, p.Steps[1].Priority)

	doc, err := p.Apply(NewDocument("r.md", []byte("")))
	require.NoError(t, err)
	assert.Equal(t, "ABC", doc.Text)

	// a second run over the output is a no-op
	again, err := p.Apply(NewDocument("r.md", []byte(doc.Text)))
	require.NoError(t, err)
	assert.False(t, again.Changed())
}

func TestPipelineApplyWrapsRuleErrors(t *testing.T) {
	p := NewPipeline("readme", NewTagLinks("", "", "", true))

	_, err := p.Apply(NewDocument("r.md", []byte("nothing")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline readme")

	var missing *MissingAnchorError
	assert.ErrorAs(t, err, &missing)
}

func TestLineOf(t *testing.T) {
	text := "a\nb\nc"
	assert.Equal(t, 1, lineOf(text, 0))
	assert.Equal(t, 2, lineOf(text, 2))
	assert.Equal(t, 3, lineOf(text, 4))
}

func TestLineEnding(t *testing.T) {
	assert.Equal(t, "\n", lineEnding("a\nb", 1))
	assert.Equal(t, "\r\n", lineEnding("a\r\nb", 2))
	assert.Equal(t, "\r\n", lineEnding("a\r\nb\nc", 4))
}
