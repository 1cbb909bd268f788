package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/pressbuild/internal/errors"
)

func TestLeafActionValidate(t *testing.T) {
	tests := []struct {
		name    string
		action  LeafAction
		wantErr string
	}{
		{
			name:   "tool",
			action: LeafAction{ID: "cssmin", Kind: KindTool, Tool: "cleancss"},
		},
		{
			name:   "command line",
			action: LeafAction{ID: "jshint", Kind: KindTool, Command: "jshint --reporter=unix src"},
		},
		{
			name:    "tool without binary",
			action:  LeafAction{ID: "cssmin", Kind: KindTool},
			wantErr: "tool cannot be empty",
		},
		{
			name:   "rewrite",
			action: LeafAction{ID: "readme", Kind: KindRewrite, Pipeline: "readme", Files: FileContract{Inputs: []string{"readme.txt"}}},
		},
		{
			name:    "rewrite without pipeline",
			action:  LeafAction{ID: "readme", Kind: KindRewrite, Files: FileContract{Inputs: []string{"readme.txt"}}},
			wantErr: "needs a pipeline",
		},
		{
			name:    "rewrite without inputs",
			action:  LeafAction{ID: "readme", Kind: KindRewrite, Pipeline: "readme"},
			wantErr: "at least one input",
		},
		{
			name:    "clean without paths",
			action:  LeafAction{ID: "clean:build", Kind: KindClean},
			wantErr: "at least one path",
		},
		{
			name:    "copy without output",
			action:  LeafAction{ID: "copy:build", Kind: KindCopy, Files: FileContract{Inputs: []string{"*.php"}}},
			wantErr: "output directory",
		},
		{
			name:    "per file without inputs",
			action:  LeafAction{ID: "uglify", Kind: KindTool, Tool: "uglifyjs", PerFile: true},
			wantErr: "per_file requires inputs",
		},
		{
			name:    "unknown kind",
			action:  LeafAction{ID: "x", Kind: "ftp"},
			wantErr: "unknown kind",
		},
		{
			name:    "bad id",
			action:  LeafAction{ID: "9lives", Kind: KindTool, Tool: "cat"},
			wantErr: "invalid action id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.action.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.AddAction(toolAction("cssmin")))

	err := r.AddAction(toolAction("cssmin"))
	var regErr *RegistryError
	require.ErrorAs(t, err, &regErr)
	assert.True(t, regErr.Duplicate)
	assert.Equal(t, errors.ErrCodeTaskDuplicate, regErr.ErrorCode())

	// tasks and actions share one namespace
	err = r.AddTask(TaskDefinition{Name: "cssmin", Refs: []TaskRef{Leaf("cssmin")}})
	require.ErrorAs(t, err, &regErr)
	assert.True(t, regErr.Duplicate)
}

func TestRegistryRejectsInvalidTasks(t *testing.T) {
	r := NewRegistry()

	err := r.AddTask(TaskDefinition{Name: "empty"})
	var regErr *RegistryError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, errors.ErrCodeTaskInvalid, regErr.ErrorCode())

	err = r.AddTask(TaskDefinition{Name: "has space", Refs: aliases("x")})
	require.ErrorAs(t, err, &regErr)
}

func TestRegistryLookups(t *testing.T) {
	r := pluginRegistry(t)

	assert.Equal(t, Leaf("cssmin"), r.Resolve("cssmin"))
	assert.Equal(t, Alias("build"), r.Resolve("build"))
	assert.Equal(t, Alias("unheard-of"), r.Resolve("unheard-of"))

	_, ok := r.Task("build")
	assert.True(t, ok)
	_, ok = r.Action("build")
	assert.False(t, ok)

	names := r.TaskNames()
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, "deploy")
	assert.NotContains(t, names, "cssmin")

	ids := r.ActionIDs()
	assert.IsIncreasing(t, ids)
	assert.Contains(t, ids, "wp_deploy")
}

func TestAddTaskCopiesRefs(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.AddAction(toolAction("a")))
	refs := []TaskRef{Leaf("a")}
	require.NoError(t, r.AddTask(TaskDefinition{Name: "t", Refs: refs}))

	refs[0] = Leaf("mutated")
	def, _ := r.Task("t")
	assert.Equal(t, "a", def.Refs[0].Name)
}

func TestTaskRefString(t *testing.T) {
	assert.Equal(t, "alias(build)", Alias("build").String())
	assert.Equal(t, "leaf(cssmin)", Leaf("cssmin").String())
}
