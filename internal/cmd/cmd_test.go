package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/pressbuild/internal/errors"
	"github.com/felixgeelhaar/pressbuild/internal/exec"
	"github.com/felixgeelhaar/pressbuild/internal/exitcode"
	"github.com/felixgeelhaar/pressbuild/internal/manifest"
	"github.com/felixgeelhaar/pressbuild/internal/plan"
	"github.com/felixgeelhaar/pressbuild/internal/rewrite"
)

const demoManifest = `
package:
  name: Demo Plugin
  version: 1.2.0

actions:
  readme:
    description: Convert readme.txt to markdown
    pipeline: readme
    inputs: [readme.txt]
    output: readme.md
  stamp:
    pipeline: version
    inputs: [demo.php]
  clean:build: { kind: clean, inputs: [build/] }
  copy:build: { kind: copy, inputs: [demo.php, readme.md], output: build/ }

tasks:
  default: [readme]
  build:
    description: Stamp and package the plugin
    run: [default, stamp, clean:build, copy:build]

pipelines:
  readme:
    - rule: readme_markdown
    - rule: tag_links
      mandatory: true
  version:
    - rule: version_stamp
      mandatory: true

watch:
  readme:
    files: [readme.txt]
    tasks: [readme]
`

const demoReadme = "=== Demo Plugin ===\nTags: cache, seo\nStable tag: 1.0.0\n\n== Description ==\n\nDemo.\n"

const demoPHP = "<?php\n/*\n * Plugin Name: Demo Plugin\n * Version: 1.0.0\n */\n"

// demoProject writes a plugin tree and returns its directory
func demoProject(t *testing.T, manifestYAML string) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		manifest.DefaultFile: manifestYAML,
		"readme.txt":         demoReadme,
		"demo.php":           demoPHP,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	t.Setenv(manifest.EnvManifest, "")
	t.Setenv(manifest.EnvVersion, "")
	return dir
}

// resetFlags restores every flag to its default so the package level
// command tree can be executed repeatedly
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		// cobra only hands the root context to a subcommand whose context
		// is nil, so drop the one kept from an earlier execution
		sub.SetContext(nil)
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestRunBuild(t *testing.T) {
	dir := demoProject(t, demoManifest)

	out, err := execute(t, "run", "build", "--no-color", "-m", filepath.Join(dir, manifest.DefaultFile))
	require.NoError(t, err)

	assert.Contains(t, out, "✓ readme completed")
	assert.Contains(t, out, "✓ copy:build completed")
	assert.Contains(t, out, "Task completed: build (4 actions")

	md, err := os.ReadFile(filepath.Join(dir, "readme.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Demo Plugin #\n")
	assert.Contains(t, string(md), "**Tags:** [cache](https://wordpress.org/plugins/tags/cache/), [seo](https://wordpress.org/plugins/tags/seo/)\n")

	php, err := os.ReadFile(filepath.Join(dir, "demo.php"))
	require.NoError(t, err)
	assert.Contains(t, string(php), " * Version: 1.2.0\n")

	copied, err := os.ReadFile(filepath.Join(dir, "build", "demo.php"))
	require.NoError(t, err)
	assert.Equal(t, string(php), string(copied))

	readme, err := os.ReadFile(filepath.Join(dir, "readme.txt"))
	require.NoError(t, err)
	assert.Equal(t, demoReadme, string(readme), "source untouched when an output is set")
}

func TestRunDefaultTaskFromEnvManifest(t *testing.T) {
	dir := demoProject(t, demoManifest)
	t.Setenv(manifest.EnvManifest, filepath.Join(dir, manifest.DefaultFile))

	out, err := execute(t, "run", "--format", "json")
	require.NoError(t, err)

	var view struct {
		Task      string `json:"task"`
		Succeeded bool   `json:"succeeded"`
		Actions   []struct {
			ID string `json:"id"`
		} `json:"actions"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "default", view.Task)
	assert.True(t, view.Succeeded)
	require.Len(t, view.Actions, 1)
	assert.Equal(t, "readme", view.Actions[0].ID)
}

func TestRunFailureReportsActionAndCode(t *testing.T) {
	dir := demoProject(t, demoManifest)
	// a second tag line makes the mandatory tag_links rule ambiguous
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"),
		[]byte(demoReadme+"\n== FAQ ==\n\n=== Demo Plugin ===\nTags: again\n"), 0o644))

	out, err := execute(t, "run", "build", "--no-color", "-m", filepath.Join(dir, manifest.DefaultFile))
	require.Error(t, err)

	var failure *exec.LeafActionFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "readme", failure.ActionID)

	var ambiguous *rewrite.AmbiguousMatchError
	require.ErrorAs(t, err, &ambiguous)

	assert.Contains(t, out, "✗ readme [REWRITE-002]")
	assert.Contains(t, out, "Task build failed after 0 completed actions")
	assert.Equal(t, exitcode.ValidationError, exitcode.DetermineExitCode(err))

	_, statErr := os.Stat(filepath.Join(dir, "readme.md"))
	assert.True(t, os.IsNotExist(statErr), "nothing written on failure")
	php, _ := os.ReadFile(filepath.Join(dir, "demo.php"))
	assert.Equal(t, demoPHP, string(php), "later actions never ran")
}

func TestRunUnknownTask(t *testing.T) {
	dir := demoProject(t, demoManifest)

	_, err := execute(t, "run", "biuld", "-m", filepath.Join(dir, manifest.DefaultFile))
	var unknown *plan.UnknownTaskError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, exitcode.ValidationError, exitcode.DetermineExitCode(err))
}

func TestRunWritesRunManifests(t *testing.T) {
	dir := demoProject(t, demoManifest)

	_, err := execute(t, "run", "default", "--run-dir", "runs", "-m", filepath.Join(dir, manifest.DefaultFile))
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, "runs"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "_readme.json")
}

func TestRunMissingManifest(t *testing.T) {
	_, err := execute(t, "run", "-m", filepath.Join(t.TempDir(), "nope.yaml"))
	code, ok := errors.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeConfigNotFound, code)
	assert.Equal(t, exitcode.UsageError, exitcode.DetermineExitCode(err))
}

func TestDryRun(t *testing.T) {
	dir := demoProject(t, demoManifest)

	out, err := execute(t, "dry-run", "build", "--no-color", "-m", filepath.Join(dir, manifest.DefaultFile))
	require.NoError(t, err)
	assert.Equal(t,
		"Plan for build (4 actions)\n"+
			"   1. readme       [rewrite]  Convert readme.txt to markdown\n"+
			"   2. stamp        [rewrite]\n"+
			"   3. clean:build  [clean]\n"+
			"   4. copy:build   [copy]\n",
		out)

	_, statErr := os.Stat(filepath.Join(dir, "readme.md"))
	assert.True(t, os.IsNotExist(statErr), "dry-run has no side effects")
}

func TestDryRunDiff(t *testing.T) {
	dir := demoProject(t, demoManifest)

	out, err := execute(t, "dry-run", "stamp", "--diff", "--no-color", "-m", filepath.Join(dir, manifest.DefaultFile))
	require.NoError(t, err)
	assert.Contains(t, out,
		"stamp: demo.php\n"+
			"--- a/demo.php\n+++ b/demo.php\n@@ -1,5 +1,5 @@\n"+
			" <?php\n /*\n  * Plugin Name: Demo Plugin\n- * Version: 1.0.0\n+ * Version: 1.2.0\n  */\n")

	php, err := os.ReadFile(filepath.Join(dir, "demo.php"))
	require.NoError(t, err)
	assert.Equal(t, demoPHP, string(php), "dry-run has no side effects")
}

func TestDryRunDiffReportsRuleFailure(t *testing.T) {
	dir := demoProject(t, demoManifest)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "demo.php"), []byte("<?php\n"), 0o644))

	_, err := execute(t, "dry-run", "stamp", "--diff", "-m", filepath.Join(dir, manifest.DefaultFile))
	var missing *rewrite.MissingAnchorError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, exitcode.GeneralError, exitcode.DetermineExitCode(err))
}

func TestDryRunAll(t *testing.T) {
	dir := demoProject(t, demoManifest)

	out, err := execute(t, "dry-run", "--all", "--format", "yaml", "-m", filepath.Join(dir, manifest.DefaultFile))
	require.NoError(t, err)
	assert.Contains(t, out, "task: build")
	assert.Contains(t, out, "task: default")
}

func TestDryRunCycleExitsOne(t *testing.T) {
	dir := demoProject(t, `
actions:
  lint: { tool: jshint }
tasks:
  a: [b]
  b: [a, lint]
`)

	_, err := execute(t, "dry-run", "a", "-m", filepath.Join(dir, manifest.DefaultFile))
	var cycle *plan.CycleError
	require.ErrorAs(t, err, &cycle)
	assert.True(t, cycle.Contains("a"))
	assert.True(t, cycle.Contains("b"))
	assert.Equal(t, exitcode.GeneralError, exitcode.DetermineExitCode(err))
}

func TestListTasks(t *testing.T) {
	dir := demoProject(t, demoManifest)

	out, err := execute(t, "list-tasks", "--no-color", "-m", filepath.Join(dir, manifest.DefaultFile))
	require.NoError(t, err)
	assert.Equal(t,
		"build        task     Stamp and package the plugin\n"+
			"clean:build  clean  \n"+
			"copy:build   copy   \n"+
			"default      task     readme\n"+
			"readme       rewrite  Convert readme.txt to markdown\n"+
			"stamp        rewrite\n",
		out)
}

func TestWatchWithoutEntries(t *testing.T) {
	dir := demoProject(t, "actions:\n  lint: { tool: jshint }\ntasks:\n  default: [lint]\n")

	_, err := execute(t, "watch", "-m", filepath.Join(dir, manifest.DefaultFile))
	code, ok := errors.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeConfigInvalid, code)
}

func TestWatchStopsOnCancel(t *testing.T) {
	dir := demoProject(t, demoManifest)
	resetFlags(rootCmd)

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"watch", "-m", filepath.Join(dir, manifest.DefaultFile)})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, rootCmd.ExecuteContext(ctx))
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Regexp(t, `^pressbuild \S+\n$`, out)

	out, err = execute(t, "version", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"go_version"`)
}

func TestUnknownFormat(t *testing.T) {
	dir := demoProject(t, demoManifest)
	_, err := execute(t, "list-tasks", "--format", "xml", "-m", filepath.Join(dir, manifest.DefaultFile))
	assert.ErrorContains(t, err, "unknown format")
}

func TestEnviron(t *testing.T) {
	assert.Equal(t, []string{"A=1", "NODE_ENV=production"}, environ(map[string]string{"NODE_ENV": "production", "A": "1"}))
	assert.Empty(t, environ(nil))
}
