package cmd

import (
	"path/filepath"
	"sort"

	"github.com/felixgeelhaar/pressbuild/internal/exec"
	"github.com/felixgeelhaar/pressbuild/internal/log"
	"github.com/felixgeelhaar/pressbuild/internal/manifest"
	"github.com/felixgeelhaar/pressbuild/internal/plan"
	"github.com/felixgeelhaar/pressbuild/internal/rewrite"
)

// project is a loaded manifest wired to a runner
type project struct {
	Manifest *manifest.Manifest
	Registry *plan.Registry
	Runner   *exec.Runner
}

// loadProject loads the manifest and builds the registry, the rewrite
// pipelines and one handler per action kind
func loadProject(cc *CommandContext, logger *log.Logger) (*project, error) {
	m, err := manifest.Load(cc.ResolveManifest())
	if err != nil {
		return nil, err
	}

	reg, err := m.Registry()
	if err != nil {
		return nil, err
	}

	pipelines, err := m.Pipelines()
	if err != nil {
		return nil, err
	}

	pkg := exec.PackageInfo{Name: m.Package.Name, Version: m.Package.Version}
	ws := exec.Workspace{Root: m.Dir}

	tool := exec.NewToolHandler(m.Dir, pkg)
	tool.Env = environ(m.Env)

	handlers := map[plan.ActionKind]exec.Handler{
		plan.KindTool: tool,
		plan.KindRewrite: &exec.RewriteHandler{
			Workspace: ws,
			Package:   pkg,
			Store:     rewrite.NewOSStore(),
			Pipelines: pipelines,
		},
		plan.KindClean: &exec.CleanHandler{Workspace: ws},
		plan.KindCopy:  &exec.CopyHandler{Workspace: ws, Package: pkg},
	}

	runner := exec.NewRunner(reg, handlers)
	runner.Logger = logger
	runner.Force = cc.Force
	runner.Workspace = ws
	if cc.RunDir != "" {
		dir := cc.RunDir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(m.Dir, dir)
		}
		runner.ManifestDir = dir
	}

	return &project{Manifest: m, Registry: reg, Runner: runner}, nil
}

// environ turns the manifest env map into KEY=VALUE pairs in key order
func environ(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k + "=" + env[k]
	}
	return out
}
