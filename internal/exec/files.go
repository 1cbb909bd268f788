package exec

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"

	"github.com/felixgeelhaar/pressbuild/internal/plan"
	"github.com/felixgeelhaar/pressbuild/internal/rewrite"
)

// Workspace resolves the file contract of leaf actions against a project root
type Workspace struct {
	Root string
	// Fs is the filesystem paths are resolved on; nil means the OS filesystem
	Fs afero.Fs
}

func (w Workspace) fs() afero.Fs {
	if w.Fs == nil {
		return afero.NewOsFs()
	}
	return w.Fs
}

// Dir returns the working directory of an action
func (w Workspace) Dir(files plan.FileContract) string {
	if files.Workdir == "" {
		return w.Root
	}
	if filepath.IsAbs(files.Workdir) {
		return files.Workdir
	}
	return filepath.Join(w.Root, files.Workdir)
}

// Path joins a slash-separated path relative to the action's working directory
func (w Workspace) Path(files plan.FileContract, rel string) string {
	return filepath.Join(w.Dir(files), filepath.FromSlash(rel))
}

// Inputs expands the include globs of files and drops every path matched by
// a "!" exclude. Paths are returned relative to the action's working
// directory, slash separated, sorted and without duplicates. Patterns are
// confined to the working directory.
func (w Workspace) Inputs(files plan.FileContract, filesOnly bool) ([]string, error) {
	fsys := afero.NewIOFS(afero.NewBasePathFs(w.fs(), w.Dir(files)))
	includes, excludes := splitPatterns(files.Inputs)

	var opts []doublestar.GlobOption
	if filesOnly {
		opts = append(opts, doublestar.WithFilesOnly())
	}

	seen := make(map[string]bool)
	for _, pattern := range includes {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid glob pattern %q", pattern)
		}
		matches, err := doublestar.Glob(fsys, pattern, opts...)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
		for _, match := range matches {
			seen[match] = true
		}
	}

	out := make([]string, 0, len(seen))
	for rel := range seen {
		if !excluded(rel, excludes) {
			out = append(out, rel)
		}
	}
	sort.Strings(out)
	return out, nil
}

func splitPatterns(patterns []string) (includes, excludes []string) {
	for _, p := range patterns {
		p = strings.TrimSuffix(strings.TrimSpace(p), "/")
		if p == "" {
			continue
		}
		if strings.HasPrefix(p, "!") {
			excludes = append(excludes, path.Clean(strings.TrimPrefix(p, "!")))
			continue
		}
		includes = append(includes, path.Clean(strings.TrimPrefix(p, "./")))
	}
	return includes, excludes
}

// excluded matches a relative path, and its base name, against the excludes
func excluded(rel string, excludes []string) bool {
	for _, pattern := range excludes {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(pattern, path.Base(rel)); err == nil && ok {
			return true
		}
	}
	return false
}

// upToDate reports whether every output exists and none is older than the
// newest input. Paths are relative to the action's working directory.
func (w Workspace) upToDate(files plan.FileContract, inputs, outputs []string) bool {
	if len(inputs) == 0 || len(outputs) == 0 {
		return false
	}
	fs := w.fs()

	var newestInput int64
	for _, in := range inputs {
		info, err := fs.Stat(w.Path(files, in))
		if err != nil {
			return false
		}
		if t := info.ModTime().UnixNano(); t > newestInput {
			newestInput = t
		}
	}

	for _, out := range outputs {
		info, err := fs.Stat(w.Path(files, out))
		if err != nil {
			return false
		}
		if info.ModTime().UnixNano() < newestInput {
			return false
		}
	}
	return true
}

// TemplateData is the value tool arguments and output paths are rendered against
type TemplateData struct {
	// Input is the current file in per-file mode, otherwise the first input
	Input string
	// Inputs holds every resolved input
	Inputs []string
	// Output is the rendered output path
	Output string
	// Stem is Input without its extension
	Stem string
	// Dir is the directory part of Input
	Dir     string
	Workdir string
	Name    string
	Version string
}

// PackageInfo is the project metadata exposed to templates
type PackageInfo struct {
	Name    string
	Version string
}

func newTemplateData(w Workspace, files plan.FileContract, pkg PackageInfo, input string, inputs []string) (TemplateData, error) {
	data := TemplateData{
		Input:   input,
		Inputs:  inputs,
		Workdir: w.Dir(files),
		Name:    pkg.Name,
		Version: pkg.Version,
	}
	if input != "" {
		data.Stem = strings.TrimSuffix(input, path.Ext(input))
		data.Dir = path.Dir(input)
	}

	if files.Output != "" {
		out, err := rewrite.RenderTemplate("output", files.Output, data)
		if err != nil {
			return data, err
		}
		data.Output = strings.TrimSpace(out)
	}
	return data, nil
}
