package exec

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/felixgeelhaar/pressbuild/internal/plan"
)

// preflight previews every action of p whose handler is a Previewer, so a
// rule failure such as a missing or ambiguous anchor is reported before the
// first action runs. An action is deferred to run time when its sources do
// not exist yet or an earlier action of p declares it writes one of them;
// its content before the run says nothing about the content it will see.
func (r *Runner) preflight(p *plan.Plan) error {
	var written []string
	for _, action := range p.Actions {
		if pv, ok := r.Handlers[action.Kind].(Previewer); ok {
			sources, err := pv.Sources(action)
			if err == nil && len(sources) > 0 && !anyWritten(written, sources) {
				if _, err := pv.Preview(action); err != nil {
					return &LeafActionFailure{ActionID: action.ID, Kind: action.Kind, Err: err}
				}
			}
		}
		written = append(written, declaredWrites(action)...)
	}
	return nil
}

// declaredWrites returns glob patterns, relative to the project root, for
// the files action may write according to its file contract. Tools without
// an output write nothing the plan knows about.
func declaredWrites(action plan.LeafAction) []string {
	workdir := filepath.ToSlash(action.Files.Workdir)

	if out := action.Files.Output; out != "" {
		if i := strings.Index(out, "{{"); i >= 0 {
			// any file below the directory the template starts in
			dir := path.Dir(path.Join(workdir, out[:i]+"_"))
			if dir == "." {
				return []string{"**"}
			}
			return []string{dir + "/**"}
		}
		target := path.Join(workdir, out)
		return []string{target, target + "/**"}
	}

	switch action.Kind {
	case plan.KindRewrite, plan.KindClean:
		var patterns []string
		for _, in := range action.Files.Inputs {
			if strings.HasPrefix(in, "!") {
				continue
			}
			target := path.Join(workdir, in)
			patterns = append(patterns, target, target+"/**")
		}
		return patterns
	}
	return nil
}

func anyWritten(patterns, sources []string) bool {
	for _, src := range sources {
		for _, pattern := range patterns {
			if ok, _ := doublestar.Match(pattern, src); ok {
				return true
			}
		}
	}
	return false
}
