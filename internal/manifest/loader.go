package manifest

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/pressbuild/internal/domain"
	"github.com/felixgeelhaar/pressbuild/internal/errors"
	"github.com/felixgeelhaar/pressbuild/internal/plan"
)

// Environment variables read by the loader
const (
	EnvManifest = "PRESSBUILD_MANIFEST"
	EnvVersion  = "PRESSBUILD_VERSION"
)

// Load reads the manifest at path. A .env file next to it is loaded first
// without overriding variables already set; PRESSBUILD_VERSION then
// overrides the package version. Defaults are applied and the result is
// validated.
func Load(path string) (*Manifest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve manifest path: %w", err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.NewManifestNotFoundError(path)
		}
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, "read manifest file", err)
	}

	if err := loadDotEnv(filepath.Dir(abs)); err != nil {
		return nil, err
	}

	m, err := Parse(data)
	if err != nil {
		return nil, errors.NewManifestUnmarshalError(path, err)
	}
	m.Path = abs
	m.Dir = filepath.Dir(abs)

	if v := strings.TrimSpace(os.Getenv(EnvVersion)); v != "" {
		m.Package.Version = v
	}

	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, errors.NewManifestInvalidError(err.Error()).WithSuggestion("Check " + path + " against the manifest format")
	}
	return m, nil
}

// Parse decodes manifest YAML. Unknown keys are rejected.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}

// ResolvePath picks the manifest path: an explicit flag value wins, then
// PRESSBUILD_MANIFEST, then DefaultFile found by Discover from the working
// directory.
func ResolvePath(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(EnvManifest); env != "" {
		return env
	}
	cwd, err := os.Getwd()
	if err != nil {
		return DefaultFile
	}
	return Discover(cwd)
}

func loadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrap(errors.ErrCodeConfigInvalid, "load .env file", err).
			WithSuggestion("Fix the syntax of " + path)
	}
	return nil
}

// applyDefaults fills in implied action kinds and empty collections
func (m *Manifest) applyDefaults() {
	if m.Actions == nil {
		m.Actions = map[string]ActionConfig{}
	}
	if m.Tasks == nil {
		m.Tasks = map[string]TaskConfig{}
	}
	if m.PipelineConfigs == nil {
		m.PipelineConfigs = map[string][]RuleConfig{}
	}

	for id, a := range m.Actions {
		if a.Kind == "" {
			a.Kind = string(plan.KindTool)
			if a.Pipeline != "" {
				a.Kind = string(plan.KindRewrite)
			}
		}
		m.Actions[id] = a
	}
}

// Validate checks cross references the registry cannot see: package version,
// pipeline names, and watch task names. Task graph problems are left to the
// registry and expansion.
func (m *Manifest) Validate() error {
	var problems []string

	if m.Package.Version != "" {
		if _, err := domain.NewVersion(m.Package.Version); err != nil {
			problems = append(problems, fmt.Sprintf("package.version: %v", err))
		}
	}

	for _, id := range sortedKeys(m.Actions) {
		a := m.Actions[id]
		if a.Pipeline == "" {
			continue
		}
		if _, ok := m.PipelineConfigs[a.Pipeline]; !ok {
			problems = append(problems, fmt.Sprintf("actions.%s: unknown pipeline %q", id, a.Pipeline))
		}
	}

	for _, name := range sortedKeys(m.PipelineConfigs) {
		for i, rc := range m.PipelineConfigs[name] {
			if !knownRule(rc.Rule) {
				problems = append(problems, fmt.Sprintf("pipelines.%s[%d]: unknown rule %q", name, i, rc.Rule))
			}
		}
	}

	for _, name := range sortedKeys(m.Watch) {
		w := m.Watch[name]
		if len(w.Files) == 0 || len(w.Tasks) == 0 {
			problems = append(problems, fmt.Sprintf("watch.%s: needs files and tasks", name))
		}
		for _, task := range w.Tasks {
			if !m.hasName(task) {
				problems = append(problems, fmt.Sprintf("watch.%s: unknown task %q", name, task))
			}
		}
	}

	if len(problems) > 0 {
		return stderrors.New(strings.Join(problems, "; "))
	}
	return nil
}

func (m *Manifest) hasName(name string) bool {
	if _, ok := m.Tasks[name]; ok {
		return true
	}
	_, ok := m.Actions[name]
	return ok
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
