package manifest

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the manifest name looked up when no path is given
const DefaultFile = "pressbuild.yaml"

// Manifest is the parsed pressbuild.yaml of a plugin project
type Manifest struct {
	Package         PackageConfig           `yaml:"package"`
	Actions         map[string]ActionConfig `yaml:"actions"`
	Tasks           map[string]TaskConfig   `yaml:"tasks"`
	PipelineConfigs map[string][]RuleConfig `yaml:"pipelines"`
	Watch           map[string]WatchConfig  `yaml:"watch"`

	// Env is added to the environment of every tool process
	Env map[string]string `yaml:"env,omitempty"`

	// Path is the file the manifest was read from; Dir is its directory
	// and the root all action paths are relative to
	Path string `yaml:"-"`
	Dir  string `yaml:"-"`
}

// PackageConfig is the plugin metadata used by templates and stamping rules
type PackageConfig struct {
	Name    string            `yaml:"name"`
	Version string            `yaml:"version"`
	BugsURL string            `yaml:"bugs_url,omitempty"`
	TagURL  string            `yaml:"tag_url,omitempty"`
	Badges  []string          `yaml:"badges,omitempty"`
	Extra   map[string]string `yaml:"extra,omitempty"`
}

// ActionConfig declares one leaf action
type ActionConfig struct {
	Description string   `yaml:"description,omitempty"`
	Kind        string   `yaml:"kind,omitempty"`
	Tool        string   `yaml:"tool,omitempty"`
	Command     string   `yaml:"command,omitempty"`
	Args        []string `yaml:"args,omitempty"`
	Workdir     string   `yaml:"workdir,omitempty"`
	Inputs      []string `yaml:"inputs,omitempty"`
	Output      string   `yaml:"output,omitempty"`
	PerFile     bool     `yaml:"per_file,omitempty"`
	Idempotent  bool     `yaml:"idempotent,omitempty"`
	Pipeline    string   `yaml:"pipeline,omitempty"`
}

// TaskConfig is a task alias. In YAML it is either a plain list of names
// or a mapping with a description and a run list.
type TaskConfig struct {
	Description string   `yaml:"description,omitempty"`
	Run         []string `yaml:"run"`
}

// UnmarshalYAML accepts both the list and the mapping form
func (t *TaskConfig) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var run []string
		if err := node.Decode(&run); err != nil {
			return err
		}
		t.Run = run
		return nil
	case yaml.MappingNode:
		type plain TaskConfig
		var p plain
		if err := node.Decode(&p); err != nil {
			return err
		}
		*t = TaskConfig(p)
		return nil
	default:
		return fmt.Errorf("line %d: task must be a list of names or a mapping with run", node.Line)
	}
}

// MarshalYAML writes the short list form when there is no description
func (t TaskConfig) MarshalYAML() (any, error) {
	if t.Description == "" {
		return t.Run, nil
	}
	type plain TaskConfig
	return plain(t), nil
}

// RuleConfig configures one step of a rewrite pipeline
type RuleConfig struct {
	Rule      string `yaml:"rule"`
	Priority  *int   `yaml:"priority,omitempty"`
	Mandatory bool   `yaml:"mandatory,omitempty"`

	// badges
	Heading string `yaml:"heading,omitempty"`

	// tag_links
	Marker    string `yaml:"marker,omitempty"`
	Separator string `yaml:"separator,omitempty"`
	Template  string `yaml:"template,omitempty"`

	// version_stamp and stable_tag; Field overrides the label
	Field string `yaml:"field,omitempty"`
}

// WatchConfig maps a set of globs to the tasks run when they change
type WatchConfig struct {
	Files []string `yaml:"files"`
	Tasks []string `yaml:"tasks"`
}
