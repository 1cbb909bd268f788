package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/pressbuild/internal/log"
	"github.com/felixgeelhaar/pressbuild/internal/manifest"
	"github.com/felixgeelhaar/pressbuild/internal/ux"
	"github.com/felixgeelhaar/pressbuild/internal/version"
)

// CommandContext holds the persistent flags of one invocation. Commands
// read it from their cobra.Command instead of package globals, so tests can
// execute the tree repeatedly.
type CommandContext struct {
	// Output control
	Verbose bool
	Format  string
	NoColor bool

	// Logging
	LogLevel  string
	LogFormat string

	// Execution
	ManifestPath string
	Force        bool
	RunDir       string
}

// NewCommandContext extracts command context from cobra.Command flags.
// Commands should call this in their RunE function to get their configuration:
//
//	func runCommand(cmd *cobra.Command, args []string) error {
//		cc, err := NewCommandContext(cmd)
//		if err != nil {
//			return fmt.Errorf("failed to create command context: %w", err)
//		}
//		// Use cc.Format, cc.Force, etc.
//	}
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	flags := cmd.Flags()

	verbose, err := flags.GetBool("verbose")
	if err != nil {
		return nil, err
	}

	format, err := flags.GetString("format")
	if err != nil {
		return nil, err
	}

	noColor, err := flags.GetBool("no-color")
	if err != nil {
		return nil, err
	}

	logLevel, err := flags.GetString("log-level")
	if err != nil {
		return nil, err
	}

	logFormat, err := flags.GetString("log-format")
	if err != nil {
		return nil, err
	}

	manifestPath, err := flags.GetString("manifest")
	if err != nil {
		return nil, err
	}

	force, err := flags.GetBool("force")
	if err != nil {
		return nil, err
	}

	runDir, err := flags.GetString("run-dir")
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Verbose:      verbose,
		Format:       format,
		NoColor:      noColor,
		LogLevel:     logLevel,
		LogFormat:    logFormat,
		ManifestPath: manifestPath,
		Force:        force,
		RunDir:       runDir,
	}, nil
}

// LogConfig builds the logger configuration. --verbose lowers the level to
// debug unless --log-level was given explicitly.
func (c *CommandContext) LogConfig(w io.Writer) log.Config {
	level := c.LogLevel
	if c.Verbose && level == "" {
		level = "debug"
	}
	cfg := log.FromFlags(level, c.LogFormat, version.GetInfo().Short())
	cfg.Output = log.NewOutput(w)
	return cfg
}

// Formatter returns the output formatter selected by --format
func (c *CommandContext) Formatter(w io.Writer) (ux.Formatter, error) {
	return ux.NewFormatter(c.Format, &ux.FormatterOptions{Writer: w, NoColor: c.NoColor})
}

// Styles returns the text palette honouring --no-color
func (c *CommandContext) Styles() ux.Styles {
	return ux.NewStyles(c.NoColor)
}

// ResolveManifest returns the manifest path to load
func (c *CommandContext) ResolveManifest() string {
	return manifest.ResolvePath(c.ManifestPath)
}
