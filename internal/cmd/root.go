package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/pressbuild/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "pressbuild",
	Short: "Task runner and readme rewriter for WordPress plugins",
	Long: `pressbuild runs the build tasks of a WordPress plugin declared in pressbuild.yaml.

Tasks are ordered lists of other tasks and leaf actions. A leaf action runs an
external tool, rewrites text files through a pipeline of idempotent rules,
removes paths or copies files. Every task is expanded and validated before
anything runs, and a run stops at the first failing action.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
}

// Execute runs the root command
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx, which commands pass on to
// the runner so a signal stops a run between actions
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("manifest", "m", "", "path to the manifest (default pressbuild.yaml, env PRESSBUILD_MANIFEST)")
	flags.String("format", "text", "output format: text, json or yaml")
	flags.Bool("no-color", false, "disable colored output")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("log-format", "text", "log format: text or json")
	flags.BoolP("verbose", "v", false, "verbose output (debug logging)")
	flags.Bool("force", false, "run idempotent actions even when their outputs are up to date")
	flags.String("run-dir", "", "directory for per-action run manifests (empty disables)")
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	log.SetDefaultLogger(log.New(cc.LogConfig(cmd.ErrOrStderr())))
	return nil
}
