package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/pressbuild/internal/log"
	"github.com/felixgeelhaar/pressbuild/internal/ux"
)

var runCmd = &cobra.Command{
	Use:   "run [task]",
	Short: "Run a task",
	Long: `Expand a task into its leaf actions and run them in order.

The whole task graph is validated before the first action starts. The run
stops at the first failing action; actions that already completed are not
rolled back. Without an argument the "default" task runs.

Examples:
  # Run the default task
  pressbuild run

  # Convert readme.txt to readme.md
  pressbuild run readme

  # Rebuild minified assets even when they are up to date
  pressbuild run build --force

  # Write a JSON manifest per completed action
  pressbuild run build --run-dir .pressbuild/runs
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return fmt.Errorf("failed to create command context: %w", err)
	}

	task := "default"
	if len(args) == 1 {
		task = args[0]
	}

	out, err := cc.Formatter(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	p, err := loadProject(cc, log.DefaultLogger())
	if err != nil {
		return err
	}

	runLog, runErr := p.Runner.Run(cmd.Context(), task)
	if err := out.Format(ux.NewRunView(task, runLog, runErr)); err != nil {
		return fmt.Errorf("failed to write run summary: %w", err)
	}
	return runErr
}
