package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/pressbuild/internal/exitcode"
	"github.com/felixgeelhaar/pressbuild/internal/log"
	"github.com/felixgeelhaar/pressbuild/internal/ux"
)

var dryRunCmd = &cobra.Command{
	Use:   "dry-run [task]",
	Short: "Print the leaf actions a task would run",
	Long: `Expand a task and validate it without running anything.

Unknown references and circular aliases are reported the same way a run
reports them. With --diff, rewrite actions are run in memory and the changes
they would write are printed as unified diffs; a rewrite rule that cannot
apply fails the dry run. The command exits 0 when the plan is valid and 1 otherwise.

Examples:
  # Show the plan of the build task
  pressbuild dry-run build

  # Validate every task in the manifest
  pressbuild dry-run --all --format json

  # Also show what the rewrite actions of the readme task would change
  pressbuild dry-run readme --diff
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDryRun,
}

func init() {
	dryRunCmd.Flags().Bool("all", false, "expand every task in the manifest")
	dryRunCmd.Flags().Bool("diff", false, "show the changes rewrite actions would make")
	rootCmd.AddCommand(dryRunCmd)
}

func runDryRun(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return fmt.Errorf("failed to create command context: %w", err)
	}
	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}
	showDiff, err := cmd.Flags().GetBool("diff")
	if err != nil {
		return err
	}
	if all && len(args) > 0 {
		return fmt.Errorf("invalid argument: --all does not take a task name")
	}

	out, err := cc.Formatter(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	p, err := loadProject(cc, log.DefaultLogger())
	if err != nil {
		return err
	}

	tasks := []string{"default"}
	switch {
	case all:
		tasks = p.Registry.TaskNames()
	case len(args) == 1:
		tasks = args[:1]
	}

	views := make([]ux.PlanView, 0, len(tasks))
	for _, task := range tasks {
		plan, err := p.Runner.DryRun(task)
		if err != nil {
			return &ExitError{Code: exitcode.GeneralError, Err: err}
		}
		view := ux.NewPlanView(plan)
		if showDiff {
			view.Diffs, err = p.Runner.Preview(plan)
			if err != nil {
				return &ExitError{Code: exitcode.GeneralError, Err: err}
			}
		}
		views = append(views, view)
	}

	if all {
		return out.Format(ux.PlanListView{Plans: views})
	}
	return out.Format(views[0])
}
