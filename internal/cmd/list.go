package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/pressbuild/internal/log"
	"github.com/felixgeelhaar/pressbuild/internal/ux"
)

var listTasksCmd = &cobra.Command{
	Use:     "list-tasks",
	Aliases: []string{"ls"},
	Short:   "List tasks and leaf actions",
	Long: `List every task alias and leaf action declared in the manifest, sorted
by name. Both can be passed to run and dry-run.`,
	Args: cobra.NoArgs,
	RunE: runListTasks,
}

func init() {
	rootCmd.AddCommand(listTasksCmd)
}

func runListTasks(cmd *cobra.Command, _ []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return fmt.Errorf("failed to create command context: %w", err)
	}

	out, err := cc.Formatter(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	p, err := loadProject(cc, log.DefaultLogger())
	if err != nil {
		return err
	}

	return out.Format(ux.NewTaskListView(p.Registry))
}
