package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/pressbuild/internal/log"
	"github.com/felixgeelhaar/pressbuild/internal/ux"
	"github.com/felixgeelhaar/pressbuild/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run tasks when files change",
	Long: `Watch the plugin tree and run the tasks mapped to changed files in the
manifest's watch section. Runs never overlap; changes made during a run
trigger one more run once it finishes. Stop with Ctrl+C.

Example:
  watch:
    styles:
      files: ["assets/css/**/*.css", "!**/*.min.css"]
      tasks: [cssmin]
`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "quiet period before a change triggers a run")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return fmt.Errorf("failed to create command context: %w", err)
	}
	debounce, err := cmd.Flags().GetDuration("debounce")
	if err != nil {
		return err
	}

	out, err := cc.Formatter(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	logger := log.DefaultLogger()
	p, err := loadProject(cc, logger)
	if err != nil {
		return err
	}

	triggers := watchTriggers(p)
	if len(triggers) == 0 {
		return noWatchEntriesError(p.Manifest.Path)
	}

	w := watch.New(p.Manifest.Dir, triggers, func(ctx context.Context, task string) error {
		runLog, runErr := p.Runner.Run(ctx, task)
		if err := out.Format(ux.NewRunView(task, runLog, runErr)); err != nil {
			logger.WithError(err).Warn("failed to write run summary")
		}
		return runErr
	})
	w.Debounce = debounce
	w.Logger = logger

	return w.Watch(cmd.Context())
}

func watchTriggers(p *project) []watch.Trigger {
	triggers := make([]watch.Trigger, 0, len(p.Manifest.Watch))
	for name, wc := range p.Manifest.Watch {
		triggers = append(triggers, watch.Trigger{Name: name, Files: wc.Files, Tasks: wc.Tasks})
	}
	return triggers
}
