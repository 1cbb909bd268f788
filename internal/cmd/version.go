package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/pressbuild/internal/ux"
	"github.com/felixgeelhaar/pressbuild/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print version information including version number, git commit,
build date, Go version, and platform.`,
	Args: cobra.NoArgs,
	RunE: runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, _ []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return fmt.Errorf("failed to create command context: %w", err)
	}
	info := version.GetInfo()

	if cc.Format != ux.FormatText && cc.Format != "" {
		out, err := cc.Formatter(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		return out.Format(info)
	}

	if cc.Verbose {
		fmt.Fprintln(cmd.OutOrStdout(), info.String())
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "pressbuild %s\n", info.Short())
	return nil
}
