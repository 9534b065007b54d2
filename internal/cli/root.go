package cli

import (
	"context"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/reqcheck/reqcheck/pkg/buildinfo"
)

// Execute runs the reqcheck CLI and returns an error if any command fails.
// This is the main entry point for the CLI application.
//
// Logging:
//   - Default: info level (logs to stderr)
//   - With --verbose (-v): debug level
//
// The logger is attached to the context and accessible to all commands via
// loggerFromContext.
func Execute(ctx context.Context) error {
	var verbose bool

	root := &cobra.Command{
		Use:          "reqcheck",
		Short:        "reqcheck keeps pinned requirement files honest",
		Long: `reqcheck verifies that pinned requirement files are the exact closure of
the minimal manifests under the installed environment: nothing unpinned,
nothing surplus, nothing stale, with optional cross-checks against
JavaScript manifests and the npm dependency tree.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newCheckCmd())
	root.AddCommand(newVisualizeCmd())
	root.AddCommand(newUpgradeCmd())

	return root.ExecuteContext(ctx)
}
