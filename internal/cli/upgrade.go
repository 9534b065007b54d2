package cli

import (
	"github.com/spf13/cobra"

	"github.com/reqcheck/reqcheck/pkg/config"
	"github.com/reqcheck/reqcheck/pkg/upgrade"
)

// newUpgradeCmd creates the upgrade command regenerating the pin files.
func newUpgradeCmd() *cobra.Command {
	var (
		python   string
		indexURL string
		pipTool  string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "upgrade [dir]",
		Short: "Regenerate the pin files from the minimal manifests",
		Long: `Regenerate the pin files from the minimal manifests.

A throwaway virtualenv is provisioned, pip resolves both minimal manifests
inside it at current versions, and the resulting installed closures are
written back as requirements.txt and requirements-dev.txt (dev minus prod).
The virtualenv is deleted afterwards.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			cfg, err := config.Load(dir)
			if err != nil {
				return err
			}
			if python == "" {
				python = cfg.Python
			}
			if indexURL == "" {
				indexURL = cfg.IndexURL
			}

			return upgrade.Run(cmd.Context(), upgrade.Options{
				Dir:      dir,
				Python:   python,
				IndexURL: indexURL,
				PipTool:  pipTool,
				Limit:    limit,
				Logger:   loggerFromContext(cmd.Context()),
			})
		},
	}

	cmd.Flags().StringVarP(&python, "python", "p", "", "python interpreter for the virtualenv (overrides config)")
	cmd.Flags().StringVarP(&indexURL, "index-url", "i", "", "pip index url (overrides config)")
	cmd.Flags().StringVar(&pipTool, "pip-tool", "", "installer to use inside the virtualenv (default pip)")
	cmd.Flags().IntVar(&limit, "install-limit", 0, "max rounds of installing unmet requirements (default 10)")
	return cmd
}
