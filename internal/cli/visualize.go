package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reqcheck/reqcheck/pkg/config"
	"github.com/reqcheck/reqcheck/pkg/errors"
	"github.com/reqcheck/reqcheck/pkg/manifest"
	"github.com/reqcheck/reqcheck/pkg/visualize"
)

// newVisualizeCmd creates the visualize command printing a manifest's
// dependency tree.
func newVisualizeCmd() *cobra.Command {
	var (
		format string
		python string
	)

	cmd := &cobra.Command{
		Use:   "visualize <manifest>",
		Short: "Print the dependency tree of a requirements manifest",
		Long: `Print the dependency tree of a requirements manifest.

Each requirement in the manifest is expanded against the installed
environment. Cycles are cut with a circular marker; dependencies that are
not installed are flagged as unmet.

With --format dot the tree is emitted as a Graphviz digraph instead:

  reqcheck visualize requirements-minimal.txt --format dot | dot -Tsvg > deps.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load(".")
			if err != nil {
				return err
			}
			if python != "" {
				cfg.Python = python
			}
			ix, err := buildIndex(ctx, cfg)
			if err != nil {
				return err
			}

			entries, err := manifest.ReadAny(args[0], ix.MarkerEnv())
			if err != nil {
				return err
			}
			seeds := manifest.Requirements(entries)

			switch format {
			case "tree":
				return visualize.Tree(os.Stdout, ix, seeds)
			case "dot":
				out, err := visualize.Dot(ix, seeds)
				if err != nil {
					return err
				}
				fmt.Println(out)
				return nil
			default:
				return errors.New(errors.ErrCodeUnsupported,
					"unknown format %q (want tree or dot)", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "tree", "output format: tree (default), dot")
	cmd.Flags().StringVarP(&python, "python", "p", "", "python interpreter to inspect (overrides config)")
	return cmd
}
