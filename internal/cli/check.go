package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/reqcheck/reqcheck/pkg/audit"
	"github.com/reqcheck/reqcheck/pkg/config"
	"github.com/reqcheck/reqcheck/pkg/errors"
	"github.com/reqcheck/reqcheck/pkg/javascript"
	"github.com/reqcheck/reqcheck/pkg/manifest"
	"github.com/reqcheck/reqcheck/pkg/pyenv"
)

// newCheckCmd creates the check command running the full consistency suite.
func newCheckCmd() *cobra.Command {
	var pythonFlag string

	cmd := &cobra.Command{
		Use:   "check [dir]",
		Short: "Run the full requirements consistency check suite",
		Long: `Run the full requirements consistency check suite.

Every check runs against the installed environment of the configured Python
interpreter: pin integrity, duplicate and underscored entries, unpinned
transitive dependencies, exact reconciliation of the pin files against the
minimal manifests, and (when a package.json is present) JavaScript version
cross-checks and npm tree audits.

All checks run even after a failure so one run reports everything; the
command exits non-zero if any check failed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runCheck(cmd.Context(), dir, pythonFlag)
		},
	}

	cmd.Flags().StringVarP(&pythonFlag, "python", "p", "", "python interpreter to inspect (overrides config)")
	return cmd
}

// buildIndex snapshots the installed environment of the configured
// interpreter: marker environment first, then the dist-info scan.
func buildIndex(ctx context.Context, cfg *config.Config) (*pyenv.Index, error) {
	env, err := pyenv.LoadEnv(ctx, cfg.Python)
	if err != nil {
		return nil, err
	}
	site := cfg.SitePackages
	if site == "" {
		site, err = pyenv.Discover(ctx, cfg.Python)
		if err != nil {
			return nil, err
		}
	}
	return pyenv.Load(site, env)
}

func runCheck(ctx context.Context, dir, pythonFlag string) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}
	if pythonFlag != "" {
		cfg.Python = pythonFlag
	}
	files := cfg.Files(dir)

	// Without a pin file there is nothing to audit; this one is fatal.
	if err := audit.CheckApplication(files); err != nil {
		return err
	}

	ix, err := buildIndex(ctx, cfg)
	if err != nil {
		return err
	}
	logger.Debug("environment snapshot built", "packages", ix.Len(), "python", cfg.Python)

	entries, err := audit.AllEntries(ix, files)
	if err != nil {
		return err
	}

	failed := 0
	total := 0
	report := func(name string, err error) {
		total++
		if err == nil {
			printSuccess("%s", name)
			return
		}
		failed++
		printError("%s", name)
		printDetail("%s", errors.UserMessage(err))
	}

	report("pin files match the installed environment", audit.CheckIntegrity(ix, entries))
	report("no duplicate requirements", audit.CheckDuplicates(ix, files))
	report("package names use dashes", audit.CheckNoUnderscores(files))
	report("all dependencies are pinned", audit.CheckPinned(ix, entries))
	report("pin files match the minimal manifests",
		audit.ReconcileTopLevel(ix, files, printWarning))

	packageJSON := filepath.Join(dir, "package.json")
	if manifest.Exists(packageJSON) {
		jsManifests := map[string]map[string]string{}
		for _, path := range []string{packageJSON, filepath.Join(dir, "bower.json")} {
			if !manifest.Exists(path) {
				continue
			}
			deps, err := javascript.DependencyVersions(path)
			if err != nil {
				return err
			}
			jsManifests[path] = deps
		}
		report("JavaScript and Python versions agree", javascript.CheckVersions(jsManifests, ix))

		tree, err := javascript.LoadTree(ctx, dir)
		if err != nil {
			report("npm tree is auditable", err)
		} else {
			report("npm packages are pinned", tree.CheckPinned(jsManifests[packageJSON]))
			report("npm packages resolve to single versions", tree.CheckConflicts())
		}
	}

	prog.done(fmt.Sprintf("Ran %d checks", total))
	if failed > 0 {
		return errors.New(errors.ErrCodeMismatch, "%d of %d checks failed", failed, total)
	}
	return nil
}
