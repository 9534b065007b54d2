// Package upgrade regenerates the pinned manifests from the minimal ones.
// It provisions a throwaway virtualenv, lets pip resolve the minimal
// manifests inside it, then writes the resulting installed closure back out
// as requirements.txt and requirements-dev.txt.
package upgrade

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/reqcheck/reqcheck/pkg/closure"
	"github.com/reqcheck/reqcheck/pkg/errors"
	"github.com/reqcheck/reqcheck/pkg/manifest"
	"github.com/reqcheck/reqcheck/pkg/pyenv"
)

var styleCmd = lipgloss.NewStyle().Foreground(lipgloss.Color("35"))

// Options configures an upgrade run. Zero values fall back to the defaults
// a plain `reqcheck upgrade` uses.
type Options struct {
	Dir      string // project directory holding the manifests; "" means cwd
	Python   string // interpreter handed to virtualenv; "" means "python3"
	IndexURL string // extra pip index, passed as `-i` when set
	PipTool  string // installer inside the venv; "" means "pip"

	// Limit bounds how many times unmet dependencies may be installed and
	// the closure recomputed before giving up. Zero means 10.
	Limit int

	// FormatterPackage is installed into the venv to format the written pin
	// files; FormatterBin is the tool it provides. Empty skips formatting.
	FormatterPackage string
	FormatterBin     string

	Logger *log.Logger
}

func (o *Options) defaults() {
	if o.Python == "" {
		o.Python = "python3"
	}
	if o.PipTool == "" {
		o.PipTool = "pip"
	}
	if o.Limit == 0 {
		o.Limit = 10
	}
	if o.FormatterPackage == "" && o.FormatterBin == "" {
		o.FormatterPackage = "pre-commit-hooks"
		o.FormatterBin = "requirements-txt-fixer"
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
}

// Run executes the full upgrade workflow. The scratch virtualenv lives in a
// uuid-suffixed temp directory and is removed on return.
func Run(ctx context.Context, opts Options) error {
	opts.defaults()

	minimal := filepath.Join(opts.Dir, "requirements-minimal.txt")
	devMinimal := filepath.Join(opts.Dir, "requirements-dev-minimal.txt")
	for _, path := range []string{minimal, devMinimal} {
		if !manifest.Exists(path) {
			return errors.New(errors.ErrCodeFileNotFound, "%s does not exist", path)
		}
	}

	scratch := filepath.Join(os.TempDir(), "reqcheck-upgrade-"+uuid.NewString())
	defer os.RemoveAll(scratch)

	venv, err := provision(ctx, scratch, minimal, devMinimal, opts)
	if err != nil {
		return err
	}

	reqs, reqsDev, err := resolve(ctx, venv, minimal, devMinimal, opts)
	if err != nil {
		return err
	}

	// Dev pins are written minus the prod closure so the two files stay
	// disjoint.
	reqsDev.Subtract(reqs)
	prodOut := filepath.Join(opts.Dir, "requirements.txt")
	devOut := filepath.Join(opts.Dir, "requirements-dev.txt")
	if err := writePins(prodOut, reqs); err != nil {
		return err
	}
	if err := writePins(devOut, reqsDev); err != nil {
		return err
	}

	return format(ctx, venv, opts, prodOut, devOut)
}

// venvPaths holds the executables of the scratch environment.
type venvPaths struct {
	root    string
	python  string
	pip     string
	pipTool string
}

// provision creates the virtualenv and installs both minimal manifests into
// it with the configured pip tool.
func provision(ctx context.Context, scratch, minimal, devMinimal string, opts Options) (venvPaths, error) {
	venv := venvPaths{root: filepath.Join(scratch, "venv")}
	venv.python = filepath.Join(venv.root, "bin", "python")
	venv.pip = filepath.Join(venv.root, "bin", "pip")
	venv.pipTool = filepath.Join(venv.root, "bin", opts.PipTool)

	if err := run(ctx, opts, opts.Python, "-m", "virtualenv", venv.root, "--never-download"); err != nil {
		return venv, err
	}

	install := func(pip string, argv ...string) error {
		args := []string{"install"}
		if opts.IndexURL != "" {
			args = append(args, "-i", opts.IndexURL)
		}
		return run(ctx, opts, pip, append(args, argv...)...)
	}

	// Old bundled pips miss newer wheel tags.
	if err := install(venv.pip, "--upgrade", "setuptools", "pip"); err != nil {
		return venv, err
	}
	if opts.PipTool != "pip" {
		if err := install(venv.pip, opts.PipTool); err != nil {
			return venv, err
		}
	}
	if err := install(venv.pipTool, "-r", minimal); err != nil {
		return venv, err
	}
	if err := install(venv.pipTool, "-r", devMinimal); err != nil {
		return venv, err
	}
	return venv, nil
}

// resolve computes the installed closures of both minimal manifests inside
// the venv. When the closure hits dependencies pip failed to install, they
// are installed and the snapshot rebuilt, up to opts.Limit times.
func resolve(ctx context.Context, venv venvPaths, minimal, devMinimal string, opts Options) (reqs, reqsDev closure.Set, err error) {
	for attempt := 0; ; attempt++ {
		env, err := pyenv.LoadEnv(ctx, venv.python)
		if err != nil {
			return nil, nil, err
		}
		site, err := pyenv.Discover(ctx, venv.python)
		if err != nil {
			return nil, nil, err
		}
		ix, err := pyenv.Load(site, env)
		if err != nil {
			return nil, nil, err
		}

		seeds, err := manifest.Read(minimal, env)
		if err != nil {
			return nil, nil, err
		}
		devSeeds, err := manifest.Read(devMinimal, env)
		if err != nil {
			return nil, nil, err
		}

		reqs, unmet, err := closure.WalkCollect(ix, manifest.Requirements(seeds)...)
		if err != nil {
			return nil, nil, err
		}
		reqsDev, unmetDev, err := closure.WalkCollect(ix, manifest.Requirements(devSeeds)...)
		if err != nil {
			return nil, nil, err
		}
		unmet = append(unmet, unmetDev...)
		if len(unmet) == 0 {
			return reqs, reqsDev, nil
		}

		if attempt+1 > opts.Limit {
			return nil, nil, errors.New(errors.ErrCodeUnmet,
				"giving up after %d rounds of installing unmet requirements", opts.Limit)
		}
		opts.Logger.Warn("Installing unmet requirements!",
			"probably", "https://github.com/pypa/pip/issues/3903", "unmet", unmet)
		args := []string{"install"}
		if opts.IndexURL != "" {
			args = append(args, "-i", opts.IndexURL)
		}
		if err := run(ctx, opts, venv.pipTool, append(args, unmet...)...); err != nil {
			return nil, nil, err
		}
	}
}

// writePins writes the set as sorted key==version lines. An empty set yields
// an empty file.
func writePins(path string, pins closure.Set) error {
	var content string
	if len(pins) > 0 {
		content = strings.Join(pins.Sorted(), "\n") + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "writing %s", path)
	}
	return nil
}

// format installs the formatter package into the venv and runs its binary
// over the written files. Formatter failures are logged, not fatal.
func format(ctx context.Context, venv venvPaths, opts Options, files ...string) error {
	if opts.FormatterBin == "" {
		return nil
	}
	if opts.FormatterPackage != "" {
		cmd := exec.CommandContext(ctx, venv.pipTool, "install", opts.FormatterPackage)
		if err := cmd.Run(); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err,
				"installing %s", opts.FormatterPackage)
		}
	}
	bin := filepath.Join(venv.root, "bin", opts.FormatterBin)
	if err := run(ctx, opts, bin, files...); err != nil {
		// The fixer exits non-zero when it rewrites a file.
		opts.Logger.Debug("formatter finished", "err", err)
	}
	return nil
}

// run executes a command with inherited stdio, echoing it first the way a
// shell transcript would.
func run(ctx context.Context, opts Options, name string, args ...string) error {
	fmt.Println(styleCmd.Render(">>> " + strings.Join(append([]string{name}, args...), " ")))
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "running %s", name)
	}
	return nil
}
