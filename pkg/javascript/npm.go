package javascript

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/reqcheck/reqcheck/pkg/errors"
)

// LoadTree invokes `npm list --json --prod` in dir and parses the result.
// node_modules must exist - without an install there is nothing to audit.
//
// npm exits non-zero when the tree has problems (extraneous or missing
// packages) while still printing the tree, so a non-zero exit with JSON
// output is not treated as a failure.
func LoadTree(ctx context.Context, dir string) (Tree, error) {
	if _, err := os.Stat(filepath.Join(dir, "node_modules")); err != nil {
		return nil, errors.New(errors.ErrCodeFileNotFound,
			"node_modules not found.  Are you missing a make target?")
	}

	cmd := exec.CommandContext(ctx, "npm", "list", "--json", "--prod")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil && len(out) == 0 {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "running npm list in %s", dir)
	}
	return ParseTree(out)
}
