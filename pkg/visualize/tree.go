// Package visualize renders the dependency tree of a manifest, either as an
// indented text tree or as a Graphviz digraph.
package visualize

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/reqcheck/reqcheck/pkg/pyenv"
	"github.com/reqcheck/reqcheck/pkg/requirement"
)

var styleUnmet = lipgloss.NewStyle().Foreground(lipgloss.Color("167")).Bold(true)

const indentStep = "    "

// Tree writes one indented subtree per seed requirement. A key repeated on
// the current path renders a circular marker and stops; a key missing from
// the index renders an unmet marker and stops. Extras and constraints are
// rendered inline via the requirement's own string form.
func Tree(w io.Writer, ix *pyenv.Index, seeds []requirement.Requirement) error {
	for _, seed := range seeds {
		if err := printNode(w, ix, seed, nil); err != nil {
			return err
		}
	}
	return nil
}

// printNode prints req at depth len(path) and recurses into its immediate
// dependencies. path holds the keys from the seed down to req's parent.
func printNode(w io.Writer, ix *pyenv.Index, req requirement.Requirement, path []string) error {
	indent := strings.Repeat(indentStep, len(path))
	label := req.String()

	for _, ancestor := range path {
		if ancestor == req.Key {
			cycle := append(trimToCycle(path, req.Key), req.Key)
			fmt.Fprintf(w, "%s%s (circular: %s)\n", indent, label, strings.Join(cycle, "->"))
			return nil
		}
	}

	pkg, ok := ix.Get(req.Key)
	if !ok {
		fmt.Fprintf(w, "%s%s %s\n", indent, label, styleUnmet.Render("(UNMET!)"))
		return nil
	}
	fmt.Fprintf(w, "%s%s\n", indent, label)

	deps, err := pkg.Requires(req.Extras, ix.MarkerEnv())
	if err != nil {
		return err
	}
	child := append(path, req.Key)
	for _, dep := range deps {
		if err := printNode(w, ix, dep, child); err != nil {
			return err
		}
	}
	return nil
}

// trimToCycle drops the path prefix before the first occurrence of key, so
// the rendered cycle starts where it closes.
func trimToCycle(path []string, key string) []string {
	for i, k := range path {
		if k == key {
			return path[i:]
		}
	}
	return path
}
