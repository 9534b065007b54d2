package visualize

import (
	"github.com/tmc/dot"

	"github.com/reqcheck/reqcheck/pkg/pyenv"
	"github.com/reqcheck/reqcheck/pkg/requirement"
)

// Dot renders the dependency graph of the seeds as a Graphviz digraph,
// suitable for piping into `dot -Tsvg`. Installed nodes are labeled
// key-version; unmet nodes are drawn as red boxes. Edges carry the
// dependency's constraint string when it has one.
func Dot(ix *pyenv.Index, seeds []requirement.Requirement) (string, error) {
	g := dot.NewGraph("requirements")
	g.SetType(dot.DIGRAPH)
	if err := g.Set("rankdir", "LR"); err != nil {
		return "", err
	}

	nodes := make(map[string]*dot.Node)
	node := func(key string) *dot.Node {
		if n, ok := nodes[key]; ok {
			return n
		}
		n := dot.NewNode(key)
		if pkg, ok := ix.Get(key); ok {
			_ = n.Set("label", pkg.Key+"-"+pkg.Version)
		} else {
			_ = n.Set("shape", "box")
			_ = n.Set("color", "red")
		}
		nodes[key] = n
		g.AddNode(n)
		return n
	}

	edges := make(map[string]bool)
	expanded := make(map[string]bool)

	var walk func(req requirement.Requirement, fromKey string) error
	walk = func(req requirement.Requirement, fromKey string) error {
		n := node(req.Key)
		if fromKey != "" {
			id := fromKey + "->" + req.Key
			if !edges[id] {
				edges[id] = true
				e := dot.NewEdge(nodes[fromKey], n)
				if c := req.ConstraintString(); c != "" {
					_ = e.Set("label", c)
				}
				g.AddEdge(e)
			}
		}

		if expanded[req.Key] {
			return nil
		}
		expanded[req.Key] = true

		pkg, ok := ix.Get(req.Key)
		if !ok {
			return nil
		}
		deps, err := pkg.Requires(req.Extras, ix.MarkerEnv())
		if err != nil {
			return err
		}
		for _, dep := range deps {
			if err := walk(dep, req.Key); err != nil {
				return err
			}
		}
		return nil
	}

	for _, seed := range seeds {
		if err := walk(seed, ""); err != nil {
			return "", err
		}
	}
	return g.String(), nil
}
