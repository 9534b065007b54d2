package javascript

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/reqcheck/reqcheck/pkg/errors"
)

// rootWanter is the synthetic parent recorded for the tree's direct
// dependencies.
const rootWanter = "(your app)@*"

// excludedSubtree is skipped unconditionally: jquery pulls in dozens of
// dependencies that are served from a CDN in production and should never
// be pinned by the application.
const excludedSubtree = "jquery"

// rawTree is the recursive shape `npm list --json` emits.
type rawTree struct {
	Name         string              `json:"name"`
	Version      string              `json:"version"`
	Dependencies map[string]*rawTree `json:"dependencies"`
}

// Tree maps package name -> installed version -> the set of "parent@version"
// strings that wanted it. A package appearing under two versions means npm
// nested two conflicting copies.
type Tree map[string]map[string]map[string]bool

// ParseTree parses `npm list --json --prod` output.
func ParseTree(data []byte) (Tree, error) {
	var root rawTree
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parsing npm tree")
	}

	tree := make(Tree)
	var walk func(cur *rawTree, name string, parent *rawTree, parentIsRoot bool)
	walk = func(cur *rawTree, name string, parent *rawTree, parentIsRoot bool) {
		if name != "" {
			if name == excludedSubtree {
				return
			}
			wanter := rootWanter
			if !parentIsRoot {
				version := parent.Version
				if version == "" {
					version = "*"
				}
				wanter = parent.Name + "@" + version
			}
			if tree[name] == nil {
				tree[name] = make(map[string]map[string]bool)
			}
			if tree[name][cur.Version] == nil {
				tree[name][cur.Version] = make(map[string]bool)
			}
			tree[name][cur.Version][wanter] = true
			cur.Name = name
		}
		for depName, dep := range cur.Dependencies {
			walk(dep, depName, cur, name == "")
		}
	}
	walk(&root, "", nil, false)
	return tree, nil
}

// InstalledReason renders why a package is installed as a wanted-by chain:
// "<-parent@1.0<-grandparent@2.0". The chain follows the lexically first
// wanter at each level and ends at a direct dependency of the app.
func (t Tree) InstalledReason(name, version string) string {
	versions, ok := t[name]
	if !ok {
		return ""
	}
	wanters := versions[version]
	if len(wanters) == 0 {
		return ""
	}
	sorted := make([]string, 0, len(wanters))
	for w := range wanters {
		sorted = append(sorted, w)
	}
	sort.Strings(sorted)
	first := sorted[0]

	parentName, parentVersion, _ := strings.Cut(first, "@")
	return "<-" + first + t.InstalledReason(parentName, parentVersion)
}

// CheckPinned fails when any package installed anywhere in the tree is not
// pinned at its (lexically first) installed version in the manifest's
// dependencies map, reporting each with its wanted-by chain.
func (t Tree) CheckPinned(dependencies map[string]string) error {
	var unpinned []string
	for name, versions := range t {
		installed := make([]string, 0, len(versions))
		for v := range versions {
			installed = append(installed, v)
		}
		sort.Strings(installed)
		version := installed[0]
		if dependencies[name] != version {
			unpinned = append(unpinned, name+"@"+version+" "+t.InstalledReason(name, version))
		}
	}
	if len(unpinned) == 0 {
		return nil
	}
	sort.Strings(unpinned)
	return errors.New(errors.ErrCodeMismatch,
		"Unpinned requirements detected!\n    %s", strings.Join(unpinned, "\n    "))
}

// CheckConflicts fails when any package is wanted at more than one version.
// npm resolves such conflicts by nesting copies, which does not work for
// frontend packages, so each version is reported with its wanted-by chain.
func (t Tree) CheckConflicts() error {
	var conflicts []string
	for name, versions := range t {
		if len(versions) <= 1 {
			continue
		}
		sorted := make([]string, 0, len(versions))
		for v := range versions {
			sorted = append(sorted, v)
		}
		sort.Strings(sorted)

		lines := make([]string, len(sorted))
		for i, v := range sorted {
			lines[i] = name + "@" + v + " " + t.InstalledReason(name, v)
		}
		conflicts = append(conflicts,
			name+" needs multiple versions:\n    "+strings.Join(lines, "\n    "))
	}
	if len(conflicts) == 0 {
		return nil
	}
	sort.Strings(conflicts)
	return errors.New(errors.ErrCodeConflicting,
		"Conflicting NPM package requirements detected!\n  %s", strings.Join(conflicts, "\n  "))
}
