// Package javascript cross-checks JavaScript manifests against each other
// and against the installed Python environment, and audits the npm
// dependency tree for unpinned and conflicting installs.
package javascript

import (
	"encoding/json"
	"os"
	"sort"
	"strings"

	"github.com/reqcheck/reqcheck/pkg/errors"
	"github.com/reqcheck/reqcheck/pkg/pyenv"
)

// manifestFile models the shared shape of package.json and bower.json:
// a name and a flat dependencies map of package -> version.
type manifestFile struct {
	Name         string            `json:"name"`
	Dependencies map[string]string `json:"dependencies"`
}

// DependencyVersions reads a JS manifest's dependencies map, normalizing
// package-name underscores to dashes so names line up with Python keys.
func DependencyVersions(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "%s does not exist", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "cannot read %s", path)
	}

	var m manifestFile
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parsing %s", path)
	}

	out := make(map[string]string, len(m.Dependencies))
	for name, version := range m.Dependencies {
		out[strings.ReplaceAll(name, "_", "-")] = version
	}
	return out, nil
}

// CheckVersions verifies version agreement across ecosystems:
//
//   - when two JS manifests (say package.json and bower.json) both declare a
//     package, their versions must match;
//   - when a JS-declared package also exists in the installed Python index,
//     the Python version must match the JavaScript one.
//
// manifests maps path -> dependency versions as returned by
// DependencyVersions. Index may be nil to skip the Python comparison.
func CheckVersions(manifests map[string]map[string]string, ix *pyenv.Index) error {
	paths := make([]string, 0, len(manifests))
	for p := range manifests {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	declared := make(map[string]struct{ path, version string })
	for _, path := range paths {
		for name, version := range manifests[path] {
			if prev, ok := declared[name]; ok && prev.version != version {
				return errors.New(errors.ErrCodeCrossEcosystem,
					"The package %q is declared at different versions!\n"+
						"  %s: %s\n  %s: %s\nThese must agree.",
					name, prev.path, prev.version, path, version)
			}
			declared[name] = struct{ path, version string }{path, version}
		}
	}

	if ix == nil {
		return nil
	}
	names := make([]string, 0, len(declared))
	for name := range declared {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		installed, ok := ix.Get(name)
		if !ok {
			continue
		}
		if installed.Version != declared[name].version {
			return errors.New(errors.ErrCodeCrossEcosystem,
				"The package %q is both a JavaScript and Python package.\n"+
					"The version installed by Python must match the JavaScript version, but it currently doesn't!\n"+
					"  JavaScript version: %s\n  Python version: %s\nCheck requirements.txt and %s!",
				name, declared[name].version, installed.Version, declared[name].path)
		}
	}
	return nil
}
