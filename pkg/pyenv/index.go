// Package pyenv builds an immutable snapshot of the installed Python
// environment: every installed distribution, its version, and its declared
// dependencies. The snapshot is built once at process start and passed by
// reference into every check - it is never mutated afterwards.
package pyenv

import (
	"slices"

	"github.com/reqcheck/reqcheck/pkg/requirement"
)

// Package is one installed distribution.
type Package struct {
	Name    string // name as declared in metadata
	Key     string // normalized lookup key
	Version string // installed version, safe-normalized

	requiresDist []string // raw Requires-Dist specifiers
	extras       []string // declared Provides-Extra names
}

// NewPackage constructs an installed-package record. requiresDist holds raw
// PEP 508 specifiers, markers included, exactly as they appear in the
// distribution metadata.
func NewPackage(name, version string, requiresDist ...string) *Package {
	return &Package{
		Name:         name,
		Key:          requirement.NormalizeKey(name),
		Version:      requirement.SafeVersion(version),
		requiresDist: requiresDist,
	}
}

// WithExtras records the extras the distribution declares. Returns the
// package for chaining during construction.
func (p *Package) WithExtras(extras ...string) *Package {
	p.extras = extras
	return p
}

// Extras returns the declared extra names.
func (p *Package) Extras() []string { return slices.Clone(p.extras) }

// EqualityString renders key==version for the installed package.
func (p *Package) EqualityString() string { return p.Key + "==" + p.Version }

// Requires returns the package's immediate declared dependencies when the
// given extras are activated. A dependency guarded by an extra marker is
// included only when that extra was requested; dependencies whose other
// markers evaluate false against env are dropped. The empty-extras call
// yields the base dependency list.
func (p *Package) Requires(extras []string, env requirement.Env) ([]requirement.Requirement, error) {
	if env == nil {
		env = requirement.DefaultEnv()
	}

	var out []requirement.Requirement
	seen := make(map[string]bool)
	add := func(req requirement.Requirement) {
		if id := req.ID(); !seen[id] {
			seen[id] = true
			out = append(out, req)
		}
	}

	for _, raw := range p.requiresDist {
		req, ok, err := requirement.ParseEnv(raw, env.WithExtra(""))
		if err != nil {
			return nil, err
		}
		if ok {
			add(req)
			continue
		}
		// Not part of the base set: include when one of the requested
		// extras activates it.
		for _, extra := range extras {
			req, ok, err := requirement.ParseEnv(raw, env.WithExtra(extra))
			if err != nil {
				return nil, err
			}
			if ok {
				add(req)
				break
			}
		}
	}
	return out, nil
}

// Index is the process-wide installed-package snapshot, keyed by normalized
// package key. Read-only after construction; safe to share by reference.
type Index struct {
	packages map[string]*Package
	env      requirement.Env
}

// NewIndex builds a snapshot from the given packages. env is the marker
// environment of the interpreter the packages are installed under; nil
// falls back to the host defaults.
func NewIndex(pkgs []*Package, env requirement.Env) *Index {
	m := make(map[string]*Package, len(pkgs))
	for _, p := range pkgs {
		m[p.Key] = p
	}
	if env == nil {
		env = requirement.DefaultEnv()
	}
	return &Index{packages: m, env: env}
}

// Get looks up an installed package by normalized key.
func (ix *Index) Get(key string) (*Package, bool) {
	p, ok := ix.packages[key]
	return p, ok
}

// Has reports whether the key is installed.
func (ix *Index) Has(key string) bool {
	_, ok := ix.packages[key]
	return ok
}

// Requires returns the immediate dependencies of the installed package with
// the given key under the snapshot's marker environment.
func (ix *Index) Requires(key string, extras []string) ([]requirement.Requirement, error) {
	p, ok := ix.packages[key]
	if !ok {
		return nil, nil
	}
	return p.Requires(extras, ix.env)
}

// Keys returns all installed keys in sorted order.
func (ix *Index) Keys() []string {
	keys := make([]string, 0, len(ix.packages))
	for k := range ix.packages {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Len returns the number of installed packages.
func (ix *Index) Len() int { return len(ix.packages) }

// MarkerEnv returns the marker environment captured at snapshot time.
func (ix *Index) MarkerEnv() requirement.Env { return ix.env }
