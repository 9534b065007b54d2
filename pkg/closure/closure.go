// Package closure computes the transitive dependency closure of installed
// packages. The walk is an iterative worklist over the installed-package
// snapshot, with the visited set keyed on (key, extras) pairs: pkg and
// pkg[extra] have different dependency sets and must both be traversable.
package closure

import (
	"fmt"
	"slices"

	"github.com/reqcheck/reqcheck/pkg/errors"
	"github.com/reqcheck/reqcheck/pkg/pyenv"
	"github.com/reqcheck/reqcheck/pkg/requirement"
)

// Set is a set of "key==installed_version" strings.
type Set map[string]struct{}

// Add inserts a member.
func (s Set) Add(v string) { s[v] = struct{}{} }

// Has reports membership.
func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Union merges other into s.
func (s Set) Union(other Set) {
	for v := range other {
		s[v] = struct{}{}
	}
}

// Subtract removes other's members from s.
func (s Set) Subtract(other Set) {
	for v := range other {
		delete(s, v)
	}
}

// Sorted returns the members in sorted order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// visitKey identifies a (key, extras) pair in the visited set.
func visitKey(req requirement.Requirement) string {
	return req.Key + "[" + req.ExtrasKey() + "]"
}

// Walk computes the full transitive dependency set of the seed requirements
// as "key==installed_version" strings (the installed version, never the
// constraint on the edge). The seeds' own pins are not included - that is
// the caller's responsibility.
//
// A sub-dependency whose key is missing from the index is a hard integrity
// failure (UNMET_DEPENDENCY) naming the missing key and the requiring
// parent: a missing install makes the rest of the closure meaningless.
// The walk terminates on cyclic graphs because the visited set only grows.
func Walk(index *pyenv.Index, seeds ...requirement.Requirement) (Set, error) {
	expected := make(Set)
	worklist := slices.Clone(seeds)
	visited := make(map[string]struct{}, len(seeds))
	for _, seed := range seeds {
		visited[visitKey(seed)] = struct{}{}
	}

	for len(worklist) > 0 {
		req := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		subs, err := index.Requires(req.Key, req.Extras)
		if err != nil {
			return nil, err
		}
		for _, sub := range subs {
			installed, ok := index.Get(sub.Key)
			if !ok {
				return nil, errors.New(errors.ErrCodeUnmet,
					"Unmet dependency detected!\nSomehow `%s` is not installed!\n  (from %s)\n"+
						"Are you suffering from https://github.com/pypa/pip/issues/3903?",
					sub.Key, req.DisplayKey())
			}
			expected.Add(installed.EqualityString())
			if vk := visitKey(sub); !hasKey(visited, vk) {
				visited[vk] = struct{}{}
				worklist = append(worklist, sub)
			}
		}
	}
	return expected, nil
}

// WalkOne computes the closure of a single requirement. Convenience wrapper
// used when auditing one top-level package.
func WalkOne(index *pyenv.Index, req requirement.Requirement) (Set, error) {
	return Walk(index, req)
}

// WalkCollect walks like Walk but collects every unmet dependency instead of
// failing on the first, for callers that can install the missing set and
// retry. Unmet entries render key plus the edge's constraint string, ready
// to hand to an installer. Unlike Walk, the seeds' own installed pins are
// included; a seed missing from the index is itself unmet.
func WalkCollect(index *pyenv.Index, seeds ...requirement.Requirement) (Set, []string, error) {
	expected := make(Set)
	unmet := make(Set)
	var worklist []requirement.Requirement
	visited := make(map[string]struct{}, len(seeds))

	for _, seed := range seeds {
		visited[visitKey(seed)] = struct{}{}
		installed, ok := index.Get(seed.Key)
		if !ok {
			unmet.Add(seed.Key + seed.ConstraintString())
			continue
		}
		expected.Add(installed.EqualityString())
		worklist = append(worklist, seed)
	}

	for len(worklist) > 0 {
		req := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		subs, err := index.Requires(req.Key, req.Extras)
		if err != nil {
			return nil, nil, err
		}
		for _, sub := range subs {
			installed, ok := index.Get(sub.Key)
			if !ok {
				unmet.Add(sub.Key + sub.ConstraintString())
				continue
			}
			expected.Add(installed.EqualityString())
			if vk := visitKey(sub); !hasKey(visited, vk) {
				visited[vk] = struct{}{}
				worklist = append(worklist, sub)
			}
		}
	}
	return expected, unmet.Sorted(), nil
}

func hasKey(m map[string]struct{}, k string) bool {
	_, ok := m[k]
	return ok
}

// Unpinned is one unpinned-requirement finding: MissingKey lacks an exact
// pin, attributed to the requirement (and file) that pulled it in.
type Unpinned struct {
	MissingKey string
	RequiredBy requirement.Requirement
	File       string
}

// String renders the finding the way the failure report prints it.
func (u Unpinned) String() string {
	return fmt.Sprintf("%s (required by %s in %s)", u.MissingKey, u.RequiredBy, u.File)
}
