package closure

import (
	"sort"

	"github.com/reqcheck/reqcheck/pkg/manifest"
	"github.com/reqcheck/reqcheck/pkg/pyenv"
)

// FindUnpinned flags requirements lacking an exact == pin.
//
// Two sources of findings:
//   - a declared requirement that is not itself pinned to a single version;
//   - an immediate (one level, deliberately not transitive) dependency of a
//     declared requirement whose key is pinned nowhere across the checked
//     manifests, attributed to the requirement that pulled it in.
//
// One level suffices: the declared requirements already cover the full
// manifest, so a transitive-of-transitive gap surfaces when its immediate
// parent is checked on a later run.
func FindUnpinned(index *pyenv.Index, entries []manifest.Entry) ([]Unpinned, error) {
	pinned := make(map[string]bool, len(entries))
	for _, e := range entries {
		_, isPinned := e.Requirement.PinnedVersion()
		pinned[e.Requirement.Key] = isPinned
	}

	seen := make(map[string]bool)
	var findings []Unpinned
	add := func(u Unpinned) {
		id := u.MissingKey + "|" + u.RequiredBy.String() + "|" + u.File
		if !seen[id] {
			seen[id] = true
			findings = append(findings, u)
		}
	}

	for _, e := range entries {
		if !pinned[e.Requirement.Key] {
			add(Unpinned{MissingKey: e.Requirement.Key, RequiredBy: e.Requirement, File: e.File})
		}
	}

	for _, e := range entries {
		subs, err := index.Requires(e.Requirement.Key, e.Requirement.Extras)
		if err != nil {
			return nil, err
		}
		for _, sub := range subs {
			if _, listed := pinned[sub.Key]; !listed {
				add(Unpinned{MissingKey: sub.Key, RequiredBy: e.Requirement, File: e.File})
			}
		}
	}

	sort.Slice(findings, func(i, j int) bool { return findings[i].String() < findings[j].String() })
	return findings, nil
}
