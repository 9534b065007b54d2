// Package audit implements the consistency checks between minimal
// manifests, pin files, and the installed environment. Each check is
// independent: it either passes or returns a single descriptive error, and
// the caller decides how many checks to run and how to report them.
package audit

import (
	"sort"
	"strings"

	"github.com/reqcheck/reqcheck/pkg/closure"
	"github.com/reqcheck/reqcheck/pkg/errors"
	"github.com/reqcheck/reqcheck/pkg/manifest"
	"github.com/reqcheck/reqcheck/pkg/pyenv"
	"github.com/reqcheck/reqcheck/pkg/requirement"
)

// Files names the manifest layout of a checked repository. Minimal files
// are human-curated direct dependencies; pinned files are the
// machine-maintained lockfiles.
type Files struct {
	Minimal    string // e.g. requirements-minimal.txt
	Pinned     string // e.g. requirements.txt
	DevMinimal string // e.g. requirements-dev-minimal.txt
	DevPinned  string // e.g. requirements-dev.txt
}

// DefaultFiles is the conventional manifest layout.
var DefaultFiles = Files{
	Minimal:    "requirements-minimal.txt",
	Pinned:     "requirements.txt",
	DevMinimal: "requirements-dev-minimal.txt",
	DevPinned:  "requirements-dev.txt",
}

// ExpectedPinned computes the set of pins a minimal manifest implies: for
// every requirement listed, its own key==installed_version plus the full
// transitive closure. pinName is only used for error attribution.
//
// A minimal requirement that is not installed at all is a hard failure
// (NOT_INSTALLED) naming the minimal file and the missing key - distinct
// from "installed but not pinned".
func ExpectedPinned(ix *pyenv.Index, minimalPath, pinName string) (closure.Set, error) {
	entries, err := manifest.ReadAny(minimalPath, ix.MarkerEnv())
	if err != nil {
		return nil, err
	}

	expected := make(closure.Set)
	for _, e := range entries {
		installed, ok := ix.Get(e.Requirement.Key)
		if !ok {
			return nil, errors.New(errors.ErrCodeNotInstalled,
				"A dependency listed in %s is not installed.\nIs it missing from %s?\n\t- %s",
				minimalPath, pinName, e.Requirement.Key)
		}
		expected.Add(installed.EqualityString())

		sub, err := closure.Walk(ix, e.Requirement)
		if err != nil {
			return nil, err
		}
		expected.Union(sub)
	}
	return expected, nil
}

// environment pairs an expected pin set with the files it reconciles.
type environment struct {
	expected closure.Set
	pinFile  string
	minimal  string
}

// ReconcileTopLevel validates that the pin files are exactly the pins the
// minimal manifests imply: nothing surplus, nothing missing.
//
// The dev environment is checked only when the dev-minimal manifest exists;
// otherwise warn is called with a recommendation to create one (a soft
// signal, not a failure). Dependencies shared between prod and dev are
// expected only in the prod pin file: the dev expected set has the prod
// expected set subtracted before differencing, so a shared dependency
// listed in both pin files reports as a dev surplus. That is long-standing
// behavior downstream tooling relies on; keep it.
func ReconcileTopLevel(ix *pyenv.Index, files Files, warn func(format string, args ...any)) error {
	expectedProd, err := ExpectedPinned(ix, files.Minimal, files.Pinned)
	if err != nil {
		return err
	}
	environments := []environment{{expectedProd, files.Pinned, files.Minimal}}

	if manifest.Exists(files.DevMinimal) {
		expectedDev, err := ExpectedPinned(ix, files.DevMinimal, files.DevPinned)
		if err != nil {
			return err
		}
		expectedDev.Subtract(expectedProd)
		environments = append(environments, environment{expectedDev, files.DevPinned, files.DevMinimal})
	} else if warn != nil {
		warn("Warning: your dev dependencies are *not* being checked.\n" +
			"To have them checked, create a file named %s listing your minimal dev dependencies.",
			files.DevMinimal)
	}

	for _, env := range environments {
		if err := reconcile(ix, env); err != nil {
			return err
		}
	}
	return nil
}

// reconcile diffs one environment's declared pins against its expected set.
// Expected "key==version" strings are re-parsed into Requirements before
// set difference so formatting differences never cause false mismatches.
func reconcile(ix *pyenv.Index, env environment) error {
	expected := make(map[string]requirement.Requirement, len(env.expected))
	for _, s := range env.expected.Sorted() {
		req, err := requirement.Parse(s)
		if err != nil {
			return err
		}
		expected[req.ID()] = req
	}

	declared := make(map[string]requirement.Requirement)
	if manifest.Exists(env.pinFile) {
		entries, err := manifest.Read(env.pinFile, ix.MarkerEnv())
		if err != nil {
			return err
		}
		for _, e := range entries {
			declared[e.Requirement.ID()] = e.Requirement
		}
	}

	var surplus, missing []requirement.Requirement
	for id, req := range declared {
		if _, ok := expected[id]; !ok {
			surplus = append(surplus, req)
		}
	}
	for id, req := range expected {
		if _, ok := declared[id]; !ok {
			missing = append(missing, req)
		}
	}

	// Surplus and missing are reported separately, never merged, so the
	// user sees exactly what to remove vs. what to add.
	if len(surplus) > 0 {
		return errors.New(errors.ErrCodeMismatch,
			"Requirements are pinned in %[1]s but are not depended on in %[2]s!\n\n"+
				"Usually this happens because you upgraded some other dependency, and now no longer require these.\n"+
				"If that's the case, you should remove these from %[1]s.\n"+
				"Otherwise, if you *do* need these packages, then add them to %[2]s.\n%[3]s",
			env.pinFile, env.minimal, dashedLines(surplus))
	}
	if len(missing) > 0 {
		return errors.New(errors.ErrCodeMismatch,
			"Dependencies derived from %[2]s are not pinned in %[1]s\n"+
				"(Probably need to add something to %[1]s):\n%[3]s",
			env.pinFile, env.minimal, dashedLines(missing))
	}
	return nil
}

// dashedLines renders requirements as a sorted, tab-indented dashed list.
func dashedLines(reqs []requirement.Requirement) string {
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].Key < reqs[j].Key })
	lines := make([]string, len(reqs))
	for i, r := range reqs {
		lines[i] = "\t- " + r.String()
	}
	return strings.Join(lines, "\n")
}
