// Package manifest reads requirement manifest files: newline-delimited
// requirement specifiers with comments, blank lines, and an optional
// editable self-install marker. Parsing is fail-fast - the first bad line
// aborts the whole file with its filename and line number attached.
package manifest

import (
	"bufio"
	"os"
	"slices"
	"strings"

	"github.com/reqcheck/reqcheck/pkg/errors"
	"github.com/reqcheck/reqcheck/pkg/requirement"
)

// editableSelf is the only tolerated editable install line: the project
// referencing itself. Any other -e line is a parse error.
const editableSelf = "-e ."

// Entry is a requirement together with the file it was declared in.
// The filename is carried for error attribution, not identity.
type Entry struct {
	Requirement requirement.Requirement
	File        string
}

// Lines returns the non-blank, non-comment lines of a manifest file,
// whitespace-stripped, in file order.
func Lines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "%s does not exist", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "cannot read %s", path)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "reading %s", path)
	}
	return lines, nil
}

// Read parses a manifest file into its ordered requirement entries,
// evaluating environment markers against env (nil for host defaults).
// Requirements whose marker evaluates false are dropped entirely. The
// editable self-install line is silently skipped. Any other unparseable
// line fails the whole file.
func Read(path string, env requirement.Env) ([]Entry, error) {
	lines, err := Lines(path)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, line := range lines {
		if line == editableSelf {
			continue
		}
		req, ok, err := requirement.ParseEnv(line, env)
		if err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "in %s", path)
		}
		if !ok {
			continue
		}
		entries = append(entries, Entry{Requirement: req, File: path})
	}
	return entries, nil
}

// ReadAny reads either a requirements-style text manifest or, when path
// ends in .toml, the [project] dependencies of a pyproject file. This lets
// a config point the minimal manifest at pyproject.toml directly.
func ReadAny(path string, env requirement.Env) ([]Entry, error) {
	if strings.HasSuffix(path, ".toml") {
		return ReadPyproject(path, nil, env)
	}
	return Read(path, env)
}

// Exists reports whether the manifest file is present. Absence is a
// graceful skip for optional manifests, never an error.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// DuplicateKeys scans one manifest and returns every requirement key that
// appears more than once, sorted. Duplicate detection is a diagnostic
// separate from reading - reconciliation operates on sets and would
// silently collapse duplicates.
func DuplicateKeys(path string, env requirement.Env) ([]string, error) {
	entries, err := ReadAny(path, env)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, e := range entries {
		counts[e.Requirement.Key]++
	}

	var dups []string
	for key, n := range counts {
		if n > 1 {
			dups = append(dups, key)
		}
	}
	slices.Sort(dups)
	return dups, nil
}

// Requirements projects entries onto their requirements, dropping filenames.
func Requirements(entries []Entry) []requirement.Requirement {
	reqs := make([]requirement.Requirement, len(entries))
	for i, e := range entries {
		reqs[i] = e.Requirement
	}
	return reqs
}
