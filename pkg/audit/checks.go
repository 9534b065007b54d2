package audit

import (
	"strings"

	"github.com/reqcheck/reqcheck/pkg/closure"
	"github.com/reqcheck/reqcheck/pkg/errors"
	"github.com/reqcheck/reqcheck/pkg/manifest"
	"github.com/reqcheck/reqcheck/pkg/pyenv"
)

// CheckApplication verifies the checked repository is an application.
// The checker audits a concrete installed environment against exact pins,
// which only makes sense for applications; libraries declare ranges.
func CheckApplication(files Files) error {
	if !manifest.Exists(files.Pinned) {
		return errors.New(errors.ErrCodeFileNotFound,
			"reqcheck is designed specifically with applications in mind "+
				"(and does not properly work for libraries).\n"+
				"Either remove reqcheck (if you're a library) or `touch %s`.", files.Pinned)
	}
	return nil
}

// AllEntries reads every checked pin file: the prod pin file always, the
// dev pin file only once a dev-minimal manifest exists (repos that have not
// adopted one are not forced to pin dev requirements yet). Missing files
// are skipped gracefully.
func AllEntries(ix *pyenv.Index, files Files) ([]manifest.Entry, error) {
	paths := []string{files.Pinned}
	if manifest.Exists(files.DevMinimal) {
		paths = append(paths, files.DevPinned)
	}

	var entries []manifest.Entry
	for _, path := range paths {
		if !manifest.Exists(path) {
			continue
		}
		batch, err := manifest.Read(path, ix.MarkerEnv())
		if err != nil {
			return nil, err
		}
		entries = append(entries, batch...)
	}
	return entries, nil
}

// CheckIntegrity verifies that every exact pin matches the installed
// version. A mismatch means the virtualenv is stale and every other check
// would report nonsense, so the remediation is to rebuild it. Unpinned
// entries are skipped here - CheckPinned owns those.
func CheckIntegrity(ix *pyenv.Index, entries []manifest.Entry) error {
	type mismatch struct {
		file, key, pinned, installed string
	}
	var incorrect []mismatch

	for _, e := range entries {
		pinned, ok := e.Requirement.PinnedVersion()
		if !ok {
			continue
		}
		installed, ok := ix.Get(e.Requirement.Key)
		if !ok {
			return errors.New(errors.ErrCodeNotInstalled,
				"%s is required in %s, but is not installed", e.Requirement.Key, e.File)
		}
		if installed.Version != pinned {
			incorrect = append(incorrect, mismatch{e.File, e.Requirement.Key, pinned, installed.Version})
		}
	}

	if len(incorrect) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("Installed requirements do not match requirement files!\nRebuild your virtualenv:\n")
	for _, m := range incorrect {
		b.WriteString(" - (" + m.file + ") " + m.key + "==" + m.pinned +
			" (installed) " + m.key + "==" + m.installed + "\n")
	}
	return errors.New(errors.ErrCodeIntegrity, "%s", b.String())
}

// CheckPinned runs the unpinned detector over the checked pin files and
// formats each finding with the installed version as a remediation hint.
func CheckPinned(ix *pyenv.Index, entries []manifest.Entry) error {
	findings, err := closure.FindUnpinned(ix, entries)
	if err != nil {
		return err
	}
	if len(findings) == 0 {
		return nil
	}

	var lines []string
	for _, f := range findings {
		hint := f.MissingKey
		if installed, ok := ix.Get(f.MissingKey); ok {
			hint = installed.EqualityString()
		}
		lines = append(lines, f.String()+"\n\t\tmaybe you want \""+hint+"\"?")
	}
	return errors.New(errors.ErrCodeMismatch,
		"Unpinned requirements detected!\n\n\t%s", strings.Join(lines, "\n\t"))
}

// CheckDuplicates fails when any checked manifest lists the same key twice,
// reporting every offending file.
func CheckDuplicates(ix *pyenv.Index, files Files) error {
	var offending []string
	for _, path := range []string{files.Minimal, files.Pinned, files.DevMinimal, files.DevPinned} {
		if path == "" || !manifest.Exists(path) {
			continue
		}
		dups, err := manifest.DuplicateKeys(path, ix.MarkerEnv())
		if err != nil {
			return err
		}
		if len(dups) > 0 {
			offending = append(offending, path+": "+strings.Join(dups, ", "))
		}
	}
	if len(offending) == 0 {
		return nil
	}
	return errors.New(errors.ErrCodeDuplicate,
		"Duplicate requirements detected!\n\t%s", strings.Join(offending, "\n\t"))
}

// CheckNoUnderscores enforces dashed package names in the pin files.
// Installed keys fold underscores to dashes, so underscored manifest lines
// would never match what the reconciler derives.
func CheckNoUnderscores(files Files) error {
	for _, path := range []string{files.Pinned, files.DevPinned} {
		if path == "" || !manifest.Exists(path) {
			continue
		}
		lines, err := manifest.Lines(path)
		if err != nil {
			return err
		}
		for _, line := range lines {
			if strings.Contains(line, "_") {
				return errors.New(errors.ErrCodeInvalidManifest,
					"Use dashes for package names %s: %s", path, line)
			}
		}
	}
	return nil
}
