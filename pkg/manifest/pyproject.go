package manifest

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/reqcheck/reqcheck/pkg/errors"
	"github.com/reqcheck/reqcheck/pkg/requirement"
)

// pyprojectFile models the PEP 621 [project] table of pyproject.toml.
type pyprojectFile struct {
	Project struct {
		Name                 string              `toml:"name"`
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`
}

// ReadPyproject reads the [project] dependencies of a pyproject.toml as a
// minimal manifest. Optional-dependency groups named in groups are included
// as well (e.g. "dev"). Marker handling matches Read: requirements whose
// marker evaluates false against env are dropped entirely.
func ReadPyproject(path string, groups []string, env requirement.Env) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "%s does not exist", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "cannot read %s", path)
	}

	var file pyprojectFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parsing %s", path)
	}

	raw := append([]string(nil), file.Project.Dependencies...)
	for _, g := range groups {
		raw = append(raw, file.Project.OptionalDependencies[g]...)
	}

	var entries []Entry
	for _, line := range raw {
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
