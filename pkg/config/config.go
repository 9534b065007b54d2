// Package config loads optional project settings from .reqcheck.yaml in the
// checked directory. Everything has a sensible default; the file only exists
// to override interpreter paths and unconventional manifest names.
package config

import (
	"bytes"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/reqcheck/reqcheck/pkg/audit"
	"github.com/reqcheck/reqcheck/pkg/errors"
)

// FileName is the config file looked up in the checked directory.
const FileName = ".reqcheck.yaml"

// Manifests overrides the conventional manifest file names.
type Manifests struct {
	Minimal    string `yaml:"minimal"`
	Pinned     string `yaml:"pinned"`
	DevMinimal string `yaml:"dev_minimal"`
	DevPinned  string `yaml:"dev_pinned"`
}

// Config is the parsed settings file.
type Config struct {
	Python       string    `yaml:"python"`        // interpreter used for env discovery and upgrade
	SitePackages string    `yaml:"site_packages"` // explicit site-packages, skipping discovery
	IndexURL     string    `yaml:"index_url"`     // pip index for upgrade installs
	Manifests    Manifests `yaml:"manifests"`
}

// Default returns the settings used when no config file exists.
func Default() *Config {
	return &Config{
		Python: "python3",
		Manifests: Manifests{
			Minimal:    audit.DefaultFiles.Minimal,
			Pinned:     audit.DefaultFiles.Pinned,
			DevMinimal: audit.DefaultFiles.DevMinimal,
			DevPinned:  audit.DefaultFiles.DevPinned,
		},
	}
}

// Load reads dir/.reqcheck.yaml, returning defaults when the file is
// absent. Unknown keys are rejected so typos surface instead of silently
// meaning nothing.
func Load(dir string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "reading %s", FileName)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parsing %s", FileName)
	}
	return cfg, nil
}

// Files maps the configured manifest names onto the audit layout, joined
// onto the checked directory.
func (c *Config) Files(dir string) audit.Files {
	return audit.Files{
		Minimal:    filepath.Join(dir, c.Manifests.Minimal),
		Pinned:     filepath.Join(dir, c.Manifests.Pinned),
		DevMinimal: filepath.Join(dir, c.Manifests.DevMinimal),
		DevPinned:  filepath.Join(dir, c.Manifests.DevPinned),
	}
}
