package pyenv

import (
	"bufio"
	"context"
	"encoding/json"
	"net/textproto"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/reqcheck/reqcheck/pkg/errors"
	"github.com/reqcheck/reqcheck/pkg/requirement"
)

// Load scans a site-packages directory for *.dist-info/METADATA files and
// builds the installed-package snapshot. env is the marker environment of
// the interpreter owning the directory; pass nil for host defaults.
func Load(sitePackages string, env requirement.Env) (*Index, error) {
	entries, err := os.ReadDir(sitePackages)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err,
			"cannot read site-packages directory %s", sitePackages)
	}

	var pkgs []*Package
	for _, e := range entries {
		if !e.IsDir() || !strings.HasSuffix(e.Name(), ".dist-info") {
			continue
		}
		metadata := filepath.Join(sitePackages, e.Name(), "METADATA")
		pkg, err := readMetadata(metadata)
		if err != nil {
			return nil, err
		}
		if pkg != nil {
			pkgs = append(pkgs, pkg)
		}
	}
	return NewIndex(pkgs, env), nil
}

// readMetadata parses one METADATA file (RFC 822 style headers).
// Returns nil for distributions without a usable Name header.
func readMetadata(path string) (*Package, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "reading %s", path)
	}
	defer f.Close()

	tp := textproto.NewReader(bufio.NewReader(f))
	hdr, err := tp.ReadMIMEHeader()
	// ReadMIMEHeader returns io.EOF alongside the headers when the body
	// (the package description) is absent.
	if err != nil && len(hdr) == 0 {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parsing %s", path)
	}

	name := hdr.Get("Name")
	if name == "" {
		return nil, nil
	}

	pkg := NewPackage(name, hdr.Get("Version"), hdr.Values("Requires-Dist")...)
	pkg.WithExtras(hdr.Values("Provides-Extra")...)
	return pkg, nil
}

// Discover asks the given Python interpreter for its site-packages path.
func Discover(ctx context.Context, python string) (string, error) {
	out, err := exec.CommandContext(ctx, python, "-c",
		"import sysconfig; print(sysconfig.get_paths()['purelib'])").Output()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err,
			"cannot determine site-packages for %s", python)
	}
	return strings.TrimSpace(string(out)), nil
}

// markerEnvScript prints the PEP 508 marker environment of an interpreter.
const markerEnvScript = `import json, os, platform, sys
print(json.dumps({
    "os_name": os.name,
    "sys_platform": sys.platform,
    "platform_machine": platform.machine(),
    "platform_python_implementation": platform.python_implementation(),
    "platform_release": platform.release(),
    "platform_system": platform.system(),
    "platform_version": platform.version(),
    "python_version": ".".join(platform.python_version_tuple()[:2]),
    "python_full_version": platform.python_version(),
    "implementation_name": sys.implementation.name,
}))`

// LoadEnv captures the marker environment of the given Python interpreter.
func LoadEnv(ctx context.Context, python string) (requirement.Env, error) {
	out, err := exec.CommandContext(ctx, python, "-c", markerEnvScript).Output()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err,
			"cannot capture marker environment from %s", python)
	}
	env := requirement.Env{}
	if err := json.Unmarshal(out, &env); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err,
			"unexpected marker environment output from %s", python)
	}
	return env, nil
}
