package config

import (
	"os"
	"path/filepath"
	"testing"
)

func write(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_AbsentFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Python != "python3" {
		t.Errorf("Python = %q, want python3", cfg.Python)
	}
	if cfg.Manifests.Minimal != "requirements-minimal.txt" {
		t.Errorf("Minimal = %q", cfg.Manifests.Minimal)
	}
}

func TestLoad_PartialOverride(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "python: /usr/bin/python3.12\nmanifests:\n  pinned: pins.txt\n")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Python != "/usr/bin/python3.12" {
		t.Errorf("Python = %q", cfg.Python)
	}
	if cfg.Manifests.Pinned != "pins.txt" {
		t.Errorf("Pinned = %q", cfg.Manifests.Pinned)
	}
	// Untouched fields keep their defaults.
	if cfg.Manifests.DevMinimal != "requirements-dev-minimal.txt" {
		t.Errorf("DevMinimal = %q", cfg.Manifests.DevMinimal)
	}
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "pythn: python3\n")

	if _, err := Load(dir); err == nil {
		t.Error("Load() should reject unknown keys")
	}
}

func TestFiles_JoinsDir(t *testing.T) {
	files := Default().Files("/srv/app")
	if files.Pinned != filepath.Join("/srv/app", "requirements.txt") {
		t.Errorf("Pinned = %q", files.Pinned)
	}
}
