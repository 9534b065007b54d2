package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/reqcheck/reqcheck/pkg/errors"
	"github.com/reqcheck/reqcheck/pkg/requirement"
)

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLines_Trivial(t *testing.T) {
	path := writeFile(t, "requirements.txt", "")
	lines, err := Lines(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 0 {
		t.Errorf("Lines() = %v, want empty", lines)
	}
}

func TestLines_IgnoresCommentsAndWhitespace(t *testing.T) {
	path := writeFile(t, "requirements.txt", " foo \n#bar\n    \n \tbaz\n")
	lines, err := Lines(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 || lines[0] != "foo" || lines[1] != "baz" {
		t.Errorf("Lines() = %v, want [foo baz]", lines)
	}
}

func TestRead_SkipsEditableSelf(t *testing.T) {
	path := writeFile(t, "requirements.txt", "-e .\nfoo==1\nbar==2\n")
	entries, err := Read(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("Read() returned %d entries, want 2", len(entries))
	}
	if entries[0].Requirement.String() != "foo==1" || entries[1].Requirement.String() != "bar==2" {
		t.Errorf("Read() = %v", entries)
	}
	for _, e := range entries {
		if e.File != path {
			t.Errorf("entry File = %q, want %q", e.File, path)
		}
	}
}

func TestRead_FailsFastOnBadLine(t *testing.T) {
	path := writeFile(t, "requirements.txt", "foo==1\ngit+https://example.com/x.git\nbar==2\n")
	_, err := Read(path, nil)
	if err == nil {
		t.Fatal("Read() succeeded, want parse error")
	}
	if !errors.Is(err, errors.ErrCodeParse) {
		t.Errorf("error code = %v, want PARSE_ERROR", errors.GetCode(err))
	}
}

func TestRead_OtherEditableRejected(t *testing.T) {
	path := writeFile(t, "requirements.txt", "-e ./local\n")
	if _, err := Read(path, nil); err == nil {
		t.Fatal("non-self editable line should be rejected")
	}
}

func TestRead_MarkerDroppedEntirely(t *testing.T) {
	env := requirement.Env{"sys_platform": "linux"}
	path := writeFile(t, "requirements.txt",
		"foo==1\nwincolor==2; sys_platform == \"win32\"\n")
	entries, err := Read(path, env)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Requirement.Key != "foo" {
		t.Errorf("Read() = %v, want just foo", entries)
	}
}

func TestRead_MissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "absent.txt"), nil)
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("error code = %v, want FILE_NOT_FOUND", errors.GetCode(err))
	}
}

func TestDuplicateKeys(t *testing.T) {
	path := writeFile(t, "requirements.txt", "foo==1\nbar==2\nFoo==3\nbaz==4\nbar==2\n")
	dups, err := DuplicateKeys(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(dups) != 2 || dups[0] != "bar" || dups[1] != "foo" {
		t.Errorf("DuplicateKeys() = %v, want [bar foo]", dups)
	}
}

func TestExists(t *testing.T) {
	path := writeFile(t, "requirements.txt", "")
	if !Exists(path) {
		t.Error("Exists() = false for present file")
	}
	if Exists(filepath.Join(t.TempDir(), "absent.txt")) {
		t.Error("Exists() = true for absent file")
	}
}

func TestReadPyproject(t *testing.T) {
	path := writeFile(t, "pyproject.toml", `
[project]
name = "myapp"
dependencies = [
    "requests>=2.28",
    "click==8.1.0",
]

[project.optional-dependencies]
dev = ["pytest>=7", "wincheck; sys_platform == 'win32'"]
`)

	env := requirement.Env{"sys_platform": "linux"}

	prod, err := ReadPyproject(path, nil, env)
	if err != nil {
		t.Fatal(err)
	}
	if len(prod) != 2 {
		t.Fatalf("prod entries = %v, want 2", prod)
	}

	withDev, err := ReadPyproject(path, []string{"dev"}, env)
	if err != nil {
		t.Fatal(err)
	}
	if len(withDev) != 3 {
		t.Fatalf("dev entries = %d, want 3 (marker-excluded wincheck dropped)", len(withDev))
	}
	keys := map[string]bool{}
	for _, e := range withDev {
		keys[e.Requirement.Key] = true
	}
	if !keys["pytest"] || keys["wincheck"] {
		t.Errorf("unexpected keys %v", keys)
	}
}
