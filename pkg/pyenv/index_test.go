package pyenv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/reqcheck/reqcheck/pkg/requirement"
)

func TestPackage_Requires_Base(t *testing.T) {
	pkg := NewPackage("flake8", "2.3.0",
		"mccabe (>=0.2.1)",
		"pep8 (>=1.5.7)",
		"pyflakes (>=0.8.1)",
	)

	reqs, err := pkg.Requires(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(reqs) != 3 {
		t.Fatalf("Requires() returned %d requirements, want 3", len(reqs))
	}
	keys := map[string]bool{}
	for _, r := range reqs {
		keys[r.Key] = true
	}
	for _, want := range []string{"mccabe", "pep8", "pyflakes"} {
		if !keys[want] {
			t.Errorf("missing dependency %q in %v", want, keys)
		}
	}
}

func TestPackage_Requires_Extras(t *testing.T) {
	pkg := NewPackage("requests", "2.31.0",
		"urllib3",
		`pyopenssl ; extra == "security"`,
		`pysocks ; extra == "socks"`,
	).WithExtras("security", "socks")

	base, err := pkg.Requires(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(base) != 1 || base[0].Key != "urllib3" {
		t.Errorf("base Requires() = %v, want just urllib3", base)
	}

	withSecurity, err := pkg.Requires([]string{"security"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	keys := map[string]bool{}
	for _, r := range withSecurity {
		keys[r.Key] = true
	}
	if !keys["urllib3"] || !keys["pyopenssl"] || keys["pysocks"] {
		t.Errorf("Requires(security) = %v, want urllib3+pyopenssl only", keys)
	}
}

func TestPackage_Requires_MarkerFiltering(t *testing.T) {
	env := requirement.Env{"sys_platform": "linux"}
	pkg := NewPackage("portable", "1.0",
		`pywin32 ; sys_platform == "win32"`,
		"shared==1.0",
	)

	reqs, err := pkg.Requires(nil, env)
	if err != nil {
		t.Fatal(err)
	}
	if len(reqs) != 1 || reqs[0].Key != "shared" {
		t.Errorf("Requires() = %v, want just shared", reqs)
	}
}

func TestIndex_Lookup(t *testing.T) {
	ix := NewIndex([]*Package{
		NewPackage("Foo_Bar", "1.0"),
		NewPackage("baz", "2.0"),
	}, nil)

	if !ix.Has("foo-bar") {
		t.Error("normalized key foo-bar should be installed")
	}
	if ix.Has("foo_bar") {
		t.Error("lookup must use normalized keys")
	}
	p, ok := ix.Get("baz")
	if !ok || p.Version != "2.0" {
		t.Errorf("Get(baz) = %v, %v", p, ok)
	}
	if got := ix.Keys(); len(got) != 2 || got[0] != "baz" || got[1] != "foo-bar" {
		t.Errorf("Keys() = %v", got)
	}
}

func TestLoad_DistInfo(t *testing.T) {
	dir := t.TempDir()
	writeDistInfo(t, dir, "flake8-2.3.0.dist-info", `Metadata-Version: 2.1
Name: flake8
Version: 2.3.0
Requires-Dist: mccabe (>=0.2.1)
Requires-Dist: pep8 (>=1.5.7)
Requires-Dist: pyflakes (>=0.8.1)

Flake8 is a wrapper around these tools.
`)
	writeDistInfo(t, dir, "mccabe-0.3.dist-info", `Metadata-Version: 2.1
Name: mccabe
Version: 0.3
`)

	ix, err := Load(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ix.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", ix.Len())
	}

	p, ok := ix.Get("flake8")
	if !ok {
		t.Fatal("flake8 not loaded")
	}
	if p.EqualityString() != "flake8==2.3.0" {
		t.Errorf("EqualityString() = %q", p.EqualityString())
	}
	reqs, err := p.Requires(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(reqs) != 3 {
		t.Errorf("Requires() returned %d entries, want 3", len(reqs))
	}
}

func writeDistInfo(t *testing.T, root, dir, metadata string) {
	t.Helper()
	path := filepath.Join(root, dir)
	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(path, "METADATA"), []byte(metadata), 0644); err != nil {
		t.Fatal(err)
	}
}
