package requirement

import "testing"

func TestEvalMarker(t *testing.T) {
	env := Env{
		"python_version":  "3.11",
		"sys_platform":    "linux",
		"platform_system": "Linux",
	}

	tests := []struct {
		marker string
		want   bool
	}{
		{`sys_platform == "linux"`, true},
		{`sys_platform == "win32"`, false},
		{`sys_platform != "win32"`, true},
		{`python_version >= "3.8"`, true},
		{`python_version < "3.8"`, false},
		{`python_version < "3.12" and sys_platform == "linux"`, true},
		{`python_version < "3.0" or sys_platform == "linux"`, true},
		{`(python_version < "3.0" or sys_platform == "win32") and platform_system == "Linux"`, false},
		{`'linux' in sys_platform`, true},
		{`'win' not in sys_platform`, true},
		{`extra == "tests"`, false},
	}

	for _, tt := range tests {
		t.Run(tt.marker, func(t *testing.T) {
			got, err := EvalMarker(tt.marker, env)
			if err != nil {
				t.Fatalf("EvalMarker(%q): %v", tt.marker, err)
			}
			if got != tt.want {
				t.Errorf("EvalMarker(%q) = %v, want %v", tt.marker, got, tt.want)
			}
		})
	}
}

func TestEvalMarker_Extra(t *testing.T) {
	env := DefaultEnv().WithExtra("security")

	got, err := EvalMarker(`extra == "security"`, env)
	if err != nil {
		t.Fatal(err)
	}
	if !got {
		t.Error("extra marker should match activated extra")
	}
}

func TestEvalMarker_Malformed(t *testing.T) {
	malformed := []string{
		`sys_platform ==`,
		`(sys_platform == "linux"`,
		`sys_platform @@ "linux"`,
		`sys_platform == "linux`,
	}
	for _, m := range malformed {
		if _, err := EvalMarker(m, Env{}); err == nil {
			t.Errorf("EvalMarker(%q) succeeded, want error", m)
		}
	}
}
