package requirement

import "testing"

func TestSafeVersion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.2.3", "1.2.3"},
		{"1.2.3-rc1", "1.2.3rc1"},
		{"1.2.3.rc1", "1.2.3rc1"},
		{"1.2.3_rc1", "1.2.3rc1"},
		{"1.2.3RC1", "1.2.3rc1"},
		{"1.2.3-alpha2", "1.2.3a2"},
		{"1.2.3.beta1", "1.2.3b1"},
		{"1.0-1", "1.0.1"},
		{"v2.0", "2.0"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := SafeVersion(tt.in); got != tt.want {
				t.Errorf("SafeVersion(%q) = %q, want %q", tt.in, got, tt.want)
			}
			// Idempotence
			if again := SafeVersion(tt.want); again != tt.want {
				t.Errorf("SafeVersion not idempotent: %q -> %q", tt.want, again)
			}
		})
	}
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0", "1.0", 0},
		{"1.0", "2.0", -1},
		{"2.0", "1.0", 1},
		{"3.10", "3.9", 1},
		{"3.9", "3.9.1", -1},
		{"1.2.3rc1", "1.2.3-rc1", 0},
	}
	for _, tt := range tests {
		if got := CompareVersions(tt.a, tt.b); got != tt.want {
			t.Errorf("CompareVersions(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
