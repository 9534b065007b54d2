// Package requirement implements parsing and normalization of Python
// requirement specifiers (PEP 508), the value type every other package
// operates on.
//
// A Requirement is identified by its normalized key (lowercase, underscores
// folded to dashes), its set of extras, and its version constraints. Two
// requirements compare equal when all three match, regardless of spelling,
// whitespace, or constraint order in the source text. Environment markers
// are evaluated at parse time and never survive into the value.
package requirement

import (
	"fmt"
	"slices"
	"strings"
)

// Constraint is a single version restriction, e.g. {Op: "==", Version: "1.2.3"}.
// Versions are stored in safe-version form (see SafeVersion).
type Constraint struct {
	Op      string
	Version string
}

// String renders the constraint with no surrounding whitespace.
func (c Constraint) String() string { return c.Op + c.Version }

// Requirement is a normalized dependency specifier.
//
// The zero value is not usable - construct via Parse or New.
type Requirement struct {
	Key         string       // canonical package identifier
	Extras      []string     // sorted, deduplicated optional-feature names
	Constraints []Constraint // ordered version restrictions, may be empty
}

// New builds a Requirement from pre-parsed parts, normalizing the key,
// extras, and constraint versions the same way Parse does.
func New(name string, extras []string, constraints []Constraint) Requirement {
	normalized := make([]string, 0, len(extras))
	for _, e := range extras {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" && !slices.Contains(normalized, e) {
			normalized = append(normalized, e)
		}
	}
	slices.Sort(normalized)

	cs := make([]Constraint, len(constraints))
	for i, c := range constraints {
		cs[i] = Constraint{Op: c.Op, Version: SafeVersion(c.Version)}
	}

	return Requirement{Key: NormalizeKey(name), Extras: normalized, Constraints: cs}
}

// NormalizeKey lowercases a package name and folds underscores to dashes.
// This is the identity used for all set operations and index lookups.
func NormalizeKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
}

// String renders the canonical form: key[extra1,extra2]op1v1,op2v2.
// Parse(r.String()) yields a Requirement equal to r.
func (r Requirement) String() string {
	var b strings.Builder
	b.WriteString(r.Key)
	if len(r.Extras) > 0 {
		b.WriteString("[")
		b.WriteString(strings.Join(r.Extras, ","))
		b.WriteString("]")
	}
	for i, c := range r.Constraints {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(c.String())
	}
	return b.String()
}

// ConstraintString renders the constraint list alone, e.g. ">=1.0,<2.0".
// Empty for an unconstrained requirement.
func (r Requirement) ConstraintString() string {
	cs := make([]string, len(r.Constraints))
	for i, c := range r.Constraints {
		cs[i] = c.String()
	}
	return strings.Join(cs, ",")
}

// ExtrasKey returns the canonical extras spelling used in visited-set keys.
// Empty string for no extras.
func (r Requirement) ExtrasKey() string { return strings.Join(r.Extras, ",") }

// DisplayKey renders key[extras] for diagnostics, e.g. "foo[bar]".
func (r Requirement) DisplayKey() string {
	if len(r.Extras) == 0 {
		return r.Key
	}
	return fmt.Sprintf("%s[%s]", r.Key, r.ExtrasKey())
}

// Equal reports structural equality: same key, same extras set, and the
// same constraints as a set (order-insensitive).
func (r Requirement) Equal(o Requirement) bool {
	if r.Key != o.Key {
		return false
	}
	if !slices.Equal(r.Extras, o.Extras) {
		return false
	}
	if len(r.Constraints) != len(o.Constraints) {
		return false
	}
	a := slices.Clone(r.Constraints)
	b := slices.Clone(o.Constraints)
	byOpVersion := func(x, y Constraint) int { return strings.Compare(x.Op+x.Version, y.Op+y.Version) }
	slices.SortFunc(a, byOpVersion)
	slices.SortFunc(b, byOpVersion)
	return slices.Equal(a, b)
}

// ID returns a canonical identity string usable as a map key wherever a set
// of Requirements is needed. Equal requirements have equal IDs.
func (r Requirement) ID() string {
	cs := make([]string, len(r.Constraints))
	for i, c := range r.Constraints {
		cs[i] = c.String()
	}
	slices.Sort(cs)
	var b strings.Builder
	b.WriteString(r.Key)
	if len(r.Extras) > 0 {
		b.WriteString("[" + r.ExtrasKey() + "]")
	}
	b.WriteString(strings.Join(cs, ","))
	return b.String()
}

// Pinned reports whether the requirement has exactly one constraint and
// that constraint is an exact == pin.
func (r Requirement) Pinned() bool {
	return len(r.Constraints) == 1 && r.Constraints[0].Op == "=="
}

// PinnedVersion returns the pinned version, or "" and false when the
// requirement is not an exact pin.
func (r Requirement) PinnedVersion() (string, bool) {
	if !r.Pinned() {
		return "", false
	}
	return r.Constraints[0].Version, true
}

// EqualityString renders key==version for a pinned requirement.
// For unpinned requirements the version part is empty.
func (r Requirement) EqualityString() string {
	v, _ := r.PinnedVersion()
	return fmt.Sprintf("%s==%s", r.Key, v)
}
