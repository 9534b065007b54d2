package requirement

import (
	"regexp"
	"strings"

	"github.com/reqcheck/reqcheck/pkg/errors"
)

// vcsPrefixes are specifier prefixes that cannot be pinned or traced to
// transitive dependents, so they are rejected outright.
var vcsPrefixes = []string{"git+", "hg+", "svn+", "bzr+"}

var (
	nameRE = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)`)
	specRE = regexp.MustCompile(`^(===|==|!=|<=|>=|~=|<|>)\s*([^,\s]+)\s*$`)
)

// Parse normalizes a raw requirement line into a Requirement, evaluating any
// environment marker against the default host environment. A requirement
// whose marker evaluates false is a parse error at this level; use ParseEnv
// when the caller needs to drop such lines gracefully.
func Parse(raw string) (Requirement, error) {
	req, ok, err := ParseEnv(raw, DefaultEnv())
	if err != nil {
		return Requirement{}, err
	}
	if !ok {
		return Requirement{}, errors.New(errors.ErrCodeParse,
			"requirement %q is excluded by its environment marker", raw)
	}
	return req, nil
}

// ParseEnv parses a raw requirement line against the given marker
// environment. The second result is false when the line carries an
// environment marker that evaluates false - such requirements are dropped
// entirely, not merely unpinned. Markers are stripped before returning, so
// downstream comparisons never need to examine the environment.
func ParseEnv(raw string, env Env) (Requirement, bool, error) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return Requirement{}, false, errors.New(errors.ErrCodeParse, "empty requirement")
	}

	if strings.HasPrefix(line, "-e") {
		return Requirement{}, false, errors.New(errors.ErrCodeParse,
			"editable requirement %q cannot be pinned", raw)
	}
	for _, p := range vcsPrefixes {
		if strings.HasPrefix(line, p) {
			return Requirement{}, false, errors.New(errors.ErrCodeParse,
				"VCS requirement %q cannot be pinned", raw)
		}
	}
	if strings.Contains(line, "://") {
		return Requirement{}, false, errors.New(errors.ErrCodeParse,
			"URL requirement %q cannot be pinned", raw)
	}

	// Split off the environment-marker suffix.
	if i := strings.Index(line, ";"); i >= 0 {
		marker := strings.TrimSpace(line[i+1:])
		line = strings.TrimSpace(line[:i])
		if marker != "" {
			if env == nil {
				env = DefaultEnv()
			}
			keep, err := EvalMarker(marker, env)
			if err != nil {
				return Requirement{}, false, errors.Wrap(errors.ErrCodeParse, err,
					"invalid environment marker in %q", raw)
			}
			if !keep {
				return Requirement{}, false, nil
			}
		}
	}

	m := nameRE.FindString(line)
	if m == "" {
		return Requirement{}, false, errors.New(errors.ErrCodeParse,
			"cannot parse requirement %q", raw)
	}
	rest := line[len(m):]

	var extras []string
	if strings.HasPrefix(rest, "[") {
		end := strings.Index(rest, "]")
		if end < 0 {
			return Requirement{}, false, errors.New(errors.ErrCodeParse,
				"unterminated extras in %q", raw)
		}
		for _, e := range strings.Split(rest[1:end], ",") {
			if e = strings.TrimSpace(e); e != "" {
				extras = append(extras, e)
			}
		}
		rest = rest[end+1:]
	}

	constraints, err := parseConstraints(rest, raw)
	if err != nil {
		return Requirement{}, false, err
	}

	return New(m, extras, constraints), true, nil
}

// parseConstraints parses a comma-separated constraint list. METADATA files
// wrap the list in parentheses (e.g. "foo (>=1.0)"), which is tolerated.
func parseConstraints(s, raw string) ([]Constraint, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if s == "" {
		return nil, nil
	}

	var out []Constraint
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		m := specRE.FindStringSubmatch(part)
		if m == nil {
			return nil, errors.New(errors.ErrCodeParse,
				"cannot parse version constraint %q in %q", part, raw)
		}
		op := m[1]
		if op == "===" {
			op = "=="
		}
		out = append(out, Constraint{Op: op, Version: m[2]})
	}
	return out, nil
}
