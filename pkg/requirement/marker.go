package requirement

import (
	"runtime"
	"strings"

	"github.com/reqcheck/reqcheck/pkg/errors"
)

// Env holds the environment-marker variables (PEP 508) a requirement line
// may reference. Missing variables evaluate as empty strings.
type Env map[string]string

// WithExtra returns a copy of the environment with the "extra" variable set.
// Used when filtering a package's declared dependencies by activated extras.
func (e Env) WithExtra(extra string) Env {
	out := make(Env, len(e)+1)
	for k, v := range e {
		out[k] = v
	}
	out["extra"] = extra
	return out
}

// DefaultEnv returns a marker environment describing the host platform.
// Python-specific variables (python_version etc.) are left unset unless the
// installed-package snapshot supplies them; comparisons against unset
// variables evaluate against the empty string.
func DefaultEnv() Env {
	env := Env{
		"os_name":      "posix",
		"sys_platform": runtime.GOOS,
	}
	switch runtime.GOOS {
	case "linux":
		env["platform_system"] = "Linux"
	case "darwin":
		env["sys_platform"] = "darwin"
		env["platform_system"] = "Darwin"
	case "windows":
		env["os_name"] = "nt"
		env["sys_platform"] = "win32"
		env["platform_system"] = "Windows"
	}
	return env
}

// EvalMarker evaluates a PEP 508 environment-marker expression against env.
// Supported: and/or, parentheses, the comparison operators ==, !=, <, <=,
// >, >=, ~=, and (not) in, with quoted literals and marker variables as
// operands. Returns an error for malformed expressions.
func EvalMarker(marker string, env Env) (bool, error) {
	toks, err := tokenizeMarker(marker)
	if err != nil {
		return false, err
	}
	p := &markerParser{toks: toks, env: env}
	v, err := p.parseOr()
	if err != nil {
		return false, err
	}
	if p.pos != len(p.toks) {
		return false, errors.New(errors.ErrCodeParse, "trailing tokens in marker %q", marker)
	}
	return v, nil
}

type markerParser struct {
	toks []string
	pos  int
	env  Env
}

func tokenizeMarker(s string) ([]string, error) {
	var toks []string
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '(' || c == ')':
			toks = append(toks, string(c))
			i++
		case c == '"' || c == '\'':
			j := strings.IndexByte(s[i+1:], c)
			if j < 0 {
				return nil, errors.New(errors.ErrCodeParse, "unterminated string in marker %q", s)
			}
			// Keep the opening quote so the parser can tell literals
			// from variables.
			toks = append(toks, s[i:i+1+j+1])
			i += j + 2
		case strings.ContainsRune("<>=!~", rune(c)):
			j := i
			for j < len(s) && strings.ContainsRune("<>=!~", rune(s[j])) {
				j++
			}
			toks = append(toks, s[i:j])
			i = j
		default:
			j := i
			for j < len(s) && !strings.ContainsRune(" \t()<>=!~'\"", rune(s[j])) {
				j++
			}
			if j == i {
				return nil, errors.New(errors.ErrCodeParse, "unexpected character %q in marker %q", c, s)
			}
			toks = append(toks, s[i:j])
			i = j
		}
	}
	return toks, nil
}

func (p *markerParser) peek() string {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return ""
}

func (p *markerParser) next() string {
	t := p.peek()
	p.pos++
	return t
}

func (p *markerParser) parseOr() (bool, error) {
	v, err := p.parseAnd()
	if err != nil {
		return false, err
	}
	for p.peek() == "or" {
		p.next()
		rhs, err := p.parseAnd()
		if err != nil {
			return false, err
		}
		v = v || rhs
	}
	return v, nil
}

func (p *markerParser) parseAnd() (bool, error) {
	v, err := p.parseUnary()
	if err != nil {
		return false, err
	}
	for p.peek() == "and" {
		p.next()
		rhs, err := p.parseUnary()
		if err != nil {
			return false, err
		}
		v = v && rhs
	}
	return v, nil
}

func (p *markerParser) parseUnary() (bool, error) {
	if p.peek() == "(" {
		p.next()
		v, err := p.parseOr()
		if err != nil {
			return false, err
		}
		if p.next() != ")" {
			return false, errors.New(errors.ErrCodeParse, "missing closing paren in marker")
		}
		return v, nil
	}
	return p.parseComparison()
}

func (p *markerParser) parseComparison() (bool, error) {
	lhs, err := p.parseValue()
	if err != nil {
		return false, err
	}
	op := p.next()
	if op == "not" {
		if p.next() != "in" {
			return false, errors.New(errors.ErrCodeParse, "expected 'in' after 'not' in marker")
		}
		op = "not in"
	}
	rhs, err := p.parseValue()
	if err != nil {
		return false, err
	}
	return compareMarker(lhs, op, rhs)
}

func (p *markerParser) parseValue() (string, error) {
	t := p.next()
	if t == "" {
		return "", errors.New(errors.ErrCodeParse, "unexpected end of marker")
	}
	if t[0] == '"' || t[0] == '\'' {
		return t[1 : len(t)-1], nil
	}
	return p.env[t], nil
}

func compareMarker(lhs, op, rhs string) (bool, error) {
	switch op {
	case "==":
		return lhs == rhs || CompareVersions(lhs, rhs) == 0 && looksLikeVersion(lhs) && looksLikeVersion(rhs), nil
	case "!=":
		eq, _ := compareMarker(lhs, "==", rhs)
		return !eq, nil
	case "in":
		return strings.Contains(rhs, lhs), nil
	case "not in":
		return !strings.Contains(rhs, lhs), nil
	case "~=":
		return CompareVersions(lhs, rhs) >= 0, nil
	case "<", "<=", ">", ">=":
		var cmp int
		if looksLikeVersion(lhs) && looksLikeVersion(rhs) {
			cmp = CompareVersions(lhs, rhs)
		} else {
			cmp = strings.Compare(lhs, rhs)
		}
		switch op {
		case "<":
			return cmp < 0, nil
		case "<=":
			return cmp <= 0, nil
		case ">":
			return cmp > 0, nil
		default:
			return cmp >= 0, nil
		}
	default:
		return false, errors.New(errors.ErrCodeParse, "unsupported marker operator %q", op)
	}
}

func looksLikeVersion(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && c != '.' {
			return false
		}
	}
	return true
}
