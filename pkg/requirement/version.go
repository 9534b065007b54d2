package requirement

import (
	"regexp"
	"strconv"
	"strings"
)

// releaseTagRE matches a digit followed by an optionally separated
// pre/post/dev tag, e.g. "1.2.3-rc1", "1.2.3.alpha2", "1.2.3_dev0".
var releaseTagRE = regexp.MustCompile(`(\d)[._-]?(alpha|beta|preview|pre|rc|dev|post|rev|a|b|c|r)[._-]?(\d*)`)

// tagAliases maps alternative pre/post-release spellings to their
// canonical PEP 440 tags.
var tagAliases = map[string]string{
	"alpha":   "a",
	"beta":    "b",
	"c":       "rc",
	"pre":     "rc",
	"preview": "rc",
	"rev":     "post",
	"r":       "post",
}

// SafeVersion normalizes a version string so that equivalent spellings
// compare equal: "1.2.3-RC1", "1.2.3.rc1" and "1.2.3rc1" all normalize to
// "1.2.3rc1". The transform is idempotent. It deliberately does not order
// versions - exact-pin comparison is the only operation the checker needs.
func SafeVersion(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	v = strings.TrimPrefix(v, "v")
	v = strings.ReplaceAll(v, " ", ".")

	v = releaseTagRE.ReplaceAllStringFunc(v, func(m string) string {
		parts := releaseTagRE.FindStringSubmatch(m)
		tag := parts[2]
		if canonical, ok := tagAliases[tag]; ok {
			tag = canonical
		}
		return parts[1] + tag + parts[3]
	})

	// Remaining dashes and underscores act as release separators.
	v = strings.ReplaceAll(v, "-", ".")
	v = strings.ReplaceAll(v, "_", ".")
	return v
}

// CompareVersions orders two safe versions segment-wise: numeric segments
// compare numerically, everything else lexicographically. Used only for
// marker evaluation (python_version < "3.9" and the like).
func CompareVersions(a, b string) int {
	as := strings.Split(SafeVersion(a), ".")
	bs := strings.Split(SafeVersion(b), ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		var sa, sb string
		if i < len(as) {
			sa = as[i]
		}
		if i < len(bs) {
			sb = bs[i]
		}
		na, errA := strconv.Atoi(sa)
		nb, errB := strconv.Atoi(sb)
		switch {
		case errA == nil && errB == nil:
			if na != nb {
				if na < nb {
					return -1
				}
				return 1
			}
		default:
			if sa != sb {
				return strings.Compare(sa, sb)
			}
		}
	}
	return 0
}
