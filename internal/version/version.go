// Package version parses and orders PHP version identifiers.
//
// A Version is either a concrete installation version (all three numeric
// components known, as reported by `php -v`) or a user query, which may
// supply only a prefix of the components ("8", "8.2"). Specificity records
// how many components the user actually supplied; concrete versions always
// carry full specificity.
package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Version is a parsed version identifier.
type Version struct {
	Major int
	Minor int
	Patch int
	// Tag is the optional pre-release/build suffix ("dev" in "8.4.0-dev").
	Tag string
	// Specificity is the number of numeric components that were supplied
	// when the Version was parsed (1–3).
	Specificity int
}

// ParseError reports a version string that could not be parsed.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed version %q: %s", e.Input, e.Reason)
}

// phpOutputRe extracts the version from `php -v` output,
// e.g. "PHP 8.2.12 (cli) (built: ...)" or "PHP 8.4.0-dev (cli)".
var phpOutputRe = regexp.MustCompile(`PHP\s+(\d+)\.(\d+)\.(\d+)(?:-([0-9A-Za-z._+]+))?`)

// Parse parses a version string with 1–3 dot-separated numeric components
// and an optional trailing "-<tag>". A leading "v" is stripped, not stored.
func Parse(text string) (Version, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return Version{}, &ParseError{Input: text, Reason: "empty string"}
	}
	s = strings.TrimPrefix(s, "v")

	var tag string
	if idx := strings.IndexByte(s, '-'); idx != -1 {
		tag = s[idx+1:]
		s = s[:idx]
		if tag == "" {
			return Version{}, &ParseError{Input: text, Reason: "empty tag after '-'"}
		}
	}

	parts := strings.Split(s, ".")
	if len(parts) > 3 {
		return Version{}, &ParseError{Input: text, Reason: "more than three components"}
	}

	v := Version{Tag: tag, Specificity: len(parts)}
	for i, p := range parts {
		if p == "" {
			return Version{}, &ParseError{Input: text, Reason: "empty component"}
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, &ParseError{Input: text, Reason: fmt.Sprintf("component %q is not a non-negative integer", p)}
		}
		switch i {
		case 0:
			v.Major = n
		case 1:
			v.Minor = n
		case 2:
			v.Patch = n
		}
	}
	return v, nil
}

// FromOutput extracts a concrete Version from `php -v` output.
func FromOutput(output string) (Version, error) {
	m := phpOutputRe.FindStringSubmatch(output)
	if m == nil {
		return Version{}, &ParseError{Input: firstLine(output), Reason: "no PHP version in output"}
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	patch, _ := strconv.Atoi(m[3])
	return Version{Major: major, Minor: minor, Patch: patch, Tag: m[4], Specificity: 3}, nil
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx != -1 {
		return strings.TrimSpace(s[:idx])
	}
	return strings.TrimSpace(s)
}

// Compare orders two versions by their numeric components.
// It returns -1 if a < b, 0 if equal, +1 if a > b. Tags do not participate
// in ordering.
func Compare(a, b Version) int {
	if c := cmpInt(a.Major, b.Major); c != 0 {
		return c
	}
	if c := cmpInt(a.Minor, b.Minor); c != 0 {
		return c
	}
	return cmpInt(a.Patch, b.Patch)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// MatchesPrefix reports whether every component the query supplies equals the
// corresponding component of concrete, left to right. A query with more
// components than the concrete value never matches.
func MatchesPrefix(query, concrete Version) bool {
	if query.Specificity > concrete.Specificity {
		return false
	}
	if query.Major != concrete.Major {
		return false
	}
	if query.Specificity >= 2 && query.Minor != concrete.Minor {
		return false
	}
	if query.Specificity >= 3 && query.Patch != concrete.Patch {
		return false
	}
	return true
}

// Equal reports full component-wise equality including the tag.
func Equal(a, b Version) bool {
	return Compare(a, b) == 0 && a.Tag == b.Tag
}

// String renders the supplied components, e.g. "8.2" for a two-component
// query and "8.2.12" for a concrete version.
func (v Version) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d", v.Major)
	if v.Specificity >= 2 {
		fmt.Fprintf(&b, ".%d", v.Minor)
	}
	if v.Specificity >= 3 {
		fmt.Fprintf(&b, ".%d", v.Patch)
	}
	if v.Tag != "" {
		fmt.Fprintf(&b, "-%s", v.Tag)
	}
	return b.String()
}

// Short returns the major.minor form, e.g. "8.2" for 8.2.12.
func (v Version) Short() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}
