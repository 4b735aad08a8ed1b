// Package resolve maps a user-supplied version fragment to a single
// installation record.
package resolve

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"

	"phpswitcher/internal/registry"
	"phpswitcher/internal/version"
)

// NoMatchError reports a query that matched no installed version. It carries
// the installed candidates and ranked suggestions so the caller can help the
// user refine the query.
type NoMatchError struct {
	Query       string
	Candidates  []registry.Record
	Suggestions []string
}

func (e *NoMatchError) Error() string {
	if len(e.Suggestions) > 0 {
		return fmt.Sprintf("no installed PHP matches %q (did you mean %s?)", e.Query, strings.Join(e.Suggestions, ", "))
	}
	return fmt.Sprintf("no installed PHP matches %q", e.Query)
}

// AmbiguousError reports two or more records sharing the identical full
// version at distinct paths; the caller must disambiguate by path or source.
type AmbiguousError struct {
	Query   string
	Matches []registry.Record
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%d installations share version matching %q; disambiguate by path", len(e.Matches), e.Query)
}

// Resolve maps query to exactly one record in reg.
//
// An empty query resolves to the default version setting if present, else to
// the highest installed version. A prefix query matching several versions
// deterministically picks the greatest; AmbiguousError is reserved for
// identical full versions at different paths.
func Resolve(reg *registry.Registry, query string) (registry.Record, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		if def := reg.Settings.DefaultVersion; def != "" {
			return Resolve(reg, def)
		}
		all := reg.All()
		if len(all) == 0 {
			return registry.Record{}, &NoMatchError{Query: "latest"}
		}
		return pick(query, all)
	}

	q, err := version.Parse(query)
	if err != nil {
		return registry.Record{}, err
	}

	var matches []registry.Record
	for _, rec := range reg.All() {
		if version.MatchesPrefix(q, rec.Version) {
			matches = append(matches, rec)
		}
	}
	if len(matches) == 0 {
		return registry.Record{}, &NoMatchError{
			Query:       query,
			Candidates:  reg.All(),
			Suggestions: suggest(query, reg.All()),
		}
	}
	return pick(query, matches)
}

// pick selects the greatest version among matches. All() already orders
// version-descending, so the head is the winner; a duplicate of the winning
// full version at another path is the one genuinely ambiguous case.
func pick(query string, matches []registry.Record) (registry.Record, error) {
	best := matches[0]
	var dupes []registry.Record
	for _, m := range matches {
		if version.Compare(m.Version, best.Version) == 0 {
			dupes = append(dupes, m)
		}
	}
	if len(dupes) > 1 {
		return registry.Record{}, &AmbiguousError{Query: query, Matches: dupes}
	}
	return best, nil
}

// suggest ranks installed version strings against the failed query.
func suggest(query string, all []registry.Record) []string {
	var haystack []string
	seen := make(map[string]bool)
	for _, rec := range all {
		s := rec.Version.String()
		if !seen[s] {
			seen[s] = true
			haystack = append(haystack, s)
		}
	}
	ranked := fuzzy.Find(query, haystack)
	var out []string
	for i := 0; i < len(ranked) && i < 3; i++ {
		out = append(out, ranked[i].Str)
	}
	return out
}
