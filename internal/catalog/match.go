package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// matcher does case-insensitive substring search. Cyrillic store names are
// common, so folding goes through x/text rather than strings.ToLower.
type matcher struct {
	needle string
	fold   cases.Caser
}

func newMatcher(query string) *matcher {
	m := &matcher{fold: cases.Fold()}
	m.needle = m.normalize(query)
	return m
}

func (m *matcher) normalize(s string) string {
	return m.fold.String(norm.NFC.String(strings.TrimSpace(s)))
}

// match reports whether hay contains the query. An empty query matches all.
func (m *matcher) match(hay string) bool {
	if m.needle == "" {
		return true
	}
	return strings.Contains(m.normalize(hay), m.needle)
}
