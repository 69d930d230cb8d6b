// Package keys canonicalizes free-text production-line and project
// identifiers so rows from differently-authored sources compare equal.
package keys

import (
	"strings"
)

// LineCode normalizes a raw production-line identifier into its canonical
// form: NBSP stripped, trimmed, uppercased, internal whitespace collapsed,
// whitespace and hyphens folded to underscores, repeated underscores
// collapsed. Two raw strings that normalize identically are the same line.
// Empty or whitespace-only input yields "" which callers treat as "no key".
func LineCode(raw string) string {
	s := strings.ReplaceAll(raw, " ", " ")
	s = strings.TrimSpace(s)
	s = strings.ToUpper(s)
	s = collapseSpaces(s)
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '-' {
			return '_'
		}
		return r
	}, s)
	return collapseRuns(s, '_')
}

// Descriptor normalizes descriptive project/model text for matching. On top
// of the LineCode rules it first canonicalizes separator punctuation so that
// "CD / CTE" and "CD/CTE" compare equal. Keep this distinct from LineCode:
// line codes never carry slashes, descriptors often do.
func Descriptor(raw string) string {
	s := strings.ReplaceAll(raw, " ", " ")
	for _, sep := range []string{"/", "&", "-"} {
		s = strings.ReplaceAll(s, sep, " "+sep+" ")
	}
	s = strings.TrimSpace(s)
	s = strings.ToUpper(s)
	s = collapseSpaces(s)
	return s
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func collapseRuns(s string, r rune) string {
	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	for i, c := range s {
		if c == r && prev == r && i > 0 {
			continue
		}
		b.WriteRune(c)
		prev = c
	}
	return b.String()
}
