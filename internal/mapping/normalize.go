// Package mapping suggests field mappings for partner sample records. The
// heuristic engine here needs no network access; the inference package
// offers a model-backed alternative behind the same MappingSet output.
package mapping

import (
	"strings"
	"unicode"
)

// NormalizeFieldName produces the canonical form of a partner column name
// used for cache keys and display: byte-order marks and NULs removed,
// whitespace and underscores turned into dots, dot runs collapsed.
func NormalizeFieldName(name string) string {
	s := strings.ReplaceAll(name, "\uFEFF", "")
	s = strings.ReplaceAll(s, "\x00", "")
	s = strings.TrimSpace(s)

	var b strings.Builder
	b.Grow(len(s))
	prevDot := false
	for _, r := range s {
		if unicode.IsSpace(r) || r == '_' || r == '.' {
			if !prevDot {
				b.WriteByte('.')
				prevDot = true
			}
			continue
		}
		b.WriteRune(r)
		prevDot = false
	}
	return strings.Trim(b.String(), ".")
}

// matchKey reduces a name to lowercase alphanumerics so that "AWB Number",
// "awb_number" and "AWBNumber" all compare equal.
func matchKey(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
