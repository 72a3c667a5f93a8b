// Package fold normalises text for matching: lower-case, combining marks
// stripped, whitespace collapsed. "Feijão Preto" and "feijao  preto" fold
// to the same string.
package fold

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// String folds s. The result is safe to use as a substring key against
// other folded strings.
func String(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

// All folds every string in ss, dropping the ones that fold to empty.
func All(ss []string) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if f := String(s); f != "" {
			out = append(out, f)
		}
	}
	return out
}
