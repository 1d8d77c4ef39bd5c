// Package textnorm provides the canonical text normalization used for
// matching queries against titles and verse text. The Local Store applies it
// once at import time (the search_text column) and the fallback scan applies
// it per poem, so both paths agree on what "contains" means.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks removes combining marks after NFD decomposition. This covers
// both Arabic-script diacritics (fatha, kasra, tashdid, ...) and Latin
// accents with the same transform.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// unifyPersian maps Arabic codepoints that appear interchangeably in Persian
// text onto their Persian forms, and ZWNJ onto a plain space.
var unifyPersian = strings.NewReplacer(
	"ي", "ی", // ARABIC YEH -> FARSI YEH
	"ى", "ی", // ALEF MAKSURA -> FARSI YEH
	"ك", "ک", // ARABIC KAF -> KEHEH
	"ة", "ه", // TEH MARBUTA -> HEH
	"‌", " ", // ZWNJ
)

// Normalize lowercases, unifies Persian letter variants, strips combining
// marks and collapses whitespace runs to single spaces.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = unifyPersian.Replace(s)
	if out, _, err := transform.String(stripMarks, s); err == nil {
		s = out
	}
	return strings.Join(strings.Fields(s), " ")
}

// Contains reports whether needle occurs in haystack after both are
// normalized.
func Contains(haystack, needle string) bool {
	return strings.Contains(Normalize(haystack), Normalize(needle))
}

// Words splits a query into normalized words.
func Words(q string) []string {
	return strings.Fields(Normalize(q))
}
