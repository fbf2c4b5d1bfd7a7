// Package textnorm provides the lexical normalization shared by scoring,
// similarity, and consistency checks. Matching is lexical, never semantic.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s and strips combining marks, so "Scoring Automático"
// and "scoring automatico" compare equal.
func Fold(s string) string {
	if s == "" {
		return ""
	}
	// Transformers carry state; build one per call so Fold is safe for concurrent use.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(folded)
}

// ContainsAny reports the first needle found as a substring of the folded
// haystack. Needles are folded too, so callers may write them with accents.
func ContainsAny(haystack string, needles []string) (string, bool) {
	h := Fold(haystack)
	if h == "" {
		return "", false
	}
	for _, n := range needles {
		fn := Fold(n)
		if fn != "" && strings.Contains(h, fn) {
			return n, true
		}
	}
	return "", false
}

// TagSet folds, trims, and deduplicates tags into a set.
// Empty tags are dropped.
func TagSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		folded := strings.TrimSpace(Fold(t))
		if folded == "" {
			continue
		}
		set[folded] = struct{}{}
	}
	return set
}

// Words splits folded text into runs of letters. Digits and punctuation
// separate words and are discarded.
func Words(s string) []string {
	return strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}
