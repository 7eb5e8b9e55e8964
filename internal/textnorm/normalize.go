// Package textnorm folds free-text mention strings into the lookup form
// shared by the alias index, the region index and the geography config.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Fold lowercases, trims and strips diacritics. The same fold must be
// applied to stored aliases and to lookups, or recall degrades silently.
func Fold(raw string) string {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return ""
	}
	folded, _, err := transform.String(stripMarks, trimmed)
	if err != nil {
		return trimmed
	}
	return folded
}

// FoldAll folds every value, dropping entries that fold to empty.
func FoldAll(values []string) []string {
	folded := make([]string, 0, len(values))
	for _, value := range values {
		if f := Fold(value); f != "" {
			folded = append(folded, f)
		}
	}
	return folded
}
