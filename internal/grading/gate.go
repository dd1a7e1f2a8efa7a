// Package grading implements the two-stage answer scoring pipeline: a local
// keyword gate followed by batched external scoring.
package grading

import (
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// CountMatches counts how many keywords appear in the answer as substrings.
// Both sides are folded to narrow forms, stripped of all whitespace, and
// lower-cased first, so the count is stable under spacing, casing, and
// fullwidth/halfwidth variation. An empty answer or keyword list counts zero.
func CountMatches(answer string, keywords []string) int {
	if answer == "" || len(keywords) == 0 {
		return 0
	}

	normalized := normalizeForMatch(answer)
	count := 0
	for _, k := range keywords {
		k = normalizeForMatch(k)
		if k != "" && strings.Contains(normalized, k) {
			count++
		}
	}
	return count
}

func normalizeForMatch(s string) string {
	s = width.Fold.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return strings.ToLower(s)
}
