package match

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Similarity returns a case-insensitive ratio in [0,1] derived from the
// Levenshtein distance: 1 - dist/max(len(a), len(b)), lengths in runes.
// Two empty strings are identical (1.0); one empty string scores 0.0.
func Similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	// Casers are stateful, so each call gets its own.
	lower := cases.Lower(language.Und)
	ra := []rune(lower.String(a))
	rb := []rune(lower.String(b))

	maxLen := max(len(ra), len(rb))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(Levenshtein(ra, rb))/float64(maxLen)
}

// Levenshtein computes the classic edit distance between a and b, where
// insertion, deletion and substitution each cost 1.
func Levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
