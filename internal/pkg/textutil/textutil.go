// Package textutil provides string matching utilities for the catalogue search.
package textutil

import "strings"

// Fold normalises a string for case-insensitive comparison and index keys.
func Fold(s string) string {
	return strings.ToLower(s)
}

// Levenshtein computes the edit distance between a and b, counting
// insertions, deletions and substitutions at cost 1 each.
// Complexity is O(len(a)*len(b)); fine for an interactive, in-memory catalogue.
func Levenshtein(a, b string) int {
	if a == b {
		return 0
	}

	// Two-row DP over the full strings.
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
