package internal

import (
	"sort"
	"strings"
)

// Suggestion defaults
const (
	DefaultMaxSuggestions = 3
	minSuggestionDistance = 2
)

// NameLister is an optional interface that wildcard lookups can implement
// to support "did you mean?" suggestions for missing names.
type NameLister interface {
	// Names returns every wildcard name the lookup knows.
	Names() []string
}

// FindSimilarStrings finds candidates similar to target, closest first.
// Matching is case-insensitive; the distance threshold is half the target
// length, but never below two edits.
func FindSimilarStrings(target string, candidates []string, maxSuggestions int) []string {
	if len(candidates) == 0 || maxSuggestions <= 0 {
		return nil
	}

	maxDistance := max(len(target)/2, minSuggestionDistance)

	type scored struct {
		str      string
		distance int
	}

	var similar []scored
	targetLower := strings.ToLower(target)
	for _, candidate := range candidates {
		if candidate == target {
			continue
		}
		dist := levenshteinDistance(targetLower, strings.ToLower(candidate))
		if dist <= maxDistance {
			similar = append(similar, scored{str: candidate, distance: dist})
		}
	}

	sort.SliceStable(similar, func(i, j int) bool {
		return similar[i].distance < similar[j].distance
	})

	result := make([]string, 0, min(len(similar), maxSuggestions))
	for i := 0; i < len(similar) && i < maxSuggestions; i++ {
		result = append(result, similar[i].str)
	}
	return result
}

// levenshteinDistance is the minimum number of single-byte insertions,
// deletions or substitutions turning a into b.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Two rolling rows are enough.
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

// FormatSuggestions renders suggestions using the given wrapper around each
// candidate, e.g. "Did you mean _hero_ or _heroes_?"
func FormatSuggestions(suggestions []string, wrap string) string {
	if len(suggestions) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Did you mean ")
	for i, s := range suggestions {
		if i > 0 {
			if i == len(suggestions)-1 {
				sb.WriteString(" or ")
			} else {
				sb.WriteString(", ")
			}
		}
		sb.WriteString(wrap)
		sb.WriteString(s)
		sb.WriteString(wrap)
	}
	sb.WriteByte('?')
	return sb.String()
}
