package dynaprompt

import (
	"slices"

	"github.com/itsatony/go-dynaprompt/internal"
	"golang.org/x/text/cases"
)

// referenceCategories are the tags that select a random reference from a
// whole category instead of a specific tagged image.
var referenceCategories = []string{
	ReferenceCategoryPeople,
	ReferenceCategoryPlaces,
	ReferenceCategoryProps,
	ReferenceCategoryLayouts,
}

// ReferenceTags are the `@tag` references of a prompt, case folded and
// de-duplicated in first-seen order. Tags are stored without the `@`.
type ReferenceTags struct {
	All      []string `json:"all"`
	Specific []string `json:"specific"`
	Category []string `json:"category"`
}

// HasReferences reports whether any reference was found
func (r ReferenceTags) HasReferences() bool {
	return len(r.All) > 0
}

// IsReferenceCategory reports whether a folded tag names a category
func IsReferenceCategory(tag string) bool {
	return slices.Contains(referenceCategories, tag)
}

// ParseReferenceTags collects `@tag` references using the same matching
// rule as the tokenizer, so `@!` and `@9` are never references.
func ParseReferenceTags(prompt string) ReferenceTags {
	folder := cases.Fold()
	tags := ReferenceTags{
		All:      []string{},
		Specific: []string{},
		Category: []string{},
	}

	for i := 0; i < len(prompt); i++ {
		if prompt[i] != internal.CharAt {
			continue
		}
		if i+1 < len(prompt) && prompt[i+1] == internal.CharBang {
			i++
			continue
		}
		n := internal.MatchReferenceAt(prompt, i)
		if n == 0 {
			continue
		}

		tag := folder.String(prompt[i+1 : i+n])
		i += n - 1
		if slices.Contains(tags.All, tag) {
			continue
		}
		tags.All = append(tags.All, tag)
		if IsReferenceCategory(tag) {
			tags.Category = append(tags.Category, tag)
		} else {
			tags.Specific = append(tags.Specific, tag)
		}
	}

	return tags
}
