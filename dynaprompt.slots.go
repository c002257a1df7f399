package dynaprompt

import (
	"context"
	"regexp"
	"strings"

	"github.com/itsatony/go-dynaprompt/internal"
)

// slotPattern matches non-nested `{seed}` blocks
var slotPattern = regexp.MustCompile(`\{([^{}]+)\}`)

// Slot is a `{seed}` block waiting to be turned into a bracket group.
type Slot struct {
	Seed   string `json:"seed"`
	Offset int    `json:"offset"`
	Raw    string `json:"raw"`
}

// SlotVariator generates count alternative phrasings for a slot seed,
// using the full prompt as context. Implementations are typically backed by
// a text model.
type SlotVariator interface {
	Variations(ctx context.Context, prompt string, slot Slot, count int) ([]string, error)
}

// SlotVariatorFunc adapts a function to SlotVariator
type SlotVariatorFunc func(ctx context.Context, prompt string, slot Slot, count int) ([]string, error)

// Variations calls f
func (f SlotVariatorFunc) Variations(ctx context.Context, prompt string, slot Slot, count int) ([]string, error) {
	return f(ctx, prompt, slot, count)
}

// SlotVariations pairs a slot with the variations that replaced it
type SlotVariations struct {
	Seed       string   `json:"seed"`
	Variations []string `json:"variations"`
}

// SlotExpansion is the prompt after every slot became a bracket group
type SlotExpansion struct {
	OriginalPrompt string           `json:"originalPrompt"`
	ExpandedPrompt string           `json:"expandedPrompt"`
	Slots          []SlotVariations `json:"slots"`
	VariationCount int              `json:"variationCount"`
}

// ExtractSlots returns every non-nested `{seed}` block in source order
func ExtractSlots(prompt string) []Slot {
	locs := slotPattern.FindAllStringSubmatchIndex(prompt, -1)
	slots := make([]Slot, 0, len(locs))
	for _, loc := range locs {
		slots = append(slots, Slot{
			Seed:   prompt[loc[2]:loc[3]],
			Offset: loc[0],
			Raw:    prompt[loc[0]:loc[1]],
		})
	}
	return slots
}

// ValidateSlots rejects prompts with more than MaxSlotsPerPrompt blocks
func ValidateSlots(prompt string) error {
	if n := len(ExtractSlots(prompt)); n > MaxSlotsPerPrompt {
		return NewLimitExceededError(ErrMsgTooManySlots, n, MaxSlotsPerPrompt)
	}
	return nil
}

// ClampVariationCount bounds a requested variation count to [2, 5]
func ClampVariationCount(n int) int {
	return min(max(n, MinSlotVariations), MaxSlotVariations)
}

// ApplySlotVariations rewrites each slot into `[v1, v2, ...]`. Commas
// inside a variation become " and " so the result splits cleanly in the
// bracket expander. variations[i] belongs to slots[i].
func ApplySlotVariations(prompt string, slots []Slot, variations [][]string) (string, error) {
	if len(variations) != len(slots) {
		return "", NewSlotVariationsError(len(slots), len(variations), "")
	}

	var sb strings.Builder
	last := 0
	for i, slot := range slots {
		cleaned := cleanSlotVariations(variations[i])
		if len(cleaned) == 0 {
			return "", NewSlotVariationsError(1, 0, slot.Seed)
		}
		sb.WriteString(prompt[last:slot.Offset])
		sb.WriteByte(internal.CharBracketOpen)
		sb.WriteString(strings.Join(cleaned, OptionJoinSeparator))
		sb.WriteByte(internal.CharBracketClose)
		last = slot.Offset + len(slot.Raw)
	}
	sb.WriteString(prompt[last:])
	return sb.String(), nil
}

// ExpandSlots asks the variator for variations of every slot and applies
// them. A prompt without slots is returned unchanged.
func ExpandSlots(ctx context.Context, prompt string, variator SlotVariator, variationCount int) (*SlotExpansion, error) {
	count := ClampVariationCount(variationCount)
	result := &SlotExpansion{
		OriginalPrompt: prompt,
		ExpandedPrompt: prompt,
		Slots:          []SlotVariations{},
		VariationCount: count,
	}

	slots := ExtractSlots(prompt)
	if len(slots) == 0 {
		return result, nil
	}
	if err := ValidateSlots(prompt); err != nil {
		return nil, err
	}

	all := make([][]string, len(slots))
	for i, slot := range slots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vars, err := variator.Variations(ctx, prompt, slot, count)
		if err != nil {
			return nil, NewSlotVariatorError(slot.Seed, err)
		}
		all[i] = cleanSlotVariations(vars)
		result.Slots = append(result.Slots, SlotVariations{Seed: slot.Seed, Variations: all[i]})
	}

	expanded, err := ApplySlotVariations(prompt, slots, all)
	if err != nil {
		return nil, err
	}
	result.ExpandedPrompt = expanded
	return result, nil
}

// cleanSlotVariations trims variations, drops empties and replaces commas
func cleanSlotVariations(vars []string) []string {
	out := make([]string, 0, len(vars))
	for _, v := range vars {
		v = strings.TrimSpace(strings.ReplaceAll(v, internal.StrComma, SlotCommaReplacement))
		if v = collapseWhitespace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
