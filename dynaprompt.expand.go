package dynaprompt

import (
	"fmt"
	"strings"

	"github.com/itsatony/go-dynaprompt/internal"
	"go.uber.org/zap"
)

// ExpansionResult is the outcome of one expansion. A rejected prompt is
// reported with IsValid=false and no prompts, never with a Go error.
type ExpansionResult struct {
	IsValid              bool      `json:"isValid"`
	HasBrackets          bool      `json:"hasBrackets"`
	HasPipes             bool      `json:"hasPipes"`
	HasWildcards         bool      `json:"hasWildcards"`
	ExpandedPrompts      []string  `json:"expandedPrompts"`
	TotalCount           int       `json:"totalCount"`
	PreviewCount         int       `json:"previewCount"`
	Warnings             []string  `json:"warnings"`
	CreditCost           int       `json:"creditCost"`
	BreakdownDescription string    `json:"breakdownDescription"`
	OriginalPrompt       string    `json:"originalPrompt"`
	ResolvedPrompt       string    `json:"resolvedPrompt,omitempty"`
	Options              []string  `json:"options,omitempty"`
	WildcardNames        []string  `json:"wildcardNames,omitempty"`
	WildcardCombinations int       `json:"wildcardCombinations,omitempty"`
	SegmentCounts        []int     `json:"segmentCounts,omitempty"`
	AttemptedCount       int       `json:"attemptedCount,omitempty"`
	Limit                int       `json:"limit,omitempty"`
	Suggestion           string    `json:"suggestion,omitempty"`
	Kind                 ErrorKind `json:"kind"`
	Mode                 string    `json:"mode,omitempty"`
	Err                  error     `json:"-"`
}

// Preview returns the first PreviewCount prompts
func (r *ExpansionResult) Preview() []string {
	if r.PreviewCount >= len(r.ExpandedPrompts) {
		return r.ExpandedPrompts
	}
	return r.ExpandedPrompts[:r.PreviewCount]
}

// Sequential reports whether the prompts form a chain: each step's output
// feeds the next, so they must be submitted and awaited in order.
func (r *ExpansionResult) Sequential() bool {
	return r.HasPipes
}

// Expand resolves wildcards once and expands bracket and pipe syntax.
// A nil lookup treats every wildcard as missing.
func Expand(prompt string, cfg ExpansionConfig, lookup WildcardLookup) *ExpansionResult {
	return expand(prompt, cfg, lookup, DefaultPicker, nil, zap.NewNop())
}

// ExpandWithSurcharges is Expand with extra flat costs added to CreditCost.
func ExpandWithSurcharges(prompt string, cfg ExpansionConfig, lookup WildcardLookup, surcharges ...Surcharge) *ExpansionResult {
	return expand(prompt, cfg, lookup, DefaultPicker, surcharges, zap.NewNop())
}

func expand(prompt string, cfg ExpansionConfig, lookup WildcardLookup, pick Picker, surcharges []Surcharge, logger *zap.Logger) *ExpansionResult {
	logger.Debug(LogMsgExpandStart, zap.Int(LogFieldPromptLength, len(prompt)))

	result := &ExpansionResult{
		OriginalPrompt:  prompt,
		ExpandedPrompts: []string{},
		Warnings:        []string{},
	}

	resolved := prompt
	if cfg.Enabled(SyntaxWildcard) {
		names := ExtractWildcardNames(prompt)
		if len(names) > 0 {
			result.HasWildcards = true
			result.WildcardNames = names

			var missing []string
			resolved, missing = NewWildcardResolver(lookup, pick).ResolveOnce(prompt)
			if len(missing) > 0 {
				logger.Debug(LogMsgWildcardsMissing, zap.Strings(LogFieldMissing, missing))
				return rejectMissingWildcards(result, missing, lookup)
			}

			result.WildcardCombinations = CountWildcardCombinations(names, lookup)
			result.Warnings = append(result.Warnings,
				fmt.Sprintf(FmtWildcardSelection, describeWildcardOptions(names, lookup)))
			logger.Debug(LogMsgWildcardsResolved, zap.Strings(LogFieldNames, names))
		}
	}
	result.ResolvedPrompt = resolved

	// Substituted values may add or remove delimiters, so detection runs
	// again on the resolved text.
	plan := planPrompt(resolved, cfg)
	result.HasBrackets = plan.hasBrackets
	result.HasPipes = plan.hasPipes
	result.Mode = plan.mode
	result.SegmentCounts = plan.segmentCounts

	if plan.failure != nil {
		rejectPlan(result, plan, cfg, surcharges)
		logger.Debug(LogMsgExpandInvalid,
			zap.String(LogFieldKind, result.Kind.String()),
			zap.Int(LogFieldCount, result.AttemptedCount),
			zap.Int(LogFieldLimit, result.Limit))
		return result
	}

	result.IsValid = true
	result.ExpandedPrompts = plan.prompts()
	result.Options = plan.options()
	result.TotalCount = len(result.ExpandedPrompts)
	result.PreviewCount = min(result.TotalCount, max(cfg.MaxPreviewCount, 0))
	result.CreditCost = CalculateCost(result.TotalCount, cfg.CreditsPerImage, surcharges...)
	result.BreakdownDescription = describeCost(plan.mode, result.TotalCount, cfg.CreditsPerImage, plan.segmentCounts, surcharges)

	logger.Debug(LogMsgExpandEnd,
		zap.String(LogFieldMode, plan.mode),
		zap.Int(LogFieldCount, result.TotalCount))
	return result
}

// rejectMissingWildcards fails the expansion naming every missing tag
func rejectMissingWildcards(result *ExpansionResult, missing []string, lookup WildcardLookup) *ExpansionResult {
	tags := make([]string, len(missing))
	for i, name := range missing {
		tags[i] = WildcardTag(name)
	}

	result.Kind = KindMissingWildcard
	result.Err = NewMissingWildcardError(missing)
	result.Warnings = append(result.Warnings,
		fmt.Sprintf(FmtMissingWildcards, ErrMsgMissingWildcards, strings.Join(tags, ListJoinSeparator)))
	result.Suggestion = suggestWildcards(missing, lookup)
	return result
}

// suggestWildcards proposes known names close to the first missing name
// that has any. Falls back to the generic hint.
func suggestWildcards(missing []string, lookup WildcardLookup) string {
	if lister, ok := lookup.(internal.NameLister); ok {
		names := lister.Names()
		for _, name := range missing {
			similar := internal.FindSimilarStrings(name, names, internal.DefaultMaxSuggestions)
			if len(similar) > 0 {
				return internal.FormatSuggestions(similar, WildcardWrap)
			}
		}
	}
	return internal.HintMissingWildcard
}

// rejectPlan copies a plan failure into the result. A combined plan over
// its limit still reports what it would have cost.
func rejectPlan(result *ExpansionResult, plan *syntaxPlan, cfg ExpansionConfig, surcharges []Surcharge) {
	f := plan.failure
	result.Kind = f.kind
	result.Err = f.err
	result.Warnings = append(result.Warnings, f.warning)
	result.Suggestion = f.suggestion
	result.AttemptedCount = f.attempted
	result.Limit = f.limit

	if plan.mode == ModeNameCombined {
		result.CreditCost = CalculateCost(plan.total, cfg.CreditsPerImage, surcharges...)
		result.BreakdownDescription = describeCost(plan.mode, plan.total, cfg.CreditsPerImage, plan.segmentCounts, surcharges)
	}
}
