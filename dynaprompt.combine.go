package dynaprompt

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/itsatony/go-dynaprompt/internal"
)

// Warning formats
const (
	FmtTooManyOptions     = "%s: %d. Maximum is %d."
	FmtTooManyCombined    = "%s: %d exceeds the limit of %d by %d (segments: %s)"
	FmtMissingWildcards   = "%s: %s"
	FmtWildcardSelection  = "Random selection from: %s"
	FmtWildcardOption     = "%s (%d option)"
	FmtWildcardOptions    = "%s (%d options)"
	whitespaceJoinSpacing = " "
)

// planFailure is a rejected plan: a typed error plus the user-facing text.
type planFailure struct {
	kind       ErrorKind
	err        error
	warning    string
	suggestion string
	attempted  int
	limit      int
}

// planSegment is one pipe step (or the whole prompt when no pipes apply).
type planSegment struct {
	text     string
	options  []string // bracket options; nil when the segment has no group
	variants []string // expanded strings of the segment
}

// syntaxPlan is the interpretation of a wildcard-free prompt under a config.
// Validation and expansion share it so both agree on every count and limit.
type syntaxPlan struct {
	mode          string
	hasBrackets   bool
	hasPipes      bool
	segments      []planSegment
	segmentCounts []int
	total         int
	failure       *planFailure
}

// planPrompt interprets bracket and pipe syntax. Checks run in priority
// order: bracket balance, multiple groups, empty brackets, empty pipes,
// then the option and combination limits.
func planPrompt(prompt string, cfg ExpansionConfig) *syntaxPlan {
	bracketOn := cfg.Enabled(SyntaxBracket)
	pipeOn := cfg.Enabled(SyntaxPipe)

	plan := &syntaxPlan{
		hasPipes: pipeOn && strings.Contains(prompt, internal.StrPipe),
	}

	// Pipes split naively: a `|` always starts a new step.
	texts := []string{prompt}
	if plan.hasPipes {
		texts = splitPipeSegments(prompt, cfg.TrimWhitespace)
	}

	if bracketOn {
		for _, text := range texts {
			if f := checkBracketBalance(text); f != nil {
				plan.failure = f
				return plan
			}
		}
	}

	groups := make([][]internal.Span, len(texts))
	if bracketOn {
		for i, text := range texts {
			groups[i] = internal.TopLevelBracketGroups(text)
			if len(groups[i]) > 1 {
				plan.failure = structuralFailure(ErrMsgMultipleBrackets, internal.HintMultipleBrackets)
				return plan
			}
			if len(groups[i]) == 1 {
				plan.hasBrackets = true
			}
		}
	}

	plan.segments = make([]planSegment, len(texts))
	for i, text := range texts {
		seg := planSegment{text: text}
		if len(groups[i]) == 1 {
			seg.options = bracketOptions(text, groups[i][0])
			if len(seg.options) == 0 {
				plan.failure = structuralFailure(ErrMsgEmptyBrackets, internal.HintEmptyBrackets)
				return plan
			}
			seg.variants = substituteOptions(text, groups[i][0], seg.options, cfg.TrimWhitespace)
		} else {
			seg.variants = []string{text}
		}
		plan.segments[i] = seg
	}

	if plan.hasPipes && len(plan.segments) == 0 {
		plan.failure = structuralFailure(ErrMsgEmptyPipes, internal.HintEmptyPipes)
		return plan
	}

	for _, seg := range plan.segments {
		if len(seg.options) > cfg.MaxOptionsPerGroup {
			plan.failure = optionLimitFailure(ErrMsgTooManyBracketOptions, len(seg.options), cfg.MaxOptionsPerGroup)
			return plan
		}
	}

	switch {
	case plan.hasPipes && plan.hasBrackets:
		plan.mode = ModeNameCombined
		plan.segmentCounts = make([]int, len(plan.segments))
		plan.total = 1
		for i, seg := range plan.segments {
			plan.segmentCounts[i] = len(seg.variants)
			plan.total = saturatingMul(plan.total, len(seg.variants))
		}
		if plan.total > cfg.MaxTotalCombinedImages {
			plan.failure = combinedLimitFailure(plan.total, cfg.MaxTotalCombinedImages, plan.segmentCounts)
		}
	case plan.hasPipes:
		plan.mode = ModeNamePipe
		plan.total = len(plan.segments)
		if plan.total > cfg.MaxOptionsPerGroup {
			plan.failure = optionLimitFailure(ErrMsgTooManyPipeVariations, plan.total, cfg.MaxOptionsPerGroup)
		}
	case plan.hasBrackets:
		plan.mode = ModeNameBracket
		plan.total = len(plan.segments[0].options)
	default:
		plan.mode = ModeNamePlain
		plan.total = 1
	}

	return plan
}

// prompts materializes the outputs of a valid plan. Combined plans are
// enumerated segment-major and rejoined with " | ".
func (p *syntaxPlan) prompts() []string {
	switch p.mode {
	case ModeNameCombined:
		lists := make([][]string, len(p.segments))
		for i, seg := range p.segments {
			lists[i] = seg.variants
		}
		out := make([]string, 0, p.total)
		forEachCombination(lists, func(combo []string) bool {
			out = append(out, strings.Join(combo, PipeJoinSeparator))
			return true
		})
		return out
	case ModeNamePipe:
		out := make([]string, len(p.segments))
		for i, seg := range p.segments {
			out[i] = seg.text
		}
		return out
	default:
		return append([]string(nil), p.segments[0].variants...)
	}
}

// options returns the user-visible choices: bracket options, or pipe steps.
func (p *syntaxPlan) options() []string {
	switch p.mode {
	case ModeNameBracket:
		return append([]string(nil), p.segments[0].options...)
	case ModeNamePipe:
		return p.prompts()
	case ModeNameCombined:
		var opts []string
		for _, seg := range p.segments {
			opts = append(opts, seg.options...)
		}
		return opts
	default:
		return nil
	}
}

// splitPipeSegments splits on every `|`, trimming when configured. Empty
// segments are always dropped.
func splitPipeSegments(prompt string, trim bool) []string {
	parts := strings.Split(prompt, internal.StrPipe)
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if trim {
			part = strings.TrimSpace(part)
		}
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}

// checkBracketBalance compares opener and closer counts, then ordering:
// a `]` before any open `[` means the opener is missing.
func checkBracketBalance(text string) *planFailure {
	opens := strings.Count(text, string(rune(internal.CharBracketOpen)))
	closes := strings.Count(text, string(rune(internal.CharBracketClose)))
	switch {
	case opens > closes:
		return structuralFailure(ErrMsgMissingClosingBracket, internal.HintMissingClosingBracket)
	case closes > opens:
		return structuralFailure(ErrMsgMissingOpeningBracket, internal.HintMissingOpeningBracket)
	}

	depth := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case internal.CharBracketOpen:
			depth++
		case internal.CharBracketClose:
			depth--
			if depth < 0 {
				return structuralFailure(ErrMsgMissingOpeningBracket, internal.HintMissingOpeningBracket)
			}
		}
	}
	return nil
}

// bracketOptions splits a group's interior on top-level commas, trimmed,
// empties dropped.
func bracketOptions(text string, group internal.Span) []string {
	interior := text[group.Start+1 : group.End-1]
	parts := internal.SplitTopLevel(interior, internal.CharComma)
	options := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			options = append(options, part)
		}
	}
	return options
}

// substituteOptions renders before + option + after for every option
func substituteOptions(text string, group internal.Span, options []string, collapse bool) []string {
	before, after := text[:group.Start], text[group.End:]
	out := make([]string, len(options))
	for i, opt := range options {
		s := before + opt + after
		if collapse {
			s = collapseWhitespace(s)
		}
		out[i] = s
	}
	return out
}

// collapseWhitespace folds whitespace runs into single spaces and trims
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), whitespaceJoinSpacing)
}

func structuralFailure(msg, hint string) *planFailure {
	return &planFailure{
		kind:       KindStructuralSyntax,
		err:        NewStructuralSyntaxError(msg),
		warning:    msg,
		suggestion: hint,
	}
}

func optionLimitFailure(msg string, attempted, limit int) *planFailure {
	return &planFailure{
		kind:       KindLimitExceeded,
		err:        NewLimitExceededError(msg, attempted, limit),
		warning:    fmt.Sprintf(FmtTooManyOptions, msg, attempted, limit),
		suggestion: internal.HintTooManyOptions,
		attempted:  attempted,
		limit:      limit,
	}
}

func combinedLimitFailure(total, limit int, segmentCounts []int) *planFailure {
	counts := formatSegmentCounts(segmentCounts)
	// total saturates; the message states the exact product
	exact := exactCount(ModeNameCombined, total, segmentCounts)
	over := new(big.Int).Sub(exact, big.NewInt(int64(limit)))
	return &planFailure{
		kind:       KindLimitExceeded,
		err:        NewCombinedLimitError(exact, limit, counts),
		warning:    fmt.Sprintf(FmtTooManyCombined, ErrMsgTooManyCombined, exact, limit, over, counts),
		suggestion: internal.HintTooManyCombinations,
		attempted:  total,
		limit:      limit,
	}
}
