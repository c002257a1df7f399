package dynaprompt

import (
	"math"
	"strings"
	"testing"

	"github.com/itsatony/go-dynaprompt/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand_NoSyntax(t *testing.T) {
	prompts := []string{
		"a quiet lake at dawn",
		"file_name_here on a desk",
		"",
		"snake_case and under_score words",
	}

	for _, p := range prompts {
		t.Run(p, func(t *testing.T) {
			result := Expand(p, DefaultExpansionConfig(), nil)
			require.True(t, result.IsValid)
			assert.Equal(t, 1, result.TotalCount)
			assert.Equal(t, []string{p}, result.ExpandedPrompts)
			assert.Equal(t, ModeNamePlain, result.Mode)
			assert.False(t, result.HasBrackets)
			assert.False(t, result.HasPipes)
			assert.False(t, result.HasWildcards)
			assert.Equal(t, 20, result.CreditCost)
			assert.Equal(t, "1 image × 20 credits = 20 credits", result.BreakdownDescription)
			assert.Empty(t, result.Warnings)
			assert.NotNil(t, result.Warnings)
		})
	}
}

func TestExpand_Bracket(t *testing.T) {
	t.Run("arity and order", func(t *testing.T) {
		result := Expand("X [a,b,c] Y", DefaultExpansionConfig(), nil)
		require.True(t, result.IsValid)
		assert.Equal(t, []string{"X a Y", "X b Y", "X c Y"}, result.ExpandedPrompts)
		assert.Equal(t, 3, result.TotalCount)
		assert.True(t, result.HasBrackets)
		assert.False(t, result.HasPipes)
		assert.Equal(t, ModeNameBracket, result.Mode)
		assert.Equal(t, []string{"a", "b", "c"}, result.Options)
		assert.Equal(t, 60, result.CreditCost)
		assert.Equal(t, "3 bracket options × 20 credits = 60 credits", result.BreakdownDescription)
	})

	t.Run("options are trimmed and whitespace collapsed", func(t *testing.T) {
		result := Expand("X [ a , b ]  Y", DefaultExpansionConfig(), nil)
		require.True(t, result.IsValid)
		assert.Equal(t, []string{"X a Y", "X b Y"}, result.ExpandedPrompts)
	})

	t.Run("whitespace kept when trimming is off", func(t *testing.T) {
		cfg := DefaultExpansionConfig()
		cfg.TrimWhitespace = false
		result := Expand("X [a, b]  Y", cfg, nil)
		require.True(t, result.IsValid)
		assert.Equal(t, []string{"X a  Y", "X b  Y"}, result.ExpandedPrompts)
	})

	t.Run("empty options dropped", func(t *testing.T) {
		result := Expand("a [red,,blue,] car", DefaultExpansionConfig(), nil)
		require.True(t, result.IsValid)
		assert.Equal(t, []string{"a red car", "a blue car"}, result.ExpandedPrompts)
	})

	t.Run("nested group is one option", func(t *testing.T) {
		result := Expand("a [b [c, d], e]", DefaultExpansionConfig(), nil)
		require.True(t, result.IsValid)
		assert.Equal(t, []string{"a b [c, d]", "a e"}, result.ExpandedPrompts)
	})

	t.Run("single option", func(t *testing.T) {
		result := Expand("a [red] car", DefaultExpansionConfig(), nil)
		require.True(t, result.IsValid)
		assert.Equal(t, []string{"a red car"}, result.ExpandedPrompts)
	})
}

func TestExpand_Pipe(t *testing.T) {
	t.Run("arity and order", func(t *testing.T) {
		result := Expand("a | b | c", DefaultExpansionConfig(), nil)
		require.True(t, result.IsValid)
		assert.Equal(t, []string{"a", "b", "c"}, result.ExpandedPrompts)
		assert.True(t, result.HasPipes)
		assert.True(t, result.Sequential())
		assert.Equal(t, ModeNamePipe, result.Mode)
		assert.Equal(t, "3 pipe steps × 20 credits = 60 credits", result.BreakdownDescription)
	})

	t.Run("empty steps dropped", func(t *testing.T) {
		result := Expand("a || b |", DefaultExpansionConfig(), nil)
		require.True(t, result.IsValid)
		assert.Equal(t, []string{"a", "b"}, result.ExpandedPrompts)
	})

	t.Run("untrimmed steps", func(t *testing.T) {
		cfg := DefaultExpansionConfig()
		cfg.TrimWhitespace = false
		result := Expand("a | b", cfg, nil)
		require.True(t, result.IsValid)
		assert.Equal(t, []string{"a ", " b"}, result.ExpandedPrompts)
	})

	t.Run("only pipes", func(t *testing.T) {
		result := Expand(" | | ", DefaultExpansionConfig(), nil)
		assert.False(t, result.IsValid)
		assert.Equal(t, []string{ErrMsgEmptyPipes}, result.Warnings)
		assert.Equal(t, internal.HintEmptyPipes, result.Suggestion)
		assert.Equal(t, KindStructuralSyntax, result.Kind)
	})

	t.Run("over the limit", func(t *testing.T) {
		steps := make([]string, 11)
		for i := range steps {
			steps[i] = "step"
		}
		result := Expand(strings.Join(steps, " | "), DefaultExpansionConfig(), nil)
		assert.False(t, result.IsValid)
		assert.Empty(t, result.ExpandedPrompts)
		assert.Equal(t, []string{"Too many pipe variations: 11. Maximum is 10."}, result.Warnings)
		assert.Equal(t, 11, result.AttemptedCount)
		assert.Equal(t, 10, result.Limit)
		assert.Equal(t, KindLimitExceeded, result.Kind)
	})
}

func TestExpand_Combined(t *testing.T) {
	t.Run("cross product within cap", func(t *testing.T) {
		result := Expand("[a,b] x | [c,d] y", DefaultExpansionConfig(), nil)
		require.True(t, result.IsValid)
		assert.Equal(t, []string{
			"a x | c y",
			"a x | d y",
			"b x | c y",
			"b x | d y",
		}, result.ExpandedPrompts)
		assert.Equal(t, 4, result.TotalCount)
		assert.Equal(t, ModeNameCombined, result.Mode)
		assert.Equal(t, []int{2, 2}, result.SegmentCounts)
		assert.Equal(t, "2 × 2 combined variations × 20 credits = 80 credits", result.BreakdownDescription)
		assert.True(t, result.Sequential())
	})

	t.Run("segment without group is a singleton", func(t *testing.T) {
		result := Expand("[a,b,c] x | plain", DefaultExpansionConfig(), nil)
		require.True(t, result.IsValid)
		assert.Equal(t, []string{"a x | plain", "b x | plain", "c x | plain"}, result.ExpandedPrompts)
		assert.Equal(t, []int{3, 1}, result.SegmentCounts)
	})

	t.Run("fails closed over the cap", func(t *testing.T) {
		result := Expand("[1,2,3,4] x | [1,2,3,4] y", DefaultExpansionConfig(), nil)
		assert.False(t, result.IsValid)
		assert.Empty(t, result.ExpandedPrompts)
		assert.NotNil(t, result.ExpandedPrompts)
		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0], "16")
		assert.Equal(t, "Too many combined variations: 16 exceeds the limit of 10 by 6 (segments: 4 × 4)", result.Warnings[0])
		assert.Equal(t, 16, result.AttemptedCount)
		assert.Equal(t, 10, result.Limit)
		assert.Equal(t, KindLimitExceeded, result.Kind)
		assert.Equal(t, internal.HintTooManyCombinations, result.Suggestion)

		// The cost that would apply is still reported for display.
		assert.Equal(t, 320, result.CreditCost)
		assert.Equal(t, "4 × 4 combined variations × 20 credits = 320 credits", result.BreakdownDescription)
	})

	t.Run("product beyond int range", func(t *testing.T) {
		segment := "[a,b,c,d,e,f,g,h,i,j] x"
		prompt := strings.Repeat(segment+" | ", 18) + segment

		result := Expand(prompt, DefaultExpansionConfig(), nil)
		assert.False(t, result.IsValid)
		assert.Equal(t, KindLimitExceeded, result.Kind)
		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0], "Too many combined variations: 10000000000000000000 exceeds the limit of 10 by 9999999999999999990")
		assert.Equal(t, math.MaxInt, result.AttemptedCount)
		assert.Equal(t, math.MaxInt, result.CreditCost)
		assert.True(t, strings.HasSuffix(result.BreakdownDescription, " combined variations × 20 credits = 200000000000000000000 credits"), result.BreakdownDescription)
		assert.Equal(t, KindLimitExceeded, KindOf(result.Err))
	})

	t.Run("exactly at the cap", func(t *testing.T) {
		result := Expand("[a,b,c,d,e] x | [f,g] y", DefaultExpansionConfig(), nil)
		require.True(t, result.IsValid)
		assert.Equal(t, 10, result.TotalCount)
		assert.Len(t, result.ExpandedPrompts, 10)
	})

	t.Run("per-group limit checked first", func(t *testing.T) {
		result := Expand("[a,b,c,d,e,f,g,h,i,j,k] x | y", DefaultExpansionConfig(), nil)
		assert.False(t, result.IsValid)
		assert.Equal(t, []string{"Too many bracket options: 11. Maximum is 10."}, result.Warnings)
	})

	t.Run("two groups in one segment", func(t *testing.T) {
		result := Expand("[a,b] x | [c] [d]", DefaultExpansionConfig(), nil)
		assert.False(t, result.IsValid)
		assert.Equal(t, []string{ErrMsgMultipleBrackets}, result.Warnings)
	})
}

func TestExpand_StructuralErrors(t *testing.T) {
	tests := []struct {
		name       string
		prompt     string
		warning    string
		suggestion string
	}{
		{"unclosed", "a [b, c", ErrMsgMissingClosingBracket, internal.HintMissingClosingBracket},
		{"unopened", "a b] c", ErrMsgMissingOpeningBracket, internal.HintMissingOpeningBracket},
		{"closer first", "] a [", ErrMsgMissingOpeningBracket, internal.HintMissingOpeningBracket},
		{"two groups", "[a] and [b]", ErrMsgMultipleBrackets, internal.HintMultipleBrackets},
		{"empty group", "a [] b", ErrMsgEmptyBrackets, internal.HintEmptyBrackets},
		{"only commas", "a [ , ] b", ErrMsgEmptyBrackets, internal.HintEmptyBrackets},
		{"unbalanced segment", "[a | b]", ErrMsgMissingClosingBracket, internal.HintMissingClosingBracket},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Expand(tt.prompt, DefaultExpansionConfig(), nil)
			assert.False(t, result.IsValid)
			assert.Empty(t, result.ExpandedPrompts)
			assert.Equal(t, []string{tt.warning}, result.Warnings)
			assert.Equal(t, tt.suggestion, result.Suggestion)
			assert.Equal(t, KindStructuralSyntax, result.Kind)
			assert.Equal(t, KindStructuralSyntax, KindOf(result.Err))
			assert.Zero(t, result.CreditCost)
		})
	}
}

func TestExpand_OptionLimit(t *testing.T) {
	result := Expand("[a,b,c,d,e,f,g,h,i,j,k]", DefaultExpansionConfig(), nil)
	assert.False(t, result.IsValid)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "11")
	assert.Contains(t, result.Warnings[0], "10")
	assert.Equal(t, KindLimitExceeded, KindOf(result.Err))

	cfg := DefaultExpansionConfig()
	cfg.MaxOptionsPerGroup = 11
	assert.True(t, Expand("[a,b,c,d,e,f,g,h,i,j,k]", cfg, nil).IsValid)
}

func TestExpand_Wildcards(t *testing.T) {
	heroes := WildcardMap{"hero": {"knight", "wizard"}}

	t.Run("draws one entry", func(t *testing.T) {
		for range 50 {
			result := Expand("_hero_ fights", DefaultExpansionConfig(), heroes)
			require.True(t, result.IsValid)
			require.Len(t, result.ExpandedPrompts, 1)
			value := strings.TrimSuffix(result.ExpandedPrompts[0], " fights")
			assert.Contains(t, []string{"knight", "wizard"}, value)
		}
	})

	t.Run("reports the draw", func(t *testing.T) {
		result := Expand("_hero_ fights", DefaultExpansionConfig(), heroes)
		require.True(t, result.IsValid)
		assert.True(t, result.HasWildcards)
		assert.Equal(t, []string{"hero"}, result.WildcardNames)
		assert.Equal(t, 2, result.WildcardCombinations)
		assert.Equal(t, []string{"Random selection from: hero (2 options)"}, result.Warnings)
		assert.Equal(t, result.ExpandedPrompts[0], result.ResolvedPrompt)
	})

	t.Run("replaces occurrences inside words", func(t *testing.T) {
		result := Expand("_a_ and my_a_s", DefaultExpansionConfig(), WildcardMap{"a": {"Z"}})
		require.True(t, result.IsValid)
		assert.Equal(t, []string{"Z and myZs"}, result.ExpandedPrompts)
		assert.Equal(t, []string{"Random selection from: a (1 option)"}, result.Warnings)
	})

	t.Run("same name same value", func(t *testing.T) {
		for range 20 {
			result := Expand("_hero_ meets _hero_", DefaultExpansionConfig(), heroes)
			require.True(t, result.IsValid)
			parts := strings.Split(result.ExpandedPrompts[0], " meets ")
			require.Len(t, parts, 2)
			assert.Equal(t, parts[0], parts[1])
		}
	})

	t.Run("missing wildcard fails closed", func(t *testing.T) {
		result := Expand("a _hero_ b", DefaultExpansionConfig(), WildcardMap{})
		assert.False(t, result.IsValid)
		assert.Empty(t, result.ExpandedPrompts)
		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0], "_hero_")
		assert.Equal(t, "Missing wild cards: _hero_", result.Warnings[0])
		assert.Equal(t, KindMissingWildcard, result.Kind)
		assert.Equal(t, internal.HintMissingWildcard, result.Suggestion)
	})

	t.Run("nil lookup treats every name as missing", func(t *testing.T) {
		result := Expand("_a_ and _b_", DefaultExpansionConfig(), nil)
		assert.False(t, result.IsValid)
		assert.Equal(t, []string{"Missing wild cards: _a_, _b_"}, result.Warnings)
	})

	t.Run("empty entry list is missing", func(t *testing.T) {
		result := Expand("_hero_", DefaultExpansionConfig(), WildcardMap{"hero": {}})
		assert.False(t, result.IsValid)
		assert.Equal(t, KindMissingWildcard, result.Kind)
	})

	t.Run("suggests close names", func(t *testing.T) {
		result := Expand("a _heros_", DefaultExpansionConfig(), heroes)
		assert.False(t, result.IsValid)
		assert.Equal(t, "Did you mean _hero_?", result.Suggestion)
	})

	t.Run("substituted brackets are expanded", func(t *testing.T) {
		lookup := WildcardMap{"color": {"[red, blue]"}}
		result := Expand("a _color_ car", DefaultExpansionConfig(), lookup)
		require.True(t, result.IsValid)
		assert.True(t, result.HasBrackets)
		assert.Equal(t, []string{"a red car", "a blue car"}, result.ExpandedPrompts)
	})

	t.Run("substituted pipes are expanded", func(t *testing.T) {
		lookup := WildcardMap{"chain": {"a cat | a dog"}}
		result := Expand("_chain_", DefaultExpansionConfig(), lookup)
		require.True(t, result.IsValid)
		assert.True(t, result.HasPipes)
		assert.Equal(t, []string{"a cat", "a dog"}, result.ExpandedPrompts)
	})

	t.Run("substituted values are not rescanned", func(t *testing.T) {
		lookup := WildcardMap{"a": {"_b_"}, "b": {"bee"}}
		result := Expand("_a_ and _b_", DefaultExpansionConfig(), lookup)
		require.True(t, result.IsValid)
		assert.Equal(t, []string{"_b_ and bee"}, result.ExpandedPrompts)
	})

	t.Run("wildcards and brackets", func(t *testing.T) {
		result := Expand("a _hero_ with a [sword, staff]", DefaultExpansionConfig(), heroes)
		require.True(t, result.IsValid)
		require.Len(t, result.ExpandedPrompts, 2)
		assert.True(t, strings.HasSuffix(result.ExpandedPrompts[0], "with a sword"))
		assert.True(t, strings.HasSuffix(result.ExpandedPrompts[1], "with a staff"))
	})
}

func TestExpand_DisabledSyntax(t *testing.T) {
	t.Run("pipe", func(t *testing.T) {
		result := Expand("a | b", DefaultExpansionConfig().DisablePipe(), nil)
		require.True(t, result.IsValid)
		assert.False(t, result.HasPipes)
		assert.Equal(t, []string{"a | b"}, result.ExpandedPrompts)
	})

	t.Run("bracket", func(t *testing.T) {
		result := Expand("a [b, c", DefaultExpansionConfig().DisableBracket(), nil)
		require.True(t, result.IsValid)
		assert.False(t, result.HasBrackets)
		assert.Equal(t, []string{"a [b, c"}, result.ExpandedPrompts)
	})

	t.Run("bracket with pipes is pipe mode", func(t *testing.T) {
		result := Expand("[a,b] x | y", DefaultExpansionConfig().DisableBracket(), nil)
		require.True(t, result.IsValid)
		assert.Equal(t, ModeNamePipe, result.Mode)
		assert.Equal(t, []string{"[a,b] x", "y"}, result.ExpandedPrompts)
	})

	t.Run("wildcard", func(t *testing.T) {
		result := Expand("a _hero_", DefaultExpansionConfig().DisableWildcard(), nil)
		require.True(t, result.IsValid)
		assert.False(t, result.HasWildcards)
		assert.Equal(t, []string{"a _hero_"}, result.ExpandedPrompts)
	})
}

func TestExpand_Preview(t *testing.T) {
	result := Expand("[a,b,c,d,e,f,g]", DefaultExpansionConfig(), nil)
	require.True(t, result.IsValid)
	assert.Equal(t, 7, result.TotalCount)
	assert.Equal(t, 5, result.PreviewCount)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, result.Preview())

	small := Expand("[a,b]", DefaultExpansionConfig(), nil)
	assert.Equal(t, 2, small.PreviewCount)
	assert.Equal(t, []string{"a", "b"}, small.Preview())
}

func TestExpandWithSurcharges(t *testing.T) {
	result := ExpandWithSurcharges("X [a,b]", DefaultExpansionConfig(), nil,
		Surcharge{Label: "premium font", Credits: 10})
	require.True(t, result.IsValid)
	assert.Equal(t, 50, result.CreditCost)
	assert.Equal(t,
		"2 bracket options × 20 credits = 40 credits + 10 credits (premium font) = 50 credits total",
		result.BreakdownDescription)
}

func TestExpand_Invariants(t *testing.T) {
	lookup := WildcardMap{"hero": {"knight", "wizard"}, "place": {"castle", "forest", "[cave, lake]"}}
	prompts := []string{
		"plain",
		"[a,b,c]",
		"a | b",
		"[a,b] | [c,d,e]",
		"_hero_ in the _place_",
		"_hero_ | [x,y]",
		"[a] [b]",
		"[1,2,3,4] | [1,2,3,4]",
		"_missing_",
	}

	for _, p := range prompts {
		t.Run(p, func(t *testing.T) {
			for range 10 {
				result := Expand(p, DefaultExpansionConfig(), lookup)
				assert.NotNil(t, result.ExpandedPrompts)
				assert.NotNil(t, result.Warnings)
				if result.IsValid {
					assert.Len(t, result.ExpandedPrompts, result.TotalCount)
					assert.Equal(t, KindNone, result.Kind)
					assert.NoError(t, result.Err)
					if result.Mode == ModeNameCombined {
						assert.LessOrEqual(t, result.TotalCount, DefaultMaxTotalCombinedImages)
					}
				} else {
					assert.Empty(t, result.ExpandedPrompts)
					assert.Zero(t, result.TotalCount)
					assert.NotEqual(t, KindNone, result.Kind)
					assert.Error(t, result.Err)
					assert.NotEmpty(t, result.Warnings)
				}
			}
		})
	}
}
