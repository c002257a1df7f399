package dynaprompt

import (
	"testing"

	"github.com/itsatony/go-dynaprompt/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		prompt     string
		valid      bool
		imageCount int
		err        string
		suggestion string
		kind       ErrorKind
	}{
		{name: "plain", prompt: "a red car", valid: true, imageCount: 1},
		{name: "bracket", prompt: "a [red, blue] car", valid: true, imageCount: 2},
		{name: "pipe", prompt: "a | b | c", valid: true, imageCount: 3},
		{name: "combined", prompt: "[a,b] x | [c,d,e] y", valid: true, imageCount: 6},
		{name: "wildcards are ignored", prompt: "_unknown_ [a,b]", valid: true, imageCount: 2},
		{
			name: "missing closing", prompt: "a [red, blue car",
			err: ErrMsgMissingClosingBracket, suggestion: internal.HintMissingClosingBracket, kind: KindStructuralSyntax,
		},
		{
			name: "missing opening", prompt: "a red, blue] car",
			err: ErrMsgMissingOpeningBracket, suggestion: internal.HintMissingOpeningBracket, kind: KindStructuralSyntax,
		},
		{
			name: "multiple groups", prompt: "[a,b] and [c,d]",
			err: ErrMsgMultipleBrackets, suggestion: internal.HintMultipleBrackets, kind: KindStructuralSyntax,
		},
		{
			name: "empty group", prompt: "a [] car",
			err: ErrMsgEmptyBrackets, suggestion: internal.HintEmptyBrackets, kind: KindStructuralSyntax,
		},
		{
			name: "combined over cap", prompt: "[1,2,3,4] x | [1,2,3,4] y",
			err:        "Too many combined variations: 16 exceeds the limit of 10 by 6 (segments: 4 × 4)",
			suggestion: internal.HintTooManyCombinations, kind: KindLimitExceeded,
		},
		{
			name: "too many options", prompt: "[a,b,c,d,e,f,g,h,i,j,k]",
			err:        "Too many bracket options: 11. Maximum is 10.",
			suggestion: internal.HintTooManyOptions, kind: KindLimitExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.prompt, DefaultExpansionConfig())
			assert.Equal(t, tt.valid, result.IsValid)
			assert.Equal(t, tt.imageCount, result.ImageCount)
			assert.Equal(t, tt.err, result.Error)
			assert.Equal(t, tt.suggestion, result.Suggestion)
			assert.Equal(t, tt.kind, result.Kind)
			if tt.valid {
				assert.NoError(t, result.Err)
			} else {
				assert.Equal(t, tt.kind, KindOf(result.Err))
			}
		})
	}
}

func TestValidate_BalanceBeforeMultipleGroups(t *testing.T) {
	result := Validate("[a] [b] [c", DefaultExpansionConfig())
	require.False(t, result.IsValid)
	assert.Equal(t, ErrMsgMissingClosingBracket, result.Error)
}

func TestValidate_RespectsConfig(t *testing.T) {
	cfg := DefaultExpansionConfig()
	cfg.MaxTotalCombinedImages = 3

	result := Validate("[a,b] x | [c,d] y", cfg)
	require.False(t, result.IsValid)
	assert.Equal(t, "Too many combined variations: 4 exceeds the limit of 3 by 1 (segments: 2 × 2)", result.Error)

	assert.True(t, Validate("[a] [b", DefaultExpansionConfig().DisableBracket()).IsValid)
}

// Validation and expansion share the same checks, so a wildcard-free prompt
// must get the same verdict, message and count from both.
func TestValidate_AgreesWithExpand(t *testing.T) {
	prompts := []string{
		"plain text",
		"[a,b,c]",
		"x [a, b] y | z",
		"[a,b,c,d] | [a,b,c]",
		"[a,b,c,d] | [a,b,c]  | [a,b]",
		"[1,2,3,4,5] | [1,2]",
		"[1,2,3,4,5,6] | [1,2]",
		"a | | b",
		"|",
		"[a",
		"a]",
		"[a][b]",
		"[,]",
		"[a|b]",
		"[a,b,c,d,e,f,g,h,i,j,k]",
		"1|2|3|4|5|6|7|8|9|10|11",
	}

	configs := map[string]ExpansionConfig{
		"default":    DefaultExpansionConfig(),
		"no pipe":    DefaultExpansionConfig().DisablePipe(),
		"no bracket": DefaultExpansionConfig().DisableBracket(),
		"tight": {
			MaxOptionsPerGroup:     2,
			MaxPreviewCount:        1,
			MaxTotalCombinedImages: 3,
			TrimWhitespace:         true,
			CreditsPerImage:        5,
		},
	}

	for cfgName, cfg := range configs {
		for _, p := range prompts {
			t.Run(cfgName+"/"+p, func(t *testing.T) {
				v := Validate(p, cfg)
				e := Expand(p, cfg, nil)

				assert.Equal(t, v.IsValid, e.IsValid)
				assert.Equal(t, v.Kind, e.Kind)
				if v.IsValid {
					assert.Equal(t, v.ImageCount, e.TotalCount)
				} else {
					assert.Equal(t, []string{v.Error}, e.Warnings)
					assert.Equal(t, v.Suggestion, e.Suggestion)
				}
			})
		}
	}
}
