package internal

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// tok is a position-free view of a token for table comparisons
type tok struct {
	Type  TokenType
	Value string
}

func stripPositions(tokens []Token) []tok {
	out := make([]tok, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, tok{Type: t.Type, Value: t.Value})
	}
	return out
}

func joinTokens(tokens []Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.WriteString(t.Value)
	}
	return sb.String()
}

func TestLexer_Tokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []tok
	}{
		{
			name:     "empty string",
			input:    "",
			expected: []tok{},
		},
		{
			name:  "plain text",
			input: "a cat on a mat",
			expected: []tok{
				{TokenTypeText, "a cat on a mat"},
			},
		},
		{
			name:  "bracket group",
			input: "X [a,b,c] Y",
			expected: []tok{
				{TokenTypeText, "X "},
				{TokenTypeBracketDelimiter, "["},
				{TokenTypeBracket, "a"},
				{TokenTypeBracketDelimiter, ","},
				{TokenTypeBracket, "b"},
				{TokenTypeBracketDelimiter, ","},
				{TokenTypeBracket, "c"},
				{TokenTypeBracketDelimiter, "]"},
				{TokenTypeText, " Y"},
			},
		},
		{
			name:  "nested bracket only splits top level commas",
			input: "[a,[b,c]]",
			expected: []tok{
				{TokenTypeBracketDelimiter, "["},
				{TokenTypeBracket, "a"},
				{TokenTypeBracketDelimiter, ","},
				{TokenTypeBracket, "[b,c]"},
				{TokenTypeBracketDelimiter, "]"},
			},
		},
		{
			name:  "empty option emits only the comma",
			input: "[,a]",
			expected: []tok{
				{TokenTypeBracketDelimiter, "["},
				{TokenTypeBracketDelimiter, ","},
				{TokenTypeBracket, "a"},
				{TokenTypeBracketDelimiter, "]"},
			},
		},
		{
			name:  "pipes",
			input: "a | b",
			expected: []tok{
				{TokenTypeText, "a "},
				{TokenTypePipe, "|"},
				{TokenTypeText, " b"},
			},
		},
		{
			name:  "wildcard with word boundaries",
			input: "a _name_ b",
			expected: []tok{
				{TokenTypeText, "a "},
				{TokenTypeWildcard, "_name_"},
				{TokenTypeText, " b"},
			},
		},
		{
			name:  "underscored identifier is not a wildcard",
			input: "file_name_here",
			expected: []tok{
				{TokenTypeText, "file_name_here"},
			},
		},
		{
			name:  "slot machine block",
			input: "A {red} car",
			expected: []tok{
				{TokenTypeText, "A "},
				{TokenTypeSlotMachineDelimiter, "{"},
				{TokenTypeSlotMachine, "red"},
				{TokenTypeSlotMachineDelimiter, "}"},
				{TokenTypeText, " car"},
			},
		},
		{
			name:  "empty slot block",
			input: "{}",
			expected: []tok{
				{TokenTypeSlotMachineDelimiter, "{"},
				{TokenTypeSlotMachineDelimiter, "}"},
			},
		},
		{
			name:  "anchor and reference",
			input: "@! @hero_1-b walks",
			expected: []tok{
				{TokenTypeAnchor, "@!"},
				{TokenTypeText, " "},
				{TokenTypeReference, "@hero_1-b"},
				{TokenTypeText, " walks"},
			},
		},
		{
			name:  "at sign without letter is text",
			input: "@1 and foo@",
			expected: []tok{
				{TokenTypeText, "@1 and foo@"},
			},
		},
		{
			name:  "unterminated bracket degrades to text",
			input: "a [b, c",
			expected: []tok{
				{TokenTypeText, "a [b, c"},
			},
		},
		{
			name:  "unterminated brace degrades to text",
			input: "{seed",
			expected: []tok{
				{TokenTypeText, "{seed"},
			},
		},
		{
			name:  "unmatched opener followed by a group",
			input: "[[a]",
			expected: []tok{
				{TokenTypeText, "["},
				{TokenTypeBracketDelimiter, "["},
				{TokenTypeBracket, "a"},
				{TokenTypeBracketDelimiter, "]"},
			},
		},
		{
			name:  "mixed syntax",
			input: "_hero_ [smiling, frowning] | @place",
			expected: []tok{
				{TokenTypeWildcard, "_hero_"},
				{TokenTypeText, " "},
				{TokenTypeBracketDelimiter, "["},
				{TokenTypeBracket, "smiling"},
				{TokenTypeBracketDelimiter, ","},
				{TokenTypeBracket, " frowning"},
				{TokenTypeBracketDelimiter, "]"},
				{TokenTypeText, " "},
				{TokenTypePipe, "|"},
				{TokenTypeText, " "},
				{TokenTypeReference, "@place"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := NewLexer(tt.input, zap.NewNop()).Tokenize()
			if diff := cmp.Diff(tt.expected, stripPositions(tokens)); diff != "" {
				t.Errorf("tokens mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, tt.input, joinTokens(tokens))
		})
	}
}

func TestLexer_Tokenize_Positions(t *testing.T) {
	tokens := NewLexer("a\n[b] _c_", nil).Tokenize()
	require.Len(t, tokens, 6)

	assert.Equal(t, Position{Offset: 0, Line: 1, Column: 1}, tokens[0].Position)
	assert.Equal(t, Position{Offset: 2, Line: 2, Column: 1}, tokens[1].Position)
	assert.Equal(t, Position{Offset: 3, Line: 2, Column: 2}, tokens[2].Position)
	assert.Equal(t, Position{Offset: 4, Line: 2, Column: 3}, tokens[3].Position)
	assert.Equal(t, TokenTypeWildcard, tokens[5].Type)
	assert.Equal(t, Position{Offset: 6, Line: 2, Column: 5}, tokens[5].Position)
}

func TestLexer_Tokenize_MergesAdjacentText(t *testing.T) {
	tokens := NewLexer("snake_case_ and more_", nil).Tokenize()
	require.Len(t, tokens, 1)
	assert.Equal(t, TokenTypeText, tokens[0].Type)
}

func FuzzLexer_Lossless(f *testing.F) {
	seeds := []string{
		"",
		"X [a,b,c] Y",
		"[1,2,3,4] x | [1,2,3,4] y",
		"@!@@a[[{_}]]|__x__",
		"{a [b, {c}] d} _e_ @f-g",
		"]]][[[ }}{{ ||| ___",
		"unicode é [ü, ß] _naïve_",
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, s string) {
		tokens := NewLexer(s, nil).Tokenize()
		if got := joinTokens(tokens); got != s {
			t.Fatalf("lossless tokenization broken: %q != %q", got, s)
		}
		for i := 1; i < len(tokens); i++ {
			if tokens[i].IsText() && tokens[i-1].IsText() {
				t.Fatalf("adjacent text tokens at %d in %q", i, s)
			}
		}
	})
}
