package dynaprompt

import (
	"strings"

	"github.com/itsatony/go-dynaprompt/internal"
	"go.uber.org/zap"
)

// TokenType identifies what a token highlights
type TokenType = internal.TokenType

// Token types
const (
	TokenText                 = internal.TokenTypeText
	TokenBracket              = internal.TokenTypeBracket
	TokenBracketDelimiter     = internal.TokenTypeBracketDelimiter
	TokenPipe                 = internal.TokenTypePipe
	TokenWildcard             = internal.TokenTypeWildcard
	TokenSlotMachine          = internal.TokenTypeSlotMachine
	TokenSlotMachineDelimiter = internal.TokenTypeSlotMachineDelimiter
	TokenAnchor               = internal.TokenTypeAnchor
	TokenReference            = internal.TokenTypeReference
)

// Token is one highlighted span of a prompt.
type Token struct {
	Type    TokenType `json:"type"`
	Content string    `json:"content"`
	Offset  int       `json:"offset"`
	Line    int       `json:"line"`
	Column  int       `json:"column"`
}

// Tokenize splits a prompt into highlighting tokens. It never fails:
// malformed syntax comes back as text, and joining every Content
// reproduces the prompt.
func Tokenize(prompt string) []Token {
	return tokenize(prompt, nil)
}

func tokenize(prompt string, logger *zap.Logger) []Token {
	raw := internal.NewLexer(prompt, logger).Tokenize()
	tokens := make([]Token, len(raw))
	for i, t := range raw {
		tokens[i] = Token{
			Type:    t.Type,
			Content: t.Value,
			Offset:  t.Position.Offset,
			Line:    t.Position.Line,
			Column:  t.Position.Column,
		}
	}
	return tokens
}

// JoinTokens concatenates token contents back into prompt text
func JoinTokens(tokens []Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.WriteString(t.Content)
	}
	return sb.String()
}
