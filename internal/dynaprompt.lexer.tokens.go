package internal

import "fmt"

// Position represents a location in the source prompt
type Position struct {
	Offset int // Byte offset from start
	Line   int // 1-indexed line number
	Column int // 1-indexed column number
}

// String returns a human-readable position string
func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// Token represents a lexical token produced by the lexer.
// Concatenating Value over a token stream reproduces the source exactly.
type Token struct {
	Type     TokenType
	Value    string
	Position Position
}

// String returns a human-readable representation of the token
func (t Token) String() string {
	return fmt.Sprintf("Token{%s: %q @ %s}", t.Type, t.Value, t.Position)
}

// IsText returns true if this is a text token
func (t Token) IsText() bool {
	return t.Type == TokenTypeText
}

// NewToken creates a new token with the given type, value, and position
func NewToken(tokenType TokenType, value string, pos Position) Token {
	return Token{
		Type:     tokenType,
		Value:    value,
		Position: pos,
	}
}

// NewTextToken creates a text token with the given content
func NewTextToken(content string, pos Position) Token {
	return NewToken(TokenTypeText, content, pos)
}

// NewBracketDelimiterToken creates a `[`, `]` or `,` delimiter token
func NewBracketDelimiterToken(value string, pos Position) Token {
	return NewToken(TokenTypeBracketDelimiter, value, pos)
}

// NewSlotDelimiterToken creates a `{` or `}` delimiter token
func NewSlotDelimiterToken(value string, pos Position) Token {
	return NewToken(TokenTypeSlotMachineDelimiter, value, pos)
}
