package internal

import (
	"go.uber.org/zap"
)

// Lexer tokenizes a prompt into a token stream for highlighting.
// It never fails: constructs that do not close degrade to text.
type Lexer struct {
	source string
	pos    int // Current byte position
	line   int // Current line (1-indexed)
	column int // Current column (1-indexed)
	logger *zap.Logger
}

// NewLexer creates a new lexer for the given source
func NewLexer(source string, logger *zap.Logger) *Lexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgLexerCreated, zap.Int(LogFieldSource, len(source)))
	return &Lexer{
		source: source,
		pos:    0,
		line:   1,
		column: 1,
		logger: logger,
	}
}

// Tokenize processes the source and returns the token stream.
// Matching at each position follows a fixed priority: anchor, reference,
// bracket group, slot block, wildcard, pipe, then text.
func (l *Lexer) Tokenize() []Token {
	l.logger.Debug(LogMsgTokenizerStart)
	tokens := make([]Token, 0, 8)

	for !l.isAtEnd() {
		ch := l.peek()

		// 1. Anchor marker @!
		if ch == CharAt && l.peekAt(1) == CharBang {
			tokens = append(tokens, l.emit(TokenTypeAnchor, len(StrAnchor)))
			continue
		}

		// 2. Reference tag @name
		if n := MatchReferenceAt(l.source, l.pos); n > 0 {
			tokens = append(tokens, l.emit(TokenTypeReference, n))
			continue
		}

		// 3. Bracket group [a, b, c]
		if ch == CharBracketOpen {
			if closeIdx := FindMatching(l.source, l.pos, CharBracketOpen, CharBracketClose); closeIdx != -1 {
				tokens = l.scanBracketGroup(tokens, closeIdx)
				continue
			}
		}

		// 4. Slot machine block {seed}
		if ch == CharBraceOpen {
			if closeIdx := FindMatching(l.source, l.pos, CharBraceOpen, CharBraceClose); closeIdx != -1 {
				tokens = l.scanSlotBlock(tokens, closeIdx)
				continue
			}
		}

		// 5. Wildcard _name_
		if m, ok := MatchWildcardAt(l.source, l.pos); ok {
			tokens = append(tokens, l.emit(TokenTypeWildcard, m.Len()))
			continue
		}

		// 6. Pipe
		if ch == CharPipe {
			tokens = append(tokens, l.emit(TokenTypePipe, 1))
			continue
		}

		// 7. Text up to the next special character
		tokens = l.scanText(tokens)
	}

	l.logger.Debug(LogMsgTokenizerEnd, zap.Int(LogFieldTokens, len(tokens)))
	return tokens
}

// scanBracketGroup emits delimiter and option tokens for the group ending at closeIdx.
// Only top-level commas split options; option content is not re-tokenized.
func (l *Lexer) scanBracketGroup(tokens []Token, closeIdx int) []Token {
	inner := l.source[l.pos+1 : closeIdx]

	tokens = append(tokens, l.emit(TokenTypeBracketDelimiter, 1))
	for i, part := range SplitTopLevel(inner, CharComma) {
		if i > 0 {
			tokens = append(tokens, l.emit(TokenTypeBracketDelimiter, 1))
		}
		if part != "" {
			tokens = append(tokens, l.emit(TokenTypeBracket, len(part)))
		}
	}
	return append(tokens, l.emit(TokenTypeBracketDelimiter, 1))
}

// scanSlotBlock emits {, the seed text as one token, and }.
func (l *Lexer) scanSlotBlock(tokens []Token, closeIdx int) []Token {
	innerLen := closeIdx - l.pos - 1

	tokens = append(tokens, l.emit(TokenTypeSlotMachineDelimiter, 1))
	if innerLen > 0 {
		tokens = append(tokens, l.emit(TokenTypeSlotMachine, innerLen))
	}
	return append(tokens, l.emit(TokenTypeSlotMachineDelimiter, 1))
}

// scanText consumes a maximal run of text, merging into a preceding text token.
func (l *Lexer) scanText(tokens []Token) []Token {
	end := l.pos + 1
	for end < len(l.source) && !IsSpecial(l.source[end]) {
		end++
	}

	tok := l.emit(TokenTypeText, end-l.pos)
	if n := len(tokens); n > 0 && tokens[n-1].IsText() {
		tokens[n-1].Value += tok.Value
		return tokens
	}
	return append(tokens, tok)
}

// Helper methods

// emit builds a token from the next n bytes and advances past them
func (l *Lexer) emit(tokenType TokenType, n int) Token {
	pos := l.currentPosition()
	start := l.pos
	l.advanceN(n)
	return NewToken(tokenType, l.source[start:l.pos], pos)
}

// currentPosition returns the current position
func (l *Lexer) currentPosition() Position {
	return Position{
		Offset: l.pos,
		Line:   l.line,
		Column: l.column,
	}
}

// isAtEnd returns true if we've reached the end of source
func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.source)
}

// peek returns the current character without advancing
func (l *Lexer) peek() byte {
	return l.peekAt(0)
}

// peekAt returns the character at offset from the current position, or 0
func (l *Lexer) peekAt(offset int) byte {
	if l.pos+offset >= len(l.source) {
		return 0
	}
	return l.source[l.pos+offset]
}

// advanceN advances by n characters, tracking line and column
func (l *Lexer) advanceN(n int) {
	for i := 0; i < n && !l.isAtEnd(); i++ {
		if l.source[l.pos] == CharNewline {
			l.line++
			l.column = 1
		} else {
			l.column++
		}
		l.pos++
	}
}
