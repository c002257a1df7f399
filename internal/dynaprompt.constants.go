package internal

// TokenType represents the type of a lexical token
type TokenType string

// Token type constants. The string values are what highlighting layers key on.
const (
	TokenTypeText                 TokenType = "text"
	TokenTypeBracket              TokenType = "bracket"
	TokenTypeBracketDelimiter     TokenType = "bracketDelimiter"
	TokenTypePipe                 TokenType = "pipe"
	TokenTypeWildcard             TokenType = "wildcard"
	TokenTypeSlotMachine          TokenType = "slotMachine"
	TokenTypeSlotMachineDelimiter TokenType = "slotMachineDelimiter"
	TokenTypeAnchor               TokenType = "anchor"
	TokenTypeReference            TokenType = "reference"
)

// Character constants
const (
	CharAt           = '@'
	CharBang         = '!'
	CharBracketOpen  = '['
	CharBracketClose = ']'
	CharBraceOpen    = '{'
	CharBraceClose   = '}'
	CharUnderscore   = '_'
	CharPipe         = '|'
	CharComma        = ','
	CharHyphen       = '-'
	CharNewline      = '\n'
)

// String constants for delimiter matching
const (
	StrAnchor = "@!"
	StrPipe   = "|"
	StrComma  = ","
)

// Log message constants
const (
	LogMsgLexerCreated   = "lexer created"
	LogMsgTokenizerStart = "starting tokenization"
	LogMsgTokenizerEnd   = "tokenization complete"
)

// Log field names
const (
	LogFieldSource = "source_length"
	LogFieldTokens = "token_count"
)
