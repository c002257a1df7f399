package internal

// Hint constants provide corrective suggestions for structural problems.
const (
	HintMissingClosingBracket = "Add ] to close your options"
	HintMissingOpeningBracket = "Add [ before your options"
	HintMultipleBrackets      = "Use only one [option1, option2] per prompt, or per | segment"
	HintEmptyBrackets         = "Add options inside brackets: [option1, option2]"
	HintEmptyPipes            = "Add prompts separated by |: prompt1 | prompt2"
	HintTooManyOptions        = "Remove options until you are within the limit"
	HintTooManyCombinations   = "Reduce the options per segment or the number of | steps"
	HintMissingWildcard       = "Create the wild card in your library or fix the name"
	HintTooManySlots          = "Use at most five {seed} blocks per prompt"
	HintSeparator             = " "
)

// AppendHint appends a hint to a message with a separator.
// Returns the original message if hint is empty.
func AppendHint(msg, hint string) string {
	if hint == "" {
		return msg
	}
	if msg == "" {
		return hint
	}
	return msg + HintSeparator + hint
}
