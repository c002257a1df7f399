package internal

// Span marks a half-open byte range [Start, End) in a source string.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the span
func (s Span) Len() int {
	return s.End - s.Start
}

// WildcardMatch is a well-formed `_name_` occurrence.
type WildcardMatch struct {
	Span
	Name string
}

// FindMatching returns the index of the closer that matches the opener at
// openPos, honoring nesting of the same pair. Returns -1 if the opener is
// never closed.
func FindMatching(s string, openPos int, open, close byte) int {
	depth := 0
	for i := openPos; i < len(s); i++ {
		switch s[i] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// SplitTopLevel splits s on sep, ignoring separators nested inside [] or {}.
// A stray closer at the top level is treated as plain text.
func SplitTopLevel(s string, sep byte) []string {
	var parts []string
	var stack []byte
	start := 0

	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == CharBracketOpen:
			stack = append(stack, CharBracketClose)
		case ch == CharBraceOpen:
			stack = append(stack, CharBraceClose)
		case len(stack) > 0 && ch == stack[len(stack)-1]:
			stack = stack[:len(stack)-1]
		case ch == sep && len(stack) == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}

	return append(parts, s[start:])
}

// TopLevelBracketGroups returns the spans of every matched top-level [..]
// group, including the delimiters. Unmatched openers are skipped the same
// way the lexer degrades them to text.
func TopLevelBracketGroups(s string) []Span {
	var groups []Span
	for i := 0; i < len(s); i++ {
		if s[i] != CharBracketOpen {
			continue
		}
		closeIdx := FindMatching(s, i, CharBracketOpen, CharBracketClose)
		if closeIdx == -1 {
			continue
		}
		groups = append(groups, Span{Start: i, End: closeIdx + 1})
		i = closeIdx
	}
	return groups
}

// MatchWildcardAt reports whether a well-formed wildcard starts at i.
//
// The name is the longest run `[A-Za-z0-9][A-Za-z0-9_]*` that is followed by
// an underscore. Both the byte before the leading underscore and the byte after
// the trailing one must be non-alphanumeric (or a string boundary).
func MatchWildcardAt(s string, i int) (WildcardMatch, bool) {
	if i >= len(s) || s[i] != CharUnderscore {
		return WildcardMatch{}, false
	}
	if i+1 >= len(s) || !IsAlnum(s[i+1]) {
		return WildcardMatch{}, false
	}
	if i > 0 && IsAlnum(s[i-1]) {
		return WildcardMatch{}, false
	}

	end := i + 1
	for end < len(s) && IsWordChar(s[end]) {
		end++
	}

	// The run is maximal, so s[end] (if any) is already non-alphanumeric.
	if s[end-1] != CharUnderscore || end-1 <= i+1 {
		return WildcardMatch{}, false
	}

	return WildcardMatch{
		Span: Span{Start: i, End: end},
		Name: s[i+1 : end-1],
	}, true
}

// ScanWildcards returns every well-formed wildcard in s in source order.
func ScanWildcards(s string) []WildcardMatch {
	var matches []WildcardMatch
	for i := 0; i < len(s); i++ {
		if m, ok := MatchWildcardAt(s, i); ok {
			matches = append(matches, m)
			i = m.End - 1
		}
	}
	return matches
}

// MatchReferenceAt returns the length of an `@tag` reference starting at i,
// or 0 when there is none. `@!` is never a reference.
func MatchReferenceAt(s string, i int) int {
	if i+1 >= len(s) || s[i] != CharAt || !IsLetter(s[i+1]) {
		return 0
	}
	end := i + 2
	for end < len(s) && (IsWordChar(s[end]) || s[end] == CharHyphen) {
		end++
	}
	return end - i
}

// IsSpecial reports whether ch can start a syntax element.
func IsSpecial(ch byte) bool {
	switch ch {
	case CharAt, CharBracketOpen, CharBraceOpen, CharUnderscore, CharPipe:
		return true
	}
	return false
}

// Character classification helpers

func IsLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func IsDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func IsAlnum(ch byte) bool {
	return IsLetter(ch) || IsDigit(ch)
}

func IsWordChar(ch byte) bool {
	return IsAlnum(ch) || ch == CharUnderscore
}
