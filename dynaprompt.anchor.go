package dynaprompt

import (
	"strings"

	"github.com/itsatony/go-dynaprompt/internal"
)

// DetectAnchor reports whether the prompt carries the `@!` anchor marker,
// which switches the consumer into anchor-transform batch mode: the first
// image is the style anchor and every other image is transformed.
func DetectAnchor(prompt string) bool {
	return strings.Contains(prompt, internal.StrAnchor)
}

// StripAnchor removes every `@!` marker and collapses the whitespace left
// behind.
func StripAnchor(prompt string) string {
	if !DetectAnchor(prompt) {
		return prompt
	}
	return collapseWhitespace(strings.ReplaceAll(prompt, internal.StrAnchor, ""))
}

// AnchorTransformCount returns how many images an anchor-transform batch
// rewrites given the number of attached images. The first image is the
// anchor, so fewer than two images transform nothing.
func AnchorTransformCount(imageCount int) int {
	return max(imageCount-1, 0)
}
