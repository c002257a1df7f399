package dynaprompt

import (
	"go.uber.org/zap"
)

// PromptAnalysis gathers everything detectable in a prompt without a
// wildcard store or a text model.
type PromptAnalysis struct {
	Validation    ValidationResult `json:"validation"`
	WildcardNames []string         `json:"wildcardNames"`
	HasAnchor     bool             `json:"hasAnchor"`
	References    ReferenceTags    `json:"references"`
	Slots         []Slot           `json:"slots"`
}

// Analyze validates the prompt and extracts its wildcard names, anchor
// marker, reference tags and slots.
func (e *Engine) Analyze(prompt string) PromptAnalysis {
	analysis := PromptAnalysis{
		Validation:    e.Validate(prompt),
		WildcardNames: ExtractWildcardNames(prompt),
		HasAnchor:     DetectAnchor(prompt),
		References:    ParseReferenceTags(prompt),
		Slots:         ExtractSlots(prompt),
	}
	if analysis.WildcardNames == nil {
		analysis.WildcardNames = []string{}
	}

	if analysis.References.HasReferences() {
		e.logger.Debug(LogMsgReferencesDetected,
			zap.Strings(LogFieldNames, analysis.References.All))
	}
	return analysis
}
