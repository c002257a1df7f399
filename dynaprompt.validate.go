package dynaprompt

// ValidationResult is the cheap structural verdict shown while typing.
type ValidationResult struct {
	IsValid    bool      `json:"isValid"`
	Error      string    `json:"error,omitempty"`
	Suggestion string    `json:"suggestion,omitempty"`
	ImageCount int       `json:"imageCount,omitempty"`
	Kind       ErrorKind `json:"kind"`
	Err        error     `json:"-"`
}

// Validate checks bracket and pipe structure without consulting any
// wildcard store. Over-limit arithmetic is the same as Expand's.
func Validate(prompt string, cfg ExpansionConfig) ValidationResult {
	plan := planPrompt(prompt, cfg)
	if f := plan.failure; f != nil {
		return ValidationResult{
			Error:      f.warning,
			Suggestion: f.suggestion,
			Kind:       f.kind,
			Err:        f.err,
		}
	}

	return ValidationResult{
		IsValid:    true,
		ImageCount: plan.total,
	}
}
