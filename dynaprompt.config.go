package dynaprompt

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Syntax identifies one expandable syntax family.
type Syntax uint8

const (
	// SyntaxBracket is the `[a, b]` variation list
	SyntaxBracket Syntax = 1 << iota
	// SyntaxPipe is the `a | b` chain
	SyntaxPipe
	// SyntaxWildcard is the `_name_` substitution
	SyntaxWildcard
)

// allSyntaxes lists every syntax in a stable order for names and iteration
var allSyntaxes = []Syntax{SyntaxBracket, SyntaxPipe, SyntaxWildcard}

// String returns the configuration name of the syntax
func (s Syntax) String() string {
	switch s {
	case SyntaxBracket:
		return SyntaxNameBracket
	case SyntaxPipe:
		return SyntaxNamePipe
	case SyntaxWildcard:
		return SyntaxNameWildcard
	default:
		return fmt.Sprintf("syntax(%d)", uint8(s))
	}
}

// ParseSyntax resolves a configuration name to a Syntax.
func ParseSyntax(name string) (Syntax, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case SyntaxNameBracket:
		return SyntaxBracket, nil
	case SyntaxNamePipe:
		return SyntaxPipe, nil
	case SyntaxNameWildcard:
		return SyntaxWildcard, nil
	default:
		return 0, NewConfigError(ErrMsgUnknownSyntaxName, "", nil)
	}
}

// SyntaxSet is a set of syntaxes. The zero value is empty.
type SyntaxSet uint8

// NewSyntaxSet builds a set from the given syntaxes
func NewSyntaxSet(syntaxes ...Syntax) SyntaxSet {
	var set SyntaxSet
	for _, s := range syntaxes {
		set |= SyntaxSet(s)
	}
	return set
}

// Has reports whether s is in the set
func (set SyntaxSet) Has(s Syntax) bool {
	return set&SyntaxSet(s) != 0
}

// With returns a copy of the set including the given syntaxes
func (set SyntaxSet) With(syntaxes ...Syntax) SyntaxSet {
	return set | NewSyntaxSet(syntaxes...)
}

// Names returns the configuration names in the set
func (set SyntaxSet) Names() []string {
	names := make([]string, 0, len(allSyntaxes))
	for _, s := range allSyntaxes {
		if set.Has(s) {
			names = append(names, s.String())
		}
	}
	return names
}

// ParseSyntaxSet builds a set from configuration names
func ParseSyntaxSet(names []string) (SyntaxSet, error) {
	var set SyntaxSet
	for _, name := range names {
		s, err := ParseSyntax(name)
		if err != nil {
			return 0, err
		}
		set = set.With(s)
	}
	return set, nil
}

// MarshalYAML encodes the set as a list of syntax names
func (set SyntaxSet) MarshalYAML() (any, error) {
	return set.Names(), nil
}

// UnmarshalYAML decodes a list of syntax names
func (set *SyntaxSet) UnmarshalYAML(value *yaml.Node) error {
	var names []string
	if err := value.Decode(&names); err != nil {
		return err
	}
	parsed, err := ParseSyntaxSet(names)
	if err != nil {
		return err
	}
	*set = parsed
	return nil
}

// MarshalJSON encodes the set as a list of syntax names
func (set SyntaxSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(set.Names())
}

// UnmarshalJSON decodes a list of syntax names
func (set *SyntaxSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	parsed, err := ParseSyntaxSet(names)
	if err != nil {
		return err
	}
	*set = parsed
	return nil
}

// ExpansionConfig is the policy applied to every expansion and validation.
// Disabled syntaxes are treated as literal text.
type ExpansionConfig struct {
	MaxOptionsPerGroup     int       `yaml:"max_options_per_group" json:"maxOptionsPerGroup"`
	MaxPreviewCount        int       `yaml:"max_preview_count" json:"maxPreviewCount"`
	MaxTotalCombinedImages int       `yaml:"max_total_combined_images" json:"maxTotalCombinedImages"`
	TrimWhitespace         bool      `yaml:"trim_whitespace" json:"trimWhitespace"`
	CreditsPerImage        int       `yaml:"credits_per_image" json:"creditsPerImage"`
	Disabled               SyntaxSet `yaml:"disabled,omitempty" json:"disabled,omitempty"`
}

// DefaultExpansionConfig returns the default policy with every syntax enabled.
func DefaultExpansionConfig() ExpansionConfig {
	return ExpansionConfig{
		MaxOptionsPerGroup:     DefaultMaxOptionsPerGroup,
		MaxPreviewCount:        DefaultMaxPreviewCount,
		MaxTotalCombinedImages: DefaultMaxTotalCombinedImages,
		TrimWhitespace:         DefaultTrimWhitespace,
		CreditsPerImage:        DefaultCreditsPerImage,
	}
}

// Enabled reports whether the syntax is interpreted under this config
func (c ExpansionConfig) Enabled(s Syntax) bool {
	return !c.Disabled.Has(s)
}

// Disable returns a copy of the config with the given syntaxes disabled
func (c ExpansionConfig) Disable(syntaxes ...Syntax) ExpansionConfig {
	c.Disabled = c.Disabled.With(syntaxes...)
	return c
}

// DisablePipe returns a copy of the config treating `|` as text
func (c ExpansionConfig) DisablePipe() ExpansionConfig {
	return c.Disable(SyntaxPipe)
}

// DisableBracket returns a copy of the config treating `[` and `]` as text
func (c ExpansionConfig) DisableBracket() ExpansionConfig {
	return c.Disable(SyntaxBracket)
}

// DisableWildcard returns a copy of the config leaving `_name_` unresolved
func (c ExpansionConfig) DisableWildcard() ExpansionConfig {
	return c.Disable(SyntaxWildcard)
}

// Validate checks that every limit is usable.
func (c ExpansionConfig) Validate() error {
	if c.MaxOptionsPerGroup < 1 || c.MaxTotalCombinedImages < 1 || c.MaxPreviewCount < 0 || c.CreditsPerImage < 0 {
		return NewConfigError(ErrMsgConfigInvalid, "", nil)
	}
	return nil
}

// LoadConfigFile reads a YAML expansion config. Keys missing from the file
// keep their default values.
func LoadConfigFile(path string) (ExpansionConfig, error) {
	cfg := DefaultExpansionConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, NewConfigError(ErrMsgConfigRead, path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultExpansionConfig(), NewConfigError(ErrMsgConfigParse, path, err)
	}

	if err := cfg.Validate(); err != nil {
		return DefaultExpansionConfig(), err
	}

	return cfg, nil
}
