package dynaprompt

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultExpansionConfig(t *testing.T) {
	cfg := DefaultExpansionConfig()
	assert.Equal(t, 10, cfg.MaxOptionsPerGroup)
	assert.Equal(t, 5, cfg.MaxPreviewCount)
	assert.Equal(t, 10, cfg.MaxTotalCombinedImages)
	assert.Equal(t, 20, cfg.CreditsPerImage)
	assert.True(t, cfg.TrimWhitespace)
	assert.True(t, cfg.Enabled(SyntaxBracket))
	assert.True(t, cfg.Enabled(SyntaxPipe))
	assert.True(t, cfg.Enabled(SyntaxWildcard))
	assert.NoError(t, cfg.Validate())
}

func TestExpansionConfig_Disable(t *testing.T) {
	base := DefaultExpansionConfig()
	cfg := base.DisablePipe().DisableWildcard()

	assert.False(t, cfg.Enabled(SyntaxPipe))
	assert.False(t, cfg.Enabled(SyntaxWildcard))
	assert.True(t, cfg.Enabled(SyntaxBracket))
	assert.True(t, base.Enabled(SyntaxPipe), "Disable returns a copy")
	assert.Equal(t, []string{"pipe", "wildcard"}, cfg.Disabled.Names())
}

func TestExpansionConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ExpansionConfig)
	}{
		{"zero options", func(c *ExpansionConfig) { c.MaxOptionsPerGroup = 0 }},
		{"zero combined", func(c *ExpansionConfig) { c.MaxTotalCombinedImages = 0 }},
		{"negative preview", func(c *ExpansionConfig) { c.MaxPreviewCount = -1 }},
		{"negative credits", func(c *ExpansionConfig) { c.CreditsPerImage = -5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultExpansionConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), ErrMsgConfigInvalid)
		})
	}
}

func TestParseSyntax(t *testing.T) {
	s, err := ParseSyntax(" Pipe ")
	require.NoError(t, err)
	assert.Equal(t, SyntaxPipe, s)

	_, err = ParseSyntax("brace")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgUnknownSyntaxName)

	assert.Equal(t, "bracket", SyntaxBracket.String())
	assert.Equal(t, "syntax(64)", Syntax(64).String())
}

func TestSyntaxSet_Encoding(t *testing.T) {
	set := NewSyntaxSet(SyntaxWildcard, SyntaxBracket)

	t.Run("json", func(t *testing.T) {
		data, err := json.Marshal(set)
		require.NoError(t, err)
		assert.JSONEq(t, `["bracket","wildcard"]`, string(data))

		var decoded SyntaxSet
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, set, decoded)

		assert.Error(t, json.Unmarshal([]byte(`["nope"]`), &decoded))
	})

	t.Run("yaml", func(t *testing.T) {
		data, err := yaml.Marshal(set)
		require.NoError(t, err)

		var decoded SyntaxSet
		require.NoError(t, yaml.Unmarshal(data, &decoded))
		assert.Equal(t, set, decoded)
	})

	t.Run("config omits empty set", func(t *testing.T) {
		data, err := json.Marshal(DefaultExpansionConfig())
		require.NoError(t, err)
		assert.NotContains(t, string(data), "disabled")
	})
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("overlays defaults", func(t *testing.T) {
		path := filepath.Join(dir, "partial.yaml")
		content := "max_total_combined_images: 20\ncredits_per_image: 15\ndisabled: [pipe]\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		cfg, err := LoadConfigFile(path)
		require.NoError(t, err)
		assert.Equal(t, 20, cfg.MaxTotalCombinedImages)
		assert.Equal(t, 15, cfg.CreditsPerImage)
		assert.Equal(t, DefaultMaxOptionsPerGroup, cfg.MaxOptionsPerGroup)
		assert.True(t, cfg.TrimWhitespace)
		assert.False(t, cfg.Enabled(SyntaxPipe))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfigFile(filepath.Join(dir, "absent.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrMsgConfigRead)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("max_options_per_group: [oops"), 0o644))
		_, err := LoadConfigFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrMsgConfigParse)
	})

	t.Run("invalid limits", func(t *testing.T) {
		path := filepath.Join(dir, "zero.yaml")
		require.NoError(t, os.WriteFile(path, []byte("max_options_per_group: 0\n"), 0o644))
		_, err := LoadConfigFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrMsgConfigInvalid)
	})
}
