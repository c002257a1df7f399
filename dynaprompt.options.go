package dynaprompt

import (
	"go.uber.org/zap"
)

// Option is a functional option for configuring the Engine.
type Option func(*engineConfig)

// engineConfig holds the internal configuration for an Engine.
type engineConfig struct {
	expansion ExpansionConfig
	store     WildcardStore
	lookup    WildcardLookup
	picker    Picker
	metrics   *Metrics
	logger    *zap.Logger
}

// defaultEngineConfig returns the default engine configuration.
func defaultEngineConfig() *engineConfig {
	return &engineConfig{
		expansion: DefaultExpansionConfig(),
		picker:    DefaultPicker,
	}
}

// WithConfig sets the expansion limits and enabled syntaxes.
// Default: DefaultExpansionConfig()
func WithConfig(cfg ExpansionConfig) Option {
	return func(c *engineConfig) {
		c.expansion = cfg
	}
}

// WithStore sets the wild card store. A snapshot is taken on every
// expansion. Takes precedence over WithWildcards.
func WithStore(store WildcardStore) Option {
	return func(c *engineConfig) {
		c.store = store
	}
}

// WithWildcards sets a fixed wild card dictionary.
// Default: none (every wild card is missing)
func WithWildcards(lookup WildcardLookup) Option {
	return func(c *engineConfig) {
		c.lookup = lookup
	}
}

// WithPicker sets the random choice used for wild card draws. Tests use
// it to make expansion deterministic.
// Default: DefaultPicker
func WithPicker(pick Picker) Option {
	return func(c *engineConfig) {
		if pick != nil {
			c.picker = pick
		}
	}
}

// WithMetrics records expansion outcomes.
// Default: nil (no metrics)
func WithMetrics(m *Metrics) Option {
	return func(c *engineConfig) {
		c.metrics = m
	}
}

// WithLogger sets the logger for the engine.
// Default: nil (no logging)
func WithLogger(logger *zap.Logger) Option {
	return func(c *engineConfig) {
		c.logger = logger
	}
}
