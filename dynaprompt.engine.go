package dynaprompt

import (
	"context"

	"go.uber.org/zap"
)

// Engine ties the expander to a wild card source, limits and telemetry.
// It is safe for concurrent use.
type Engine struct {
	config  ExpansionConfig
	store   WildcardStore
	lookup  WildcardLookup
	picker  Picker
	metrics *Metrics
	logger  *zap.Logger
}

// New creates an Engine. It fails if the expansion config is invalid.
func New(opts ...Option) (*Engine, error) {
	config := defaultEngineConfig()
	for _, opt := range opts {
		opt(config)
	}

	if err := config.expansion.Validate(); err != nil {
		return nil, err
	}

	logger := config.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	logger.Debug(LogMsgEngineCreated,
		zap.Strings(LogFieldNames, config.expansion.Disabled.Names()),
		zap.Int(LogFieldLimit, config.expansion.MaxTotalCombinedImages))

	return &Engine{
		config:  config.expansion,
		store:   config.store,
		lookup:  config.lookup,
		picker:  config.picker,
		metrics: config.metrics,
		logger:  logger,
	}, nil
}

// MustNew creates an Engine or panics on error.
func MustNew(opts ...Option) *Engine {
	engine, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return engine
}

// Config returns the expansion limits in effect
func (e *Engine) Config() ExpansionConfig {
	return e.config
}

// Store returns the configured wild card store, if any
func (e *Engine) Store() WildcardStore {
	return e.store
}

// Metrics returns the configured metrics, if any
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// Tokenize splits a prompt into highlighting tokens.
func (e *Engine) Tokenize(prompt string) []Token {
	return tokenize(prompt, e.logger)
}

// Validate checks bracket and pipe structure using the engine's limits.
func (e *Engine) Validate(prompt string) ValidationResult {
	result := Validate(prompt, e.config)
	e.logger.Debug(LogMsgValidate,
		zap.Int(LogFieldPromptLength, len(prompt)),
		zap.String(LogFieldKind, result.Kind.String()))
	return result
}

// Expand resolves wild cards from a fresh snapshot and expands the prompt.
// The returned error covers store failures only; a rejected prompt is a
// result with IsValid false.
func (e *Engine) Expand(ctx context.Context, prompt string, surcharges ...Surcharge) (*ExpansionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lookup, err := e.snapshot(ctx, prompt)
	if err != nil {
		return nil, err
	}

	result := expand(prompt, e.config, lookup, e.picker, surcharges, e.logger)
	e.metrics.observeExpansion(result)
	return result, nil
}

// Wildcards returns the current dictionary as a lookup.
func (e *Engine) Wildcards(ctx context.Context) (WildcardLookup, error) {
	if e.store == nil {
		if e.lookup == nil {
			return WildcardMap{}, nil
		}
		return e.lookup, nil
	}
	lookup, err := e.store.Snapshot(ctx)
	if err != nil {
		return nil, NewSnapshotError(err)
	}
	return lookup, nil
}

// snapshot skips the store when the prompt cannot reference a wild card
func (e *Engine) snapshot(ctx context.Context, prompt string) (WildcardLookup, error) {
	if !e.config.Enabled(SyntaxWildcard) || len(ExtractWildcardNames(prompt)) == 0 {
		return e.lookup, nil
	}
	return e.Wildcards(ctx)
}
