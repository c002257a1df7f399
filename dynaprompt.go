// Package dynaprompt expands image prompts written in a small variation syntax
// into the concrete prompts a generation backend receives.
//
// Three constructs are recognized:
//
//	a [red, blue] car          bracket options: one prompt per option
//	a car | a truck | a bus    pipe steps: one prompt per segment, in order
//	a _hero_ in _city_         wild cards: one random entry per name
//
// Brackets and pipes combine as a cross product ("[a, b] cat | [c, d] dog"
// yields four prompts). Wild cards are resolved first, exactly once per
// expansion, and the resolved text is then checked and expanded.
//
// # Basic Usage
//
//	engine := dynaprompt.MustNew(
//	    dynaprompt.WithWildcards(dynaprompt.WildcardMap{
//	        "hero": {"knight", "wizard"},
//	    }),
//	)
//	result, err := engine.Expand(ctx, "a _hero_ holding a [sword, staff]")
//	// result.ExpandedPrompts: ["a wizard holding a sword", "a wizard holding a staff"]
//	// result.CreditCost:      40
//
// A rejected prompt is not an error: Expand returns a result with IsValid
// false, a user-facing warning, a suggestion and a Kind. Errors are reserved
// for failures of the wild card store.
//
// # Live Validation
//
// Validate applies the same structural checks and limits without touching a
// store, and Tokenize splits a prompt into highlighting tokens whose
// contents always concatenate back to the input.
//
// # Wild Card Stores
//
// Stores are pluggable through a driver registry:
//
//	store, err := dynaprompt.OpenStorage("filesystem", "./wildcards")
//	store, err := dynaprompt.OpenStorage("sqlite", "file:wildcards.db")
//	store, err := dynaprompt.OpenStorage("postgres", "postgres://...")
//
//	engine := dynaprompt.MustNew(dynaprompt.WithStore(store))
//
// # Companion Syntax
//
// {seed} slots, @! anchors and @tag references are detected and extracted by
// ExtractSlots, DetectAnchor and ParseReferenceTags. Their downstream
// processing belongs to the caller; ExpandSlots drives a SlotVariator and
// CachedEnhancer memoizes an Enhancer.
package dynaprompt
