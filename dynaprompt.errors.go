package dynaprompt

import (
	"errors"
	"math/big"
	"strconv"
	"strings"

	"github.com/itsatony/go-cuserr"
)

// Error message constants - ALL error messages must be constants (NO MAGIC STRINGS)
const (
	// Structural syntax errors
	ErrMsgMissingClosingBracket = "Missing closing bracket ]"
	ErrMsgMissingOpeningBracket = "Missing opening bracket ["
	ErrMsgMultipleBrackets      = "Multiple brackets not supported"
	ErrMsgEmptyBrackets         = "Empty brackets"
	ErrMsgEmptyPipes            = "Empty pipe variations"
	ErrMsgTooManySlots          = "Too many {brackets}. Maximum is 5"

	// Wildcard errors
	ErrMsgMissingWildcards     = "Missing wild cards"
	ErrMsgWildcardNameEmpty    = "wild card name cannot be empty"
	ErrMsgWildcardNameInvalid  = "wild card name may only contain letters, numbers and underscores"
	ErrMsgWildcardNameTooLong  = "wild card name must be 50 characters or fewer"
	ErrMsgWildcardContentEmpty = "wild card content must contain at least one non-empty line"
	ErrMsgWildcardExists       = "wild card already exists"
	ErrMsgWildcardNotFound     = "wild card not found"

	// Limit errors
	ErrMsgTooManyBracketOptions = "Too many bracket options"
	ErrMsgTooManyPipeVariations = "Too many pipe variations"
	ErrMsgTooManyCombined       = "Too many combined variations"

	// Config errors
	ErrMsgConfigRead          = "failed to read config file"
	ErrMsgConfigParse         = "failed to parse config file"
	ErrMsgConfigInvalid       = "invalid expansion config"
	ErrMsgUnknownSyntaxName   = "unknown syntax name"
	ErrMsgUnknownDetailLevel  = "unknown detail level"
	ErrMsgEnhancerNil         = "enhancer cannot be nil"
	ErrMsgEnhancementFailed   = "prompt enhancement failed"
	ErrMsgSnapshotFailed      = "failed to snapshot wild card store"
	ErrMsgSlotVariatorFailed  = "slot variation generation failed"
	ErrMsgSlotVariationsShort = "not enough variations for slot"
)

// Error code constants for categorization
const (
	ErrCodeSyntax   = "DYNAPROMPT_SYNTAX"
	ErrCodeWildcard = "DYNAPROMPT_WILDCARD"
	ErrCodeLimit    = "DYNAPROMPT_LIMIT"
	ErrCodeConfig   = "DYNAPROMPT_CONFIG"
	ErrCodeStorage  = "DYNAPROMPT_STORAGE"
	ErrCodeEnhance  = "DYNAPROMPT_ENHANCE"
)

// ErrorKind classifies why an expansion or validation was rejected.
type ErrorKind int

const (
	// KindNone means the prompt was accepted
	KindNone ErrorKind = iota
	// KindStructuralSyntax covers unbalanced or empty brackets, multiple groups and empty pipes
	KindStructuralSyntax
	// KindMissingWildcard means a referenced wild card has no entries
	KindMissingWildcard
	// KindLimitExceeded means an option or combination cap was hit
	KindLimitExceeded
)

// String returns the kind name used in logs and metric labels
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindStructuralSyntax:
		return "structural_syntax"
	case KindMissingWildcard:
		return "missing_wildcard"
	case KindLimitExceeded:
		return "limit_exceeded"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name; unknown names become KindNone
func (k *ErrorKind) UnmarshalText(text []byte) error {
	*k = KindNone
	for _, kind := range []ErrorKind{KindStructuralSyntax, KindMissingWildcard, KindLimitExceeded} {
		if kind.String() == string(text) {
			*k = kind
		}
	}
	return nil
}

// NewStructuralSyntaxError creates an error for malformed bracket or pipe syntax
func NewStructuralSyntaxError(msg string) error {
	return cuserr.NewValidationError(ErrCodeSyntax, msg).
		WithMetadata(MetaKeyKind, KindStructuralSyntax.String())
}

// NewMissingWildcardError creates an error listing the undefined wild card names
func NewMissingWildcardError(missing []string) error {
	return cuserr.NewValidationError(ErrCodeWildcard, ErrMsgMissingWildcards).
		WithMetadata(MetaKeyKind, KindMissingWildcard.String()).
		WithMetadata(MetaKeyMissing, strings.Join(missing, ListJoinSeparator))
}

// NewLimitExceededError creates an error for an option or combination cap
func NewLimitExceededError(msg string, attempted, limit int) error {
	return cuserr.NewValidationError(ErrCodeLimit, msg).
		WithMetadata(MetaKeyKind, KindLimitExceeded.String()).
		WithMetadata(MetaKeyAttempted, strconv.Itoa(attempted)).
		WithMetadata(MetaKeyLimit, strconv.Itoa(limit))
}

// NewCombinedLimitError creates a limit error for a bracket+pipe cross
// product. The attempted count is exact since it can exceed an int.
func NewCombinedLimitError(attempted *big.Int, limit int, segmentCounts string) error {
	return cuserr.NewValidationError(ErrCodeLimit, ErrMsgTooManyCombined).
		WithMetadata(MetaKeyKind, KindLimitExceeded.String()).
		WithMetadata(MetaKeyAttempted, attempted.String()).
		WithMetadata(MetaKeyLimit, strconv.Itoa(limit)).
		WithMetadata(MetaKeySegments, segmentCounts)
}

// NewSlotVariationsError reports a slot without usable variations, or a
// mismatch between slots and variation lists
func NewSlotVariationsError(expected, actual int, seed string) error {
	return cuserr.NewValidationError(ErrCodeSyntax, ErrMsgSlotVariationsShort).
		WithMetadata(MetaKeyAttempted, strconv.Itoa(actual)).
		WithMetadata(MetaKeyLimit, strconv.Itoa(expected)).
		WithMetadata(MetaKeySeed, seed)
}

// NewSlotVariatorError wraps a SlotVariator failure
func NewSlotVariatorError(seed string, cause error) error {
	return cuserr.WrapStdError(cause, ErrCodeEnhance, ErrMsgSlotVariatorFailed).
		WithMetadata(MetaKeySeed, seed)
}

// NewWildcardNameError creates an invalid wild card name error
func NewWildcardNameError(msg, name string) error {
	return cuserr.NewValidationError(ErrCodeWildcard, msg).
		WithMetadata(MetaKeyName, name).
		WithMetadata(MetaKeyReason, ReasonInvalid)
}

// NewWildcardNotFoundError creates a wild card not found error
func NewWildcardNotFoundError(name string) error {
	return cuserr.NewNotFoundError(MetaKeyName, ErrMsgWildcardNotFound).
		WithMetadata(MetaKeyName, name).
		WithMetadata(MetaKeyReason, ReasonNotFound)
}

// NewConfigError wraps a configuration failure
func NewConfigError(msg, path string, cause error) error {
	var err *cuserr.CustomError
	if cause != nil {
		err = cuserr.WrapStdError(cause, ErrCodeConfig, msg)
	} else {
		err = cuserr.NewValidationError(ErrCodeConfig, msg)
	}
	if path != "" {
		err = err.WithMetadata(MetaKeyPath, path)
	}
	return err
}

// NewEnhancementError wraps a failure from an Enhancer
func NewEnhancementError(cause error) error {
	return cuserr.WrapStdError(cause, ErrCodeEnhance, ErrMsgEnhancementFailed)
}

// NewSnapshotError wraps a store failure while taking a wild card snapshot
func NewSnapshotError(cause error) error {
	return cuserr.WrapStdError(cause, ErrCodeStorage, ErrMsgSnapshotFailed)
}

// KindOf extracts the ErrorKind from an error produced by this package.
// Errors not created here report KindNone.
func KindOf(err error) ErrorKind {
	var customErr *cuserr.CustomError
	if err == nil || !errors.As(err, &customErr) {
		return KindNone
	}
	name, ok := customErr.GetMetadata(MetaKeyKind)
	if !ok {
		return KindNone
	}
	var kind ErrorKind
	_ = kind.UnmarshalText([]byte(name))
	return kind
}

// IsNotFound reports whether err is a missing wild card error
func IsNotFound(err error) bool {
	return reasonOf(err) == ReasonNotFound
}

// IsInvalidDefinition reports whether err rejects a wild card name or its
// content
func IsInvalidDefinition(err error) bool {
	return reasonOf(err) == ReasonInvalid
}

func reasonOf(err error) string {
	var customErr *cuserr.CustomError
	if err == nil || !errors.As(err, &customErr) {
		return ""
	}
	reason, _ := customErr.GetMetadata(MetaKeyReason)
	return reason
}
