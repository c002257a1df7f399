package dynaprompt

import "time"

// Expansion defaults
const (
	DefaultMaxOptionsPerGroup     = 10
	DefaultMaxPreviewCount        = 5
	DefaultMaxTotalCombinedImages = 10
	DefaultCreditsPerImage        = 20
	DefaultTrimWhitespace         = true
)

// Wildcard constraints
const (
	WildcardNameMaxLength = 50
	WildcardWrap          = "_"
	WildcardIDPrefix      = "wc_"
)

// Slot machine constraints
const (
	MaxSlotsPerPrompt     = 5
	MinSlotVariations     = 2
	MaxSlotVariations     = 5
	DefaultSlotVariations = 3
	SlotCommaReplacement  = " and "
)

// Separators used when rebuilding prompts
const (
	PipeJoinSeparator   = " | "
	OptionJoinSeparator = ", "
	ListJoinSeparator   = ", "
)

// Reference categories. A reference tag naming one of these is resolved by
// a random pick from that category rather than a specific tagged image.
const (
	ReferenceCategoryPeople  = "people"
	ReferenceCategoryPlaces  = "places"
	ReferenceCategoryProps   = "props"
	ReferenceCategoryLayouts = "layouts"
)

// Syntax names used in configuration files and flags
const (
	SyntaxNameBracket  = "bracket"
	SyntaxNamePipe     = "pipe"
	SyntaxNameWildcard = "wildcard"
)

// Detail levels for prompt enhancement
const (
	DetailLevelEnhanced  DetailLevel = "2x"
	DetailLevelCinematic DetailLevel = "3x"
)

// Enhancement cache defaults
const (
	DefaultEnhancementCacheTTL        = 30 * time.Minute
	DefaultEnhancementCacheMaxEntries = 500
)

// Storage driver names
const (
	StorageDriverNameMemory     = "memory"
	StorageDriverNameFilesystem = "filesystem"
	StorageDriverNamePostgres   = "postgres"
	StorageDriverNameSQLite     = "sqlite"
)

// Filesystem storage constants
const (
	FilesystemDirPermissions  = 0o755
	FilesystemFilePermissions = 0o644
	FilesystemDefaultPattern  = "**/*.{txt,yaml,yml,json,jsonc}"
	FilesystemReloadDebounce  = 250 * time.Millisecond
	FileExtensionText         = ".txt"
	FileExtensionYAML         = ".yaml"
	FileExtensionYML          = ".yml"
	FileExtensionJSON         = ".json"
	FileExtensionJSONC        = ".jsonc"
)

// PostgreSQL storage constants
const (
	PostgresDefaultMaxOpenConns    = 10
	PostgresDefaultMaxIdleConns    = 2
	PostgresDefaultConnMaxLifetime = 5 * time.Minute
	PostgresDefaultConnMaxIdleTime = 5 * time.Minute
	PostgresDefaultQueryTimeout    = 30 * time.Second
	PostgresTablePrefix            = "dynaprompt_"
)

// SQLite storage constants
const (
	SQLiteDriverName          = "sqlite"
	SQLiteDefaultQueryTimeout = 10 * time.Second
	SQLiteMemoryDSN           = ":memory:"
	SQLiteTablePrefix         = "dynaprompt_"
)

// Metrics constants
const (
	MetricsNamespace = "dynaprompt"
	MetricsSubsystem = "expander"
	MetricLabelMode  = "mode"
	MetricLabelKind  = "kind"
)

// Expansion mode names used in logs and metric labels
const (
	ModeNamePlain    = "plain"
	ModeNameBracket  = "bracket"
	ModeNamePipe     = "pipe"
	ModeNameCombined = "combined"
)

// Log message constants
const (
	LogMsgEngineCreated      = "engine created"
	LogMsgExpandStart        = "starting expansion"
	LogMsgExpandEnd          = "expansion complete"
	LogMsgExpandInvalid      = "expansion rejected"
	LogMsgWildcardsResolved  = "wildcards resolved"
	LogMsgWildcardsMissing   = "wildcards missing"
	LogMsgValidate           = "prompt validated"
	LogMsgStoreReloaded      = "wildcard store reloaded"
	LogMsgStoreReloadFailed  = "wildcard store reload failed"
	LogMsgStoreFileSkipped   = "wildcard file skipped"
	LogMsgWatcherStarted     = "wildcard watcher started"
	LogMsgWatcherStopped     = "wildcard watcher stopped"
	LogMsgEnhancementHit     = "enhancement cache hit"
	LogMsgEnhancementMiss    = "enhancement cache miss"
	LogMsgEnhancementFailed  = "enhancement failed"
	LogMsgCacheInvalidated   = "enhancement cache invalidated"
	LogMsgSlotsApplied       = "slot variations applied"
	LogMsgReferencesDetected = "reference tags detected"
)

// Log field names
const (
	LogFieldPromptLength = "prompt_length"
	LogFieldMode         = "mode"
	LogFieldCount        = "count"
	LogFieldLimit        = "limit"
	LogFieldKind         = "kind"
	LogFieldNames        = "names"
	LogFieldMissing      = "missing"
	LogFieldPath         = "path"
	LogFieldWildcards    = "wildcard_count"
	LogFieldDetailLevel  = "detail_level"
	LogFieldStyle        = "style"
	LogFieldSlots        = "slot_count"
	LogFieldDriver       = "driver"
)

// Metadata keys for cuserr.WithMetadata
const (
	MetaKeyAttempted  = "attempted"
	MetaKeyLimit      = "limit"
	MetaKeyMissing    = "missing"
	MetaKeyReason     = "reason"
	MetaKeyName       = "name"
	MetaKeySegments   = "segments"
	MetaKeyPath       = "path"
	MetaKeyKind       = "kind"
	MetaKeySeed       = "seed"
)

// Values of MetaKeyReason
const (
	ReasonNotFound = "not_found"
	ReasonInvalid  = "invalid"
)
