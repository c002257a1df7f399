package main

import "time"

// CLI metadata
const (
	CLIName        = "dynaprompt"
	CLIShort       = "Expand, validate and tokenize dynamic image prompts"
	EnvPrefix      = "DYNAPROMPT"
	DefaultEnvFile = ".env"
)

// Command names
const (
	CmdNameTokenize  = "tokenize"
	CmdNameValidate  = "validate"
	CmdNameExpand    = "expand"
	CmdNameAnalyze   = "analyze"
	CmdNameWildcards = "wildcards"
	CmdNameList      = "list"
	CmdNameShow      = "show"
	CmdNameAdd       = "add"
	CmdNameRemove    = "remove"
	CmdNameServe     = "serve"
	CmdNameVersion   = "version"
)

// Flag names
const (
	FlagConfig      = "config"
	FlagEnvFile     = "env-file"
	FlagVerbose     = "verbose"
	FlagFormat      = "format"
	FlagStore       = "store"
	FlagDSN         = "dsn"
	FlagLimits      = "limits"
	FlagDisable     = "disable"
	FlagFile        = "file"
	FlagSeed        = "seed"
	FlagSurcharge   = "surcharge"
	FlagCategory    = "category"
	FlagPrefix      = "prefix"
	FlagShared      = "shared"
	FlagLimit       = "limit"
	FlagOffset      = "offset"
	FlagDescription = "description"
	FlagAddr        = "addr"
	FlagWatch       = "watch"
)

// Flag names - short form
const (
	FlagFormatShort  = "F"
	FlagFileShort    = "f"
	FlagVerboseShort = "v"
	FlagStoreShort   = "s"
)

// Viper configuration keys. Environment variables use the EnvPrefix and
// upper case, e.g. DYNAPROMPT_STORE.
const (
	ConfigKeyStore   = "store"
	ConfigKeyDSN     = "dsn"
	ConfigKeyLimits  = "limits"
	ConfigKeyDisable = "disable"
	ConfigKeyFormat  = "format"
	ConfigKeyVerbose = "verbose"
	ConfigKeyAddr    = "addr"
	ConfigKeyWatch   = "watch"
)

// Flag default values
const (
	FlagDefaultFormat = OutputFormatText
	FlagDefaultAddr   = ":8080"
)

// Output formats
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
)

// Exit codes
const (
	ExitCodeSuccess         = 0
	ExitCodeError           = 1
	ExitCodeUsageError      = 2
	ExitCodeValidationError = 3
	ExitCodeInputError      = 4
)

// Input source indicators
const (
	InputSourceStdin = "-"
)

// Server settings
const (
	ServerReadHeaderTimeout = 10 * time.Second
	ServerShutdownTimeout   = 10 * time.Second
)

// Error messages - ALL must be constants
const (
	ErrMsgMissingPrompt      = "prompt required: pass it as arguments, with --file, or - for stdin"
	ErrMsgReadFileFailed     = "failed to read file"
	ErrMsgReadStdinFailed    = "failed to read from stdin"
	ErrMsgInvalidFormat      = "invalid output format"
	ErrMsgEnvFileFailed      = "failed to load env file"
	ErrMsgConfigFileFailed   = "failed to read config file"
	ErrMsgLimitsFailed       = "failed to load limits file"
	ErrMsgInvalidDisable     = "invalid --disable value"
	ErrMsgInvalidSurcharge   = "invalid --surcharge value, expected label=credits"
	ErrMsgStoreRequired      = "a wildcard store is required: set --store or DYNAPROMPT_STORE"
	ErrMsgStoreOpenFailed    = "failed to open wildcard store"
	ErrMsgStoreFailed        = "wildcard store operation failed"
	ErrMsgEngineFailed       = "failed to create engine"
	ErrMsgInvalidWildcard    = "invalid wildcard"
	ErrMsgServerFailed       = "server failed"
	ErrMsgWatchFailed        = "failed to watch wildcard directory"
	ErrMsgWatchNeedsFS       = "--watch requires the filesystem store"
	ErrMsgJSONMarshalFailed  = "failed to marshal JSON"
	ErrMsgWriteOutputFailed  = "failed to write output"
	ErrMsgWildcardEntriesReq = "at least one entry is required, as arguments or with --file"
)

// Log messages
const (
	LogMsgStoreOpened    = "wildcard store opened"
	LogMsgServerStarting = "http server starting"
	LogMsgServerStopped  = "http server stopped"
)

// Log fields
const (
	LogFieldAddr = "addr"
)

// Output format strings
const (
	FmtError            = "Error: %s\n"
	FmtErrorWithCause   = "Error: %s: %v\n"
	FmtTokenLine        = "%-22s %q\n"
	FmtValidLine        = "Valid: %d image(s)\n"
	FmtInvalidLine      = "Invalid: %s\n"
	FmtSuggestionLine   = "Suggestion: %s\n"
	FmtPromptLine       = "%d. %s\n"
	FmtCostLine         = "Cost: %s\n"
	FmtWarningLine      = "Warning: %s\n"
	FmtWildcardLine     = "%s (%d entries)\n"
	FmtWildcardCatLine  = "%s (%d entries) [%s]\n"
	FmtSavedLine        = "Saved %s (%d entries)\n"
	FmtRemovedLine      = "Removed %s\n"
	FmtAnchorLine       = "Anchor: %t\n"
	FmtListLine         = "%s: %s\n"
	FmtVersionText      = "%s version %s\nCommit: %s\nGo: %s\n"
	ListSeparator       = ", "
	AnalyzeLabelNames   = "Wildcards"
	AnalyzeLabelRefs    = "References"
	AnalyzeLabelSlots   = "Slots"
	VersionUnknown      = "unknown"
	BuildSettingVCSHash = "vcs.revision"
)
