package httpapi

import "time"

// Route paths
const (
	PathHealth    = "/healthz"
	PathMetrics   = "/metrics"
	PathTokenize  = "/v1/tokenize"
	PathValidate  = "/v1/validate"
	PathExpand    = "/v1/expand"
	PathAnalyze   = "/v1/analyze"
	PathWildcards = "/v1/wildcards"
)

// Query parameters
const (
	QueryCategory = "category"
	QueryPrefix   = "prefix"
	QueryShared   = "shared"
	QueryLimit    = "limit"
	QueryOffset   = "offset"
)

// Request limits
const (
	MaxRequestBodyBytes = 1 << 20
	RequestTimeout      = 30 * time.Second
)

// Header values
const (
	HeaderContentType = "Content-Type"
	ContentTypeJSON   = "application/json"
	HealthStatusOK    = "ok"
)

// Error messages
const (
	ErrMsgInvalidBody     = "invalid request body"
	ErrMsgInvalidQuery    = "invalid query parameter"
	ErrMsgStoreFailed     = "wildcard store failed"
	ErrMsgNoStore         = "no wildcard store configured"
	ErrMsgMetricsDisabled = "metrics are not enabled"
)

// Log messages
const (
	LogMsgRequest       = "http request"
	LogMsgRequestFailed = "http request failed"
)

// Log fields
const (
	LogFieldMethod   = "method"
	LogFieldPath     = "path"
	LogFieldStatus   = "status"
	LogFieldDuration = "duration"
)
