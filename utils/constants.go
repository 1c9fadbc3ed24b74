package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// AccessTokenTTLSeconds is the time-to-live for access tokens in seconds (86400 seconds = 24 hours)
	AccessTokenTTLSeconds = 86400

	// RefreshTokenTTL is the time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour

	// SessionTimeout is the default session timeout (24 hours)
	SessionTimeout = 24 * time.Hour
)

// ContextKey is the type used for request-scoped context values
type ContextKey string

// Request-scoped context keys set by handlers for observability
const (
	RequestIDKey  ContextKey = "request_id"
	UserAgentKey  ContextKey = "user_agent"
	IPAddressKey  ContextKey = "ip_address"
	EndpointKey   ContextKey = "endpoint"
	TimeoutKey    ContextKey = "timeout"
	CancelFuncKey ContextKey = "cancel_func"
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Posting constants
const (
	// TwitterCharacterLimit is the maximum length of a tweet body
	TwitterCharacterLimit = 280

	// DefaultScheduleHour and DefaultScheduleMinute are used when a schedule
	// carries no explicit time of day
	DefaultScheduleHour   = 12
	DefaultScheduleMinute = 0

	// AnnualRepostWindow is the minimum gap between two sends of an annual schedule
	AnnualRepostWindow = 365 * 24 * time.Hour
)
