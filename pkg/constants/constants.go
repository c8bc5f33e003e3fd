// Package constants defines system-wide constants for the paytrust gateway.
// This package provides type-safe constant definitions used across all modules.
package constants

import "time"

// ================================================================================
// Signature Scheme Constants
// ================================================================================

// SignatureScheme identifies the signing primitive used for a request
type SignatureScheme string

const (
	// SchemeSymmetric is HMAC-SHA512 over a shared client secret
	SchemeSymmetric SignatureScheme = "symmetric"

	// SchemeAsymmetric is RSA PKCS#1 v1.5 with SHA-256 over a key pair
	SchemeAsymmetric SignatureScheme = "asymmetric"
)

// ================================================================================
// Request Header Constants
// ================================================================================

const (
	// HeaderTimestamp carries the client timestamp included in the string to sign
	HeaderTimestamp = "X-TIMESTAMP"

	// HeaderSignature carries the base64 signature of the request
	HeaderSignature = "X-SIGNATURE"

	// HeaderClientKey identifies the client on access token requests
	HeaderClientKey = "X-CLIENT-KEY"

	// HeaderPartnerID identifies the client on transactional requests
	HeaderPartnerID = "X-PARTNER-ID"

	// HeaderExternalID is the per-day unique request reference
	HeaderExternalID = "X-EXTERNAL-ID"

	// HeaderChannelID identifies the partner channel
	HeaderChannelID = "CHANNEL-ID"

	// HeaderAuthorization carries the bearer access token
	HeaderAuthorization = "Authorization"

	// HeaderRequestID carries the request correlation id
	HeaderRequestID = "X-Request-ID"
)

// ================================================================================
// Response Code Constants
// ================================================================================

const (
	// StatusWeight is the multiplier for the HTTP status part of a response code
	StatusWeight = 10_000

	// ServiceWeight is the multiplier for the service part of a response code
	ServiceWeight = 100

	// MaxServiceCode is the largest service partition identifier
	MaxServiceCode = 99

	// MaxCaseCode is the largest per-status case index
	MaxCaseCode = 99

	// SuccessMessage is the response message of every successful call
	SuccessMessage = "Successful"
)

// Well-known service codes of the SNAP catalogue used by the gateway's own endpoints.
const (
	// ServiceCodeGeneric is used when no product-specific partition applies
	ServiceCodeGeneric uint8 = 0

	// ServiceCodeAccessTokenB2B partitions the B2B access token endpoint
	ServiceCodeAccessTokenB2B uint8 = 73

	// ServiceCodeSignatureUtility partitions the signature utility endpoints
	ServiceCodeSignatureUtility uint8 = 99
)

// ================================================================================
// Timing Constants
// ================================================================================

const (
	// DefaultTimestampSkew is the accepted clock difference for X-TIMESTAMP
	DefaultTimestampSkew = 5 * time.Minute

	// ClientCredentialCacheTTL is the in-memory lifetime of resolved client credentials
	ClientCredentialCacheTTL = 10 * time.Minute

	// ClientCredentialCacheCleanup is the purge interval of the credential cache
	ClientCredentialCacheCleanup = 20 * time.Minute

	// ExternalIDRetention is how long an X-EXTERNAL-ID stays reserved
	ExternalIDRetention = 24 * time.Hour

	// ShutdownTimeout bounds graceful HTTP shutdown
	ShutdownTimeout = 30 * time.Second
)

// ================================================================================
// Audit Event Constants
// ================================================================================

// AuditEventType represents different types of auditable events
type AuditEventType string

const (
	// EventTypeSignatureVerified is emitted when an inbound signature is accepted
	EventTypeSignatureVerified AuditEventType = "signature_verified"

	// EventTypeSignatureRejected is emitted when an inbound signature is refused
	EventTypeSignatureRejected AuditEventType = "signature_rejected"

	// EventTypeKeyMaterialInvalid is emitted when configured key material cannot be loaded
	EventTypeKeyMaterialInvalid AuditEventType = "key_material_invalid"

	// EventTypeSignatureIssued is emitted when the gateway signs on behalf of a client
	EventTypeSignatureIssued AuditEventType = "signature_issued"

	// EventTypeDuplicateExternalID is emitted when an X-EXTERNAL-ID is replayed
	EventTypeDuplicateExternalID AuditEventType = "duplicate_external_id"
)

// AuditEventResult represents the result of an audited event
type AuditEventResult string

const (
	// AuditResultSuccess indicates the event succeeded
	AuditResultSuccess AuditEventResult = "success"

	// AuditResultFailure indicates the event failed
	AuditResultFailure AuditEventResult = "failure"
)

// ================================================================================
// Logging Constants
// ================================================================================

// LogLevel represents the severity level of log messages
type LogLevel string

const (
	// LogLevelDebug is the most verbose logging level
	LogLevelDebug LogLevel = "debug"

	// LogLevelInfo is the standard informational logging level
	LogLevelInfo LogLevel = "info"

	// LogLevelWarn indicates potential issues
	LogLevelWarn LogLevel = "warn"

	// LogLevelError indicates errors that need attention
	LogLevelError LogLevel = "error"
)

// ================================================================================
// Context Key Constants
// ================================================================================

// ContextKey represents keys used in context.Context
type ContextKey string

const (
	// ContextKeyRequestID is the key for request ID in context
	ContextKeyRequestID ContextKey = "request_id"

	// ContextKeyTraceID is the key for distributed trace ID in context
	ContextKeyTraceID ContextKey = "trace_id"

	// ContextKeyClientID is the key for the authenticated client in context
	ContextKeyClientID ContextKey = "client_id"

	// ContextKeyServiceCode is the key for the endpoint's service code in gin context
	ContextKeyServiceCode ContextKey = "service_code"

	// ContextKeyClientIP is the key for the caller's IP address in context
	ContextKeyClientIP ContextKey = "client_ip"
)

//Personal.AI order the ending
