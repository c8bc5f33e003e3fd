package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/paytrust/pkg/constants"
)

// AuditEvent represents a single audit trail event of the signature layer.
// Seal is the HMAC of the event with Seal left empty, so stored events can be
// checked for tampering.
type AuditEvent struct {
	EventID      uuid.UUID                  `json:"event_id" gorm:"type:uuid;primaryKey"`
	EventType    constants.AuditEventType   `json:"event_type" gorm:"size:64;index"`
	Result       constants.AuditEventResult `json:"result" gorm:"size:16"`
	Scheme       constants.SignatureScheme  `json:"scheme,omitempty" gorm:"size:16"`
	ClientKey    string                     `json:"client_key,omitempty" gorm:"size:128;index"`
	ExternalID   string                     `json:"external_id,omitempty" gorm:"size:128"`
	ResponseCode string                     `json:"response_code,omitempty" gorm:"size:7"`
	ErrorKind    string                     `json:"error_kind,omitempty" gorm:"size:64"`
	IPAddress    string                     `json:"ip_address,omitempty" gorm:"size:64"`
	TraceID      string                     `json:"trace_id,omitempty" gorm:"size:64"`
	Message      string                     `json:"message,omitempty"`
	Metadata     json.RawMessage            `json:"metadata,omitempty" gorm:"type:text"`
	Timestamp    time.Time                  `json:"timestamp" gorm:"index"`
	Seal         string                     `json:"seal,omitempty" gorm:"size:128"`
}

// TableName pins the table name
func (AuditEvent) TableName() string {
	return "signature_audit_events"
}

// NewAuditEvent creates a new audit event.
func NewAuditEvent(eventType constants.AuditEventType, result constants.AuditEventResult, message string) *AuditEvent {
	return &AuditEvent{
		EventID:   uuid.New(),
		EventType: eventType,
		Result:    result,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// WithClient sets the client key and the signature scheme.
func (a *AuditEvent) WithClient(clientKey string, scheme constants.SignatureScheme) *AuditEvent {
	a.ClientKey = clientKey
	a.Scheme = scheme
	return a
}

// WithExternalID sets the X-EXTERNAL-ID of the request.
func (a *AuditEvent) WithExternalID(externalID string) *AuditEvent {
	a.ExternalID = externalID
	return a
}

// WithOutcome sets the response code and, for failures, the error kind.
func (a *AuditEvent) WithOutcome(responseCode, errorKind string) *AuditEvent {
	a.ResponseCode = responseCode
	a.ErrorKind = errorKind
	return a
}

// WithContextInfo sets context-related information.
func (a *AuditEvent) WithContextInfo(ip, traceID string) *AuditEvent {
	a.IPAddress = ip
	a.TraceID = traceID
	return a
}

// WithMetadata sets JSON metadata for the audit event.
func (a *AuditEvent) WithMetadata(data interface{}) *AuditEvent {
	jsonData, err := json.Marshal(data)
	if err == nil {
		a.Metadata = jsonData
	}
	return a
}

//Personal.AI order the ending
