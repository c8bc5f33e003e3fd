package audit

import (
	"context"

	"github.com/turtacn/paytrust/internal/domain/models"
	"github.com/turtacn/paytrust/internal/domain/service"
	"github.com/turtacn/paytrust/pkg/logger"
)

// LogAuditService writes audit events to the structured log.
type LogAuditService struct {
	logger logger.Logger
}

// NewLogAuditService creates a new LogAuditService.
func NewLogAuditService(log logger.Logger) *LogAuditService {
	return &LogAuditService{logger: log.WithComponent("audit")}
}

// LogEvent logs the event at info level.
func (s *LogAuditService) LogEvent(ctx context.Context, event models.AuditEvent) error {
	s.logger.Info(ctx, "Audit event", logger.Fields{
		"event_id":      event.EventID.String(),
		"event_type":    string(event.EventType),
		"result":        string(event.Result),
		"scheme":        string(event.Scheme),
		"client_key":    event.ClientKey,
		"external_id":   event.ExternalID,
		"response_code": event.ResponseCode,
		"error_kind":    event.ErrorKind,
		"ip_address":    event.IPAddress,
		"message":       event.Message,
		"seal":          event.Seal,
	})
	return nil
}

var _ service.AuditService = (*LogAuditService)(nil)
