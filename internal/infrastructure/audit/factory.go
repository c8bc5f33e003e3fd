package audit

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/turtacn/paytrust/internal/config"
	"github.com/turtacn/paytrust/internal/domain/models"
	"github.com/turtacn/paytrust/internal/domain/service"
	"github.com/turtacn/paytrust/pkg/logger"
)

// NoopAuditService drops every event. It is used when auditing is disabled.
type NoopAuditService struct{}

// LogEvent does nothing.
func (NoopAuditService) LogEvent(context.Context, models.AuditEvent) error { return nil }

// NewAuditService builds the sink selected by cfg.Sink and wraps it in a
// SealingAuditService when a seal key is configured. The returned close
// function releases the sink and is never nil.
func NewAuditService(cfg *config.Config, db *gorm.DB, log logger.Logger) (service.AuditService, func() error, error) {
	noClose := func() error { return nil }
	if !cfg.Audit.Enabled {
		return NoopAuditService{}, noClose, nil
	}

	var (
		sink    service.AuditService
		closeFn = noClose
	)
	switch cfg.Audit.Sink {
	case "", "log":
		sink = NewLogAuditService(log)
	case "kafka":
		producer := NewKafkaProducer(cfg.Kafka, log)
		sink, closeFn = producer, producer.Close
	case "database":
		if db == nil {
			return nil, noClose, fmt.Errorf("audit sink %q needs database.enabled", cfg.Audit.Sink)
		}
		gormSink, err := NewGormAuditService(db)
		if err != nil {
			return nil, noClose, fmt.Errorf("migrate audit table: %w", err)
		}
		sink = gormSink
	default:
		return nil, noClose, fmt.Errorf("unknown audit sink %q", cfg.Audit.Sink)
	}

	if cfg.Audit.SealKey == "" {
		return sink, closeFn, nil
	}
	sealer, err := NewSealer(cfg.Audit.SealKey)
	if err != nil {
		_ = closeFn()
		return nil, noClose, err
	}
	return NewSealingAuditService(sink, sealer), closeFn, nil
}

var _ service.AuditService = NoopAuditService{}
