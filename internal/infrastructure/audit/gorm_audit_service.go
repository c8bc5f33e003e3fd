package audit

import (
	"context"

	"gorm.io/gorm"

	"github.com/turtacn/paytrust/internal/domain/models"
	"github.com/turtacn/paytrust/internal/domain/service"
)

// GormAuditService provides a GORM-backed implementation of the AuditService.
// It stores audit events in a relational database.
type GormAuditService struct {
	db *gorm.DB
}

// NewGormAuditService creates the service and migrates the audit table.
func NewGormAuditService(db *gorm.DB) (*GormAuditService, error) {
	if err := db.AutoMigrate(&models.AuditEvent{}); err != nil {
		return nil, err
	}
	return &GormAuditService{db: db}, nil
}

// LogEvent saves an AuditEvent to the database.
func (s *GormAuditService) LogEvent(ctx context.Context, event models.AuditEvent) error {
	return s.db.WithContext(ctx).Create(&event).Error
}

// ListByClient returns the most recent events of clientKey, newest first.
func (s *GormAuditService) ListByClient(ctx context.Context, clientKey string, limit int) ([]models.AuditEvent, error) {
	var events []models.AuditEvent
	err := s.db.WithContext(ctx).
		Where("client_key = ?", clientKey).
		Order("timestamp DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

var _ service.AuditService = (*GormAuditService)(nil)
