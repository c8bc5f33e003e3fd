package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/turtacn/paytrust/internal/domain/models"
	"github.com/turtacn/paytrust/internal/domain/service"
	"github.com/turtacn/paytrust/internal/infrastructure/crypto"
)

// Sealer computes and checks the HMAC-SHA512 seal of audit events.
type Sealer struct {
	pool *crypto.HMACPool
}

// NewSealer creates a sealer for secretKey.
func NewSealer(secretKey string) (*Sealer, error) {
	pool, err := crypto.NewHMACPool([]byte(secretKey))
	if err != nil {
		return nil, fmt.Errorf("audit seal key: %w", err)
	}
	return &Sealer{pool: pool}, nil
}

// SignAuditEvent calculates the seal over the JSON form of event with Seal cleared.
func (s *Sealer) SignAuditEvent(event models.AuditEvent) (string, error) {
	event.Seal = ""
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return "", err
	}
	return s.pool.Sign(eventBytes), nil
}

// VerifyAuditEvent checks the seal carried by event.
func (s *Sealer) VerifyAuditEvent(event models.AuditEvent) error {
	seal := event.Seal
	event.Seal = ""
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.pool.Verify(seal, eventBytes)
}

// SealingAuditService seals every event before handing it to the next sink.
type SealingAuditService struct {
	next   service.AuditService
	sealer *Sealer
}

// NewSealingAuditService creates a new SealingAuditService.
func NewSealingAuditService(next service.AuditService, sealer *Sealer) service.AuditService {
	return &SealingAuditService{next: next, sealer: sealer}
}

// LogEvent seals the event and forwards it.
func (s *SealingAuditService) LogEvent(ctx context.Context, event models.AuditEvent) error {
	seal, err := s.sealer.SignAuditEvent(event)
	if err != nil {
		return err
	}
	event.Seal = seal
	return s.next.LogEvent(ctx, event)
}
