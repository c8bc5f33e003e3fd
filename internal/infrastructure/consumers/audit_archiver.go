// Package consumers contains Kafka consumers for background processing tasks.
package consumers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/paytrust/internal/config"
	"github.com/turtacn/paytrust/internal/domain/models"
	"github.com/turtacn/paytrust/internal/domain/service"
	"github.com/turtacn/paytrust/internal/infrastructure/audit"
	"github.com/turtacn/paytrust/pkg/logger"
)

const (
	storeAttempts = 3
	retryBackoff  = 200 * time.Millisecond
	fetchBackoff  = time.Second
)

// messageReader is the subset of *kafka.Reader the archiver needs.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// AuditArchiver drains the audit topic into a durable store. Every instance of
// the gateway's archiver shares one consumer group, so each event is archived once.
// Events whose seal does not verify are logged and dropped.
type AuditArchiver struct {
	reader messageReader
	store  service.AuditService
	sealer *audit.Sealer
	logger logger.Logger
}

// NewAuditArchiver creates an archiver reading cfg.AuditTopic. A nil sealer
// stores events without checking their seal.
func NewAuditArchiver(cfg config.KafkaConfig, store service.AuditService, sealer *audit.Sealer, log logger.Logger) *AuditArchiver {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.AuditTopic,
		GroupID:        cfg.ConsumerGroup,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
	})
	return newAuditArchiver(reader, store, sealer, log)
}

func newAuditArchiver(r messageReader, store service.AuditService, sealer *audit.Sealer, log logger.Logger) *AuditArchiver {
	return &AuditArchiver{
		reader: r,
		store:  store,
		sealer: sealer,
		logger: log.WithComponent("AuditArchiver"),
	}
}

// Run consumes until ctx is cancelled. It is a blocking call.
func (a *AuditArchiver) Run(ctx context.Context) error {
	a.logger.Info(ctx, "starting audit archiver")
	defer a.logger.Info(context.Background(), "audit archiver stopped")

	for {
		msg, err := a.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || stderrors.Is(err, context.Canceled) {
				return nil
			}
			a.logger.Error(ctx, "failed to fetch message from kafka", err)
			if !sleep(ctx, fetchBackoff) {
				return nil
			}
			continue
		}

		if err := a.handle(ctx, msg); err != nil {
			// 不提交偏移量，等待重平衡后重新投递
			a.logger.Error(ctx, "failed to archive audit event", err, logger.Fields{
				"partition": msg.Partition,
				"offset":    msg.Offset,
			})
			continue
		}
		if err := a.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			a.logger.Error(ctx, "failed to commit audit message", err)
		}
	}
}

// Close closes the underlying reader.
func (a *AuditArchiver) Close() error {
	return a.reader.Close()
}

// handle returns an error only for failures worth redelivering.
func (a *AuditArchiver) handle(ctx context.Context, msg kafka.Message) error {
	var event models.AuditEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		a.logger.Error(ctx, "dropping undecodable audit message", err, logger.Fields{"offset": msg.Offset})
		return nil
	}

	if a.sealer != nil {
		if err := a.sealer.VerifyAuditEvent(event); err != nil {
			a.logger.Error(ctx, "dropping audit event with invalid seal", err, logger.Fields{
				"event_id":   event.EventID.String(),
				"client_key": event.ClientKey,
			})
			return nil
		}
	}

	var err error
	for attempt := 1; attempt <= storeAttempts; attempt++ {
		if err = a.store.LogEvent(ctx, event); err == nil {
			return nil
		}
		if attempt < storeAttempts && !sleep(ctx, time.Duration(attempt)*retryBackoff) {
			return ctx.Err()
		}
	}
	return err
}

// sleep waits for d and reports false when ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

//Personal.AI order the ending
