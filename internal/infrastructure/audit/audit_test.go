package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/turtacn/paytrust/internal/config"
	"github.com/turtacn/paytrust/internal/domain/models"
	"github.com/turtacn/paytrust/internal/domain/service/mocks"
	"github.com/turtacn/paytrust/pkg/constants"
	"github.com/turtacn/paytrust/pkg/logger"
)

const sealKey = "audit-seal-key-0123456789abcdef"

func newEvent() models.AuditEvent {
	return *models.NewAuditEvent(constants.EventTypeSignatureRejected, constants.AuditResultFailure, "signature mismatch").
		WithClient("partner-a", constants.SchemeAsymmetric).
		WithOutcome("4017300", "Unauthorized").
		WithContextInfo("10.0.0.1", "trace-1")
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestSealer_SignAndVerify(t *testing.T) {
	sealer, err := NewSealer(sealKey)
	require.NoError(t, err)

	event := newEvent()
	seal, err := sealer.SignAuditEvent(event)
	require.NoError(t, err)
	assert.NotEmpty(t, seal)

	event.Seal = seal
	assert.NoError(t, sealer.VerifyAuditEvent(event))

	tampered := event
	tampered.ResponseCode = "2007300"
	assert.Error(t, sealer.VerifyAuditEvent(tampered))

	other, err := NewSealer("another-seal-key-0123456789abcdef")
	require.NoError(t, err)
	assert.Error(t, other.VerifyAuditEvent(event))
}

func TestNewSealer_EmptyKey(t *testing.T) {
	_, err := NewSealer("")
	assert.Error(t, err)
}

func TestSealingAuditService_SealsBeforeForwarding(t *testing.T) {
	sealer, err := NewSealer(sealKey)
	require.NoError(t, err)

	next := new(mocks.MockAuditService)
	var forwarded models.AuditEvent
	next.On("LogEvent", mock.Anything, mock.AnythingOfType("models.AuditEvent")).
		Run(func(args mock.Arguments) { forwarded = args.Get(1).(models.AuditEvent) }).
		Return(nil)

	svc := NewSealingAuditService(next, sealer)
	require.NoError(t, svc.LogEvent(context.Background(), newEvent()))

	next.AssertExpectations(t)
	require.NotEmpty(t, forwarded.Seal)
	assert.NoError(t, sealer.VerifyAuditEvent(forwarded))
}

func TestGormAuditService_LogAndList(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewGormAuditService(db)
	require.NoError(t, err)
	ctx := context.Background()

	first := newEvent()
	second := newEvent()
	second.Timestamp = first.Timestamp.Add(time.Second)
	other := newEvent()
	other.ClientKey = "partner-b"

	for _, e := range []models.AuditEvent{first, second, other} {
		require.NoError(t, svc.LogEvent(ctx, e))
	}

	events, err := svc.ListByClient(ctx, "partner-a", 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, second.EventID, events[0].EventID)
	assert.Equal(t, "4017300", events[0].ResponseCode)
	assert.Equal(t, constants.EventTypeSignatureRejected, events[0].EventType)

	// Same primary key twice is rejected.
	assert.Error(t, svc.LogEvent(ctx, first))
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaProducer_LogEvent(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaProducer(w, logger.NewNoopLogger())

	event := newEvent()
	require.NoError(t, p.LogEvent(context.Background(), event))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, []byte("partner-a"), msg.Key)
	var decoded models.AuditEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event.EventID, decoded.EventID)
	assert.Equal(t, "event_type", msg.Headers[0].Key)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaProducer_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := newKafkaProducer(w, logger.NewNoopLogger())
	assert.EqualError(t, p.LogEvent(context.Background(), newEvent()), "broker down")
}

func TestNewAuditService(t *testing.T) {
	log := logger.NewNoopLogger()

	t.Run("disabled", func(t *testing.T) {
		svc, closeFn, err := NewAuditService(&config.Config{}, nil, log)
		require.NoError(t, err)
		assert.IsType(t, NoopAuditService{}, svc)
		assert.NoError(t, closeFn())
	})

	t.Run("log sink", func(t *testing.T) {
		cfg := &config.Config{Audit: config.AuditConfig{Enabled: true, Sink: "log"}}
		svc, _, err := NewAuditService(cfg, nil, log)
		require.NoError(t, err)
		assert.IsType(t, &LogAuditService{}, svc)
		assert.NoError(t, svc.LogEvent(context.Background(), newEvent()))
	})

	t.Run("sealed database sink", func(t *testing.T) {
		cfg := &config.Config{Audit: config.AuditConfig{Enabled: true, Sink: "database", SealKey: sealKey}}
		db := newTestDB(t)
		svc, _, err := NewAuditService(cfg, db, log)
		require.NoError(t, err)
		assert.IsType(t, &SealingAuditService{}, svc)

		event := newEvent()
		require.NoError(t, svc.LogEvent(context.Background(), event))

		var stored models.AuditEvent
		require.NoError(t, db.First(&stored, "event_id = ?", event.EventID).Error)
		assert.NotEmpty(t, stored.Seal)
	})

	t.Run("database sink without database", func(t *testing.T) {
		cfg := &config.Config{Audit: config.AuditConfig{Enabled: true, Sink: "database"}}
		_, _, err := NewAuditService(cfg, nil, log)
		assert.Error(t, err)
	})

	t.Run("unknown sink", func(t *testing.T) {
		cfg := &config.Config{Audit: config.AuditConfig{Enabled: true, Sink: "s3"}}
		_, _, err := NewAuditService(cfg, nil, log)
		assert.ErrorContains(t, err, "unknown audit sink")
	})
}
