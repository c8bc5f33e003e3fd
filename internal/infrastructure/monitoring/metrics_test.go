package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/turtacn/paytrust/internal/config"
	"github.com/turtacn/paytrust/pkg/constants"
	"github.com/turtacn/paytrust/pkg/logger"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordVerification(constants.SchemeSymmetric, true, 2*time.Millisecond, "")
	m.RecordVerification(constants.SchemeSymmetric, false, time.Millisecond, "Unauthorized")
	m.RecordVerification(constants.SchemeSymmetric, false, time.Millisecond, "Unauthorized")
	m.RecordSigning(constants.SchemeAsymmetric, true)
	m.RecordResponse(401, "message")
	m.RecordDuplicateExternalID()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SignatureVerifications.WithLabelValues("symmetric", "success", "")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SignatureVerifications.WithLabelValues("symmetric", "failure", "Unauthorized")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SignaturesIssued.WithLabelValues("asymmetric", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ResponsesByStatus.WithLabelValues("401", "message")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DuplicateExternalIDs))
	assert.Equal(t, 1, testutil.CollectAndCount(m.VerificationLatency))

	m.ActiveRequestsInc()
	m.ActiveRequestsInc()
	m.ActiveRequestsDec()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPActiveRequests))
}

func TestNewMetrics_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics(prometheus.NewRegistry())
		NewMetrics(prometheus.NewRegistry())
	})
}

func TestTraceOperation(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tm, err := NewTracingManagerWithProcessor(recorder, &config.TracingConfig{ServiceName: "paytrust-test", SampleRate: 1}, logger.NewNoopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = tm.Shutdown(context.Background()) })

	var traceID string
	err = TraceOperation(context.Background(), tm, "verify", func(ctx context.Context) error {
		traceID = tm.TraceID(ctx)
		return nil
	}, attribute.String("client_key", "partner-a"))
	require.NoError(t, err)
	assert.Len(t, traceID, 32)

	boom := errors.New("boom")
	err = TraceOperation(context.Background(), tm, "sign", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "verify", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestNewTracingManager_Disabled(t *testing.T) {
	tm, err := NewTracingManager(&config.TracingConfig{}, logger.NewNoopLogger())
	require.NoError(t, err)
	assert.Empty(t, tm.TraceID(context.Background()))
	assert.NotNil(t, tm.Tracer())
	assert.NoError(t, tm.Shutdown(context.Background()))
}

var _ sdktrace.SpanProcessor = (*tracetest.SpanRecorder)(nil)
