package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/turtacn/paytrust/pkg/constants"
)

// Metrics manages the Prometheus metrics.
type Metrics struct {
	SignatureVerifications *prometheus.CounterVec
	VerificationLatency    *prometheus.HistogramVec
	SignaturesIssued       *prometheus.CounterVec
	ResponsesByStatus      *prometheus.CounterVec
	DuplicateExternalIDs   prometheus.Counter
	HTTPRequestDuration    *prometheus.HistogramVec
	HTTPActiveRequests     prometheus.Gauge
}

// NewMetrics creates the Prometheus metrics and registers them with reg.
// Pass prometheus.DefaultRegisterer in production.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SignatureVerifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paytrust_signature_verifications_total",
				Help: "Total number of signature verifications.",
			},
			[]string{"scheme", "result", "error_kind"},
		),
		VerificationLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "paytrust_signature_verification_latency_seconds",
				Help:    "Latency of signature verifications.",
				Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
			},
			[]string{"scheme"},
		),
		SignaturesIssued: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paytrust_signatures_issued_total",
				Help: "Total number of signatures produced by the signing utilities.",
			},
			[]string{"scheme", "result"},
		),
		ResponsesByStatus: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paytrust_responses_total",
				Help: "Total number of envelopes returned, by HTTP status and error category.",
			},
			[]string{"status", "category"},
		),
		DuplicateExternalIDs: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "paytrust_duplicate_external_ids_total",
				Help: "Total number of requests rejected for a reused X-EXTERNAL-ID.",
			},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "paytrust_http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method", "status"},
		),
		HTTPActiveRequests: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "paytrust_http_active_requests",
				Help: "Number of HTTP requests in flight.",
			},
		),
	}
}

// RecordVerification records the outcome and latency of one signature check.
func (m *Metrics) RecordVerification(scheme constants.SignatureScheme, success bool, duration time.Duration, errorKind string) {
	m.SignatureVerifications.WithLabelValues(string(scheme), resultLabel(success), errorKind).Inc()
	m.VerificationLatency.WithLabelValues(string(scheme)).Observe(duration.Seconds())
}

// RecordSigning records a signature produced by the signing utilities.
func (m *Metrics) RecordSigning(scheme constants.SignatureScheme, success bool) {
	m.SignaturesIssued.WithLabelValues(string(scheme), resultLabel(success)).Inc()
}

// RecordResponse counts an envelope sent back to a partner.
func (m *Metrics) RecordResponse(status int, category string) {
	m.ResponsesByStatus.WithLabelValues(strconv.Itoa(status), category).Inc()
}

// RecordDuplicateExternalID counts a replayed X-EXTERNAL-ID.
func (m *Metrics) RecordDuplicateExternalID() {
	m.DuplicateExternalIDs.Inc()
}

func (m *Metrics) ActiveRequestsInc() { m.HTTPActiveRequests.Inc() }
func (m *Metrics) ActiveRequestsDec() { m.HTTPActiveRequests.Dec() }

func (m *Metrics) ObserveRequestDuration(path, method string, status int, seconds float64) {
	m.HTTPRequestDuration.WithLabelValues(path, method, strconv.Itoa(status)).Observe(seconds)
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

//Personal.AI order the ending
