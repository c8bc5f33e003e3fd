package monitoring

import (
	"time"

	"github.com/turtacn/paytrust/internal/domain/service"
	"github.com/turtacn/paytrust/pkg/constants"
)

// NewMetricsAdapter returns m as the domain's Metrics interface.
// NewMetricsAdapter 将 Prometheus Metrics 作为域的 Metrics 接口返回。
func NewMetricsAdapter(m *Metrics) service.Metrics {
	return m
}

// NoopMetrics discards every observation. It is used by tools that run
// without a Prometheus registry.
// NoopMetrics 丢弃所有指标，供没有 Prometheus 注册表的工具使用。
type NoopMetrics struct{}

func (NoopMetrics) RecordVerification(constants.SignatureScheme, bool, time.Duration, string) {}
func (NoopMetrics) RecordSigning(constants.SignatureScheme, bool)                             {}
func (NoopMetrics) RecordResponse(int, string)                                                {}
func (NoopMetrics) RecordDuplicateExternalID()                                                {}

var (
	_ service.Metrics = (*Metrics)(nil)
	_ service.Metrics = NoopMetrics{}
)
