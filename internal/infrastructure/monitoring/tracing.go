// Package monitoring 提供日志、指标与分布式追踪的实现
package monitoring

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/turtacn/paytrust/internal/config"
	"github.com/turtacn/paytrust/pkg/logger"
)

const defaultTracerName = "paytrust"

// TracingManager owns the process-wide tracer provider. When tracing is
// disabled it hands out the global no-op tracer and Shutdown does nothing.
type TracingManager struct {
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
	logger   logger.Logger
}

// NewTracingManager 创建追踪管理器，spans 通过 Jaeger collector 导出
func NewTracingManager(cfg *config.TracingConfig, log logger.Logger) (*TracingManager, error) {
	if !cfg.Enabled {
		log.Info(context.Background(), "Tracing is disabled")
		return &TracingManager{tracer: otel.Tracer(defaultTracerName), logger: log}, nil
	}

	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.JaegerEndpoint)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Jaeger exporter: %w", err)
	}
	return newTracingManager(sdktrace.WithBatcher(exporter), cfg, log)
}

// NewTracingManagerWithProcessor 使用给定的 SpanProcessor 创建追踪管理器，测试中可传入内存导出器
func NewTracingManagerWithProcessor(sp sdktrace.SpanProcessor, cfg *config.TracingConfig, log logger.Logger) (*TracingManager, error) {
	return newTracingManager(sdktrace.WithSpanProcessor(sp), cfg, log)
}

func newTracingManager(opt sdktrace.TracerProviderOption, cfg *config.TracingConfig, log logger.Logger) (*TracingManager, error) {
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = defaultTracerName
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(semconv.ServiceNameKey.String(serviceName)))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	// 上游已采样的请求保持采样，否则按比例采样
	provider := sdktrace.NewTracerProvider(
		opt,
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info(context.Background(), "Tracing initialized", logger.Fields{
		"service":     serviceName,
		"endpoint":    cfg.JaegerEndpoint,
		"sample_rate": cfg.SampleRate,
	})
	return &TracingManager{
		tracer:   provider.Tracer(serviceName),
		provider: provider,
		logger:   log,
	}, nil
}

// Tracer returns the tracer used for gateway request spans.
func (tm *TracingManager) Tracer() trace.Tracer {
	return tm.tracer
}

// TraceID returns the hex trace id carried by ctx, or "" when there is none.
func (tm *TracingManager) TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

// Shutdown flushes pending spans.
func (tm *TracingManager) Shutdown(ctx context.Context) error {
	if tm.provider == nil {
		return nil
	}
	if err := tm.provider.Shutdown(ctx); err != nil {
		tm.logger.Error(ctx, "Failed to shutdown tracing provider", err)
		return err
	}
	tm.logger.Info(ctx, "Tracing provider shut down")
	return nil
}

// TraceOperation runs fn inside a span named operation. A returned error is
// recorded on the span and passed through unchanged.
func TraceOperation(ctx context.Context, tm *TracingManager, operation string, fn func(context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := tm.tracer.Start(ctx, operation, trace.WithAttributes(attrs...))
	defer span.End()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

//Personal.AI order the ending
