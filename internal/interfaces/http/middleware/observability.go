package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/turtacn/paytrust/internal/application/dto"
	"github.com/turtacn/paytrust/internal/domain/service"
	"github.com/turtacn/paytrust/pkg/constants"
	"github.com/turtacn/paytrust/pkg/errors"
	"github.com/turtacn/paytrust/pkg/logger"
)

// HTTPMetrics is the request-level part of the Prometheus metrics.
type HTTPMetrics interface {
	ActiveRequestsInc()
	ActiveRequestsDec()
	ObserveRequestDuration(path, method string, status int, seconds float64)
}

// RequestContext returns a Gin middleware that assigns the request id and
// copies the request id, trace id and client IP into the request context,
// where the logger and the audit trail pick them up.
// RequestContext 返回一个 Gin 中间件，为请求分配 X-Request-ID 并将请求 ID、追踪 ID 与客户端 IP 写入请求上下文。
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(constants.HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header(constants.HeaderRequestID, requestID)

		ctx := context.WithValue(c.Request.Context(), constants.ContextKeyRequestID, requestID)
		ctx = context.WithValue(ctx, constants.ContextKeyClientIP, c.ClientIP())
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			ctx = context.WithValue(ctx, constants.ContextKeyTraceID, sc.TraceID().String())
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// ObservabilityMiddleware returns a Gin middleware that integrates Prometheus metrics and OpenTelemetry tracing.
// For each HTTP request, it starts a new trace span and records request duration and the response category.
// ObservabilityMiddleware 返回一个集成了 Prometheus 指标和 OpenTelemetry 跟踪的 Gin 中间件。
func ObservabilityMiddleware(tracer trace.Tracer, httpMetrics HTTPMetrics, metrics service.Metrics) gin.HandlerFunc {
	if tracer == nil {
		tracer = otel.Tracer("paytrust/http")
	}
	return func(c *gin.Context) {
		start := time.Now()
		httpMetrics.ActiveRequestsInc()
		defer httpMetrics.ActiveRequestsDec()

		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, c.Request.Method+" "+c.FullPath(), trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "not_found"
		}
		status := c.Writer.Status()
		httpMetrics.ObserveRequestDuration(path, c.Request.Method, status, time.Since(start).Seconds())
		if category := c.GetString(dto.ContextKeyResponseCategory); category != "" {
			metrics.RecordResponse(status, category)
		}

		span.SetAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.path", path),
			attribute.Int("http.status_code", status),
			attribute.String("http.client_ip", c.ClientIP()),
		)
	}
}

// LoggingMiddleware logs incoming requests.
func LoggingMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := logger.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		}
		if clientID := c.GetString(string(constants.ContextKeyClientID)); clientID != "" {
			fields["client_key"] = clientID
		}
		log.Info(c.Request.Context(), "Request processed", fields)
	}
}

// RecoveryMiddleware recovers from panics and answers with an InternalServerError envelope.
func RecoveryMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("panic: %v", r)
				log.Error(c.Request.Context(), "Panic recovered", err)
				dto.AbortWithError(c, errors.InternalServerError().WithCause(err), constants.ServiceCodeGeneric)
			}
		}()
		c.Next()
	}
}
