package http

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"

	appservice "github.com/turtacn/paytrust/internal/application/service"
	"github.com/turtacn/paytrust/internal/config"
	"github.com/turtacn/paytrust/internal/domain/service"
	"github.com/turtacn/paytrust/internal/interfaces/http/handlers"
	"github.com/turtacn/paytrust/internal/interfaces/http/middleware"
	"github.com/turtacn/paytrust/pkg/constants"
	"github.com/turtacn/paytrust/pkg/logger"
)

// RouterDeps 路由依赖
type RouterDeps struct {
	Signatures       appservice.SignatureAppService
	ExternalIDs      service.ExternalIDGuard // nil disables the X-EXTERNAL-ID guard
	Metrics          service.Metrics
	HTTPMetrics      middleware.HTTPMetrics
	Gatherer         prometheus.Gatherer
	Tracer           trace.Tracer // nil falls back to the global provider
	HealthHandler    *handlers.HealthHandler
	SignatureHandler *handlers.SignatureHandler
}

// Router HTTP 路由器
type Router struct {
	engine *gin.Engine
	config *config.Config
	logger logger.Logger
	deps   RouterDeps
	server *http.Server
}

// NewRouter 创建路由器
func NewRouter(cfg *config.Config, log logger.Logger, deps RouterDeps) *Router {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	r := &Router{
		engine: gin.New(),
		config: cfg,
		logger: log.WithComponent("http"),
		deps:   deps,
	}
	r.setupRoutes()
	return r
}

// Engine returns the underlying gin engine.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// AccessTokenGroup returns a route group whose handlers run after the
// asymmetric signature check of an access token request.
func (r *Router) AccessTokenGroup(relativePath string) *gin.RouterGroup {
	return r.engine.Group(relativePath, middleware.AccessTokenSignature(r.deps.Signatures, constants.ServiceCodeAccessTokenB2B))
}

// TransactionGroup returns a route group whose handlers run after the
// symmetric signature check and, when configured, the X-EXTERNAL-ID guard.
func (r *Router) TransactionGroup(relativePath string, serviceCode uint8) *gin.RouterGroup {
	chain := []gin.HandlerFunc{middleware.TransactionSignature(r.deps.Signatures, serviceCode, middleware.DefaultMaxBodyBytes)}
	if r.deps.ExternalIDs != nil {
		chain = append(chain, middleware.ExternalIDMiddleware(r.deps.ExternalIDs, r.deps.Metrics, serviceCode, r.logger))
	}
	return r.engine.Group(relativePath, chain...)
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	// 全局中间件
	r.engine.Use(middleware.RecoveryMiddleware(r.logger))
	r.engine.Use(middleware.ObservabilityMiddleware(r.deps.Tracer, r.deps.HTTPMetrics, r.deps.Metrics))
	r.engine.Use(middleware.RequestContext())
	r.engine.Use(middleware.LoggingMiddleware(r.logger))

	// CORS 配置
	if len(r.config.Server.CORSAllowOrigins) > 0 {
		r.engine.Use(cors.New(cors.Config{
			AllowOrigins: r.config.Server.CORSAllowOrigins,
			AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders: []string{
				"Origin", "Content-Type", constants.HeaderAuthorization, constants.HeaderRequestID,
				constants.HeaderTimestamp, constants.HeaderSignature, constants.HeaderClientKey,
				constants.HeaderPartnerID, constants.HeaderExternalID, constants.HeaderChannelID,
			},
			ExposeHeaders: []string{constants.HeaderRequestID},
			MaxAge:        12 * time.Hour,
		}))
	}

	// 健康检查路由（不需要认证）
	r.engine.GET("/health", r.deps.HealthHandler.HealthCheck)
	r.engine.GET("/ready", r.deps.HealthHandler.ReadinessCheck)
	r.engine.GET("/live", r.deps.HealthHandler.LivenessCheck)

	// Prometheus metrics
	gatherer := r.deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// Pprof 性能分析
	if r.config.Server.EnablePprof {
		pprof.Register(r.engine)
	}

	// 签名工具路由
	if r.config.Signing.UtilitiesEnabled {
		utilities := r.engine.Group("/api/v1.0/utilities")
		{
			utilities.POST("/signature-auth", r.deps.SignatureHandler.SignatureAuth)
			utilities.POST("/signature-service", r.deps.SignatureHandler.SignatureService)
		}
		r.AccessTokenGroup("/api/v1.0/utilities/verify-signature-auth").
			POST("", r.deps.SignatureHandler.VerifySignature)
		r.TransactionGroup("/api/v1.0/utilities/verify-signature-service", constants.ServiceCodeSignatureUtility).
			POST("", r.deps.SignatureHandler.VerifySignature)
	}

	r.engine.NoRoute(handlers.NoRoute)
}

// Start 启动 HTTP 服务器，阻塞直到收到退出信号
func (r *Router) Start() error {
	addr := r.config.Server.Addr()
	r.server = &http.Server{
		Addr:           addr,
		Handler:        r.engine,
		ReadTimeout:    time.Duration(r.config.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(r.config.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	r.logger.Info(context.Background(), "Starting HTTP server", logger.Fields{"address": addr})

	// 优雅关闭
	go r.gracefulShutdown()

	if err := r.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// gracefulShutdown 优雅关闭服务器
func (r *Router) gracefulShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	if err := r.Stop(ctx); err != nil {
		r.logger.Error(ctx, "Server forced to shutdown", err)
	}

	r.logger.Info(ctx, "HTTP server stopped")
}

// Stop 停止 HTTP 服务器
func (r *Router) Stop(ctx context.Context) error {
	if r.server == nil {
		return nil
	}

	r.logger.Info(ctx, "Stopping HTTP server...")
	return r.server.Shutdown(ctx)
}

//Personal.AI order the ending
