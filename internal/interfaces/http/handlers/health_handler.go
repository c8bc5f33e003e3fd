package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/paytrust/pkg/logger"
)

const defaultProbeTimeout = 3 * time.Second

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// HealthHandler serves the probe endpoints. Only dependencies enabled in
// configuration are registered, so a gateway without Redis is still healthy.
type HealthHandler struct {
	checks  map[string]HealthCheck
	timeout time.Duration
	log     logger.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(checks map[string]HealthCheck, log logger.Logger) *HealthHandler {
	return &HealthHandler{
		checks:  checks,
		timeout: defaultProbeTimeout,
		log:     log,
	}
}

// HealthCheck godoc
// @Summary      Health Check
// @Description  Reports the state of every registered dependency.
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]interface{}
// @Router       /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	results, healthy := h.probe(c.Request.Context())

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"checks":    results,
	})
}

// ReadinessCheck godoc
// @Summary      Readiness Check
// @Description  Answers 200 once every registered dependency responds.
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]interface{}
// @Router       /ready [get]
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	if _, healthy := h.probe(c.Request.Context()); !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// LivenessCheck reports that the process is serving.
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// probe runs every check concurrently under one deadline.
func (h *HealthHandler) probe(parent context.Context) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(parent, h.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[string]string, len(h.checks))
		healthy = true
	)
	// 不使用 errgroup.WithContext：一个依赖失败不应取消其余探测
	var g errgroup.Group
	for name, check := range h.checks {
		g.Go(func() error {
			state := "ok"
			if err := check(ctx); err != nil {
				state = "error: " + err.Error()
				h.log.Warn(ctx, "Dependency unhealthy", logger.Fields{"dependency": name, "error": err.Error()})
			}
			mu.Lock()
			defer mu.Unlock()
			results[name] = state
			healthy = healthy && state == "ok"
			return nil
		})
	}
	_ = g.Wait()
	return results, healthy
}

//Personal.AI order the ending
