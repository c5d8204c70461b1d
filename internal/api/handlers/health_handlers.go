package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stockdash/portfolio_service/pkg/health"
	"github.com/stockdash/portfolio_service/pkg/version"
)

// HealthChecker reports dependency status
type HealthChecker interface {
	Check(ctx context.Context) (health.Status, map[string]health.CheckResult)
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	checker   HealthChecker
	startedAt time.Time
}

func NewHealthHandler(checker HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker, startedAt: time.Now()}
}

// Health performs all dependency checks
// @Summary Get application health status
// @Description Checks the database and the analytics cache
// @Tags health
// @Produce json
// @Success 200 {object} health.HealthResponse
// @Failure 503 {object} health.HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	status, checks := h.checker.Check(ctx)

	code := http.StatusOK
	if status == health.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, health.HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Version:   version.Version,
		Checks:    checks,
	})
}

// Ready reports whether the service can take traffic. A degraded cache is
// still ready; only an unhealthy dependency is not.
// @Summary Get application readiness status
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, checks := h.checker.Check(ctx)

	if status == health.StatusUnhealthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "not_ready",
			"timestamp": time.Now(),
			"checks":    checks,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now(),
		"checks":    checks,
	})
}

// Live is a liveness probe for container orchestration
// @Summary Get application liveness status
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now(),
		"uptime":    time.Since(h.startedAt).String(),
	})
}
