package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type HealthHandler struct {
	logger        *zap.Logger
	startTime     time.Time
	hasCredential bool
}

// NewHealthHandler reports not-ready while no provider credential is set,
// since every forecast call would then fail upstream.
func NewHealthHandler(logger *zap.Logger, hasCredential bool) *HealthHandler {
	return &HealthHandler{
		logger:        logger,
		startTime:     time.Now(),
		hasCredential: hasCredential,
	}
}

func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "alive",
		Uptime: time.Since(h.startTime).String(),
	})
}

func (h *HealthHandler) Readiness(c *gin.Context) {
	if !h.hasCredential {
		h.logger.Debug("Readiness probe failed: provider API key not configured")
		c.JSON(http.StatusServiceUnavailable, HealthResponse{
			Status: "unavailable",
			Uptime: time.Since(h.startTime).String(),
			Reason: "provider API key not configured",
		})
		return
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status: "ready",
		Uptime: time.Since(h.startTime).String(),
	})
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
