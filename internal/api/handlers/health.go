package handlers

import (
	"net/http"
	"time"

	"cropr/internal/models"
	"cropr/internal/service"
	"cropr/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	healthService service.HealthService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(healthService service.HealthService) *HealthHandler {
	return &HealthHandler{
		healthService: healthService,
	}
}

// Health handles the main health check endpoint
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()
	requestID := c.GetString("request_id")

	healthStatus, err := h.healthService.CheckHealth(ctx)
	if err != nil {
		logger.ErrorWithContext(ctx, "Health check failed",
			zap.Error(err),
			zap.String("request_id", requestID))

		c.JSON(http.StatusServiceUnavailable, models.HealthResponse{
			Status:    "unhealthy",
			Services:  map[string]string{"error": err.Error()},
			Timestamp: time.Now(),
		})
		return
	}

	overallStatus := "healthy"
	statusCode := http.StatusOK

	for name, status := range healthStatus.Services {
		if status != "connected" && status != "healthy" {
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
			logger.WarnWithContext(ctx, "Service unhealthy",
				zap.String("service", name),
				zap.String("status", status),
				zap.String("request_id", requestID))
		}
	}

	c.JSON(statusCode, models.HealthResponse{
		Status:    overallStatus,
		Services:  healthStatus.Services,
		Timestamp: time.Now(),
	})
}

// Metrics handles the metrics endpoint (debug only)
// GET /debug/vars
func (h *HealthHandler) Metrics(c *gin.Context) {
	ctx := c.Request.Context()

	metrics, err := h.healthService.GetMetrics(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Metrics unavailable",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, metrics)
}
