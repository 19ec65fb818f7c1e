package handlers

import (
	"net/http"

	"cropr/internal/api/middleware"
	"cropr/internal/config"
	"cropr/internal/models"
	"cropr/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	config *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(config *config.Config) *AuthHandler {
	return &AuthHandler{config: config}
}

// GenerateAPIKeyResponse represents the response after generating an API key
type GenerateAPIKeyResponse struct {
	APIKey  string `json:"api_key"`
	Message string `json:"message"`
}

// GenerateAPIKey handles API key generation requests
// GET /api/v1/auth/generate-key
func (h *AuthHandler) GenerateAPIKey(c *gin.Context) {
	ctx := c.Request.Context()
	requestID := c.GetString("request_id")

	apiKey, err := middleware.GenerateAPIKey()
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to generate API key",
			zap.Error(err),
			zap.String("request_id", requestID))

		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Key generation failed",
			Message: "Failed to generate API key",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	logger.InfoWithContext(ctx, "API key generated",
		zap.String("request_id", requestID),
		zap.String("api_key_prefix", middleware.MaskAPIKey(apiKey)))

	c.JSON(http.StatusCreated, GenerateAPIKeyResponse{
		APIKey:  apiKey,
		Message: "API key generated successfully. Add it to AUTH_READWRITE_KEYS or AUTH_READONLY_KEYS environment variable to activate.",
	})
}

// GetAuthStatus returns the current authentication status
// GET /api/v1/auth/status
func (h *AuthHandler) GetAuthStatus(c *gin.Context) {
	status := map[string]interface{}{
		"auth_enabled": h.config.Auth.Enabled,
		"key_header":   h.config.Auth.KeyHeader,
	}

	// Counts only, never the keys themselves
	if h.config.Auth.Enabled {
		status["read_write_keys_count"] = len(h.config.Auth.ReadWriteKeys)
		status["read_only_keys_count"] = len(h.config.Auth.ReadOnlyKeys)
	}

	c.JSON(http.StatusOK, status)
}
