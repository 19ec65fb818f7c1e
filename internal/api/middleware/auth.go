package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"slices"
	"strings"

	"cropr/internal/config"
	"cropr/internal/models"
	"cropr/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Permission levels
const (
	PermissionRead      = "read"
	PermissionReadWrite = "read-write"
)

// APIKeyAuth middleware validates API keys and sets permission level.
// Crop serving never goes through this; it only guards the management API.
func APIKeyAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		// RequirePermission reads the config back from the context
		c.Set("config", cfg)

		if !cfg.Auth.Enabled {
			c.Next()
			return
		}

		requestID := c.GetString("request_id")

		apiKey := c.GetHeader(cfg.Auth.KeyHeader)
		if apiKey == "" {
			logger.WarnWithContext(c.Request.Context(), "Missing API key",
				zap.String("request_id", requestID),
				zap.String("header", cfg.Auth.KeyHeader))

			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "Missing API key",
				Message: "API key must be provided in " + cfg.Auth.KeyHeader + " header",
				Code:    http.StatusUnauthorized,
			})
			c.Abort()
			return
		}

		permission := validateAPIKey(apiKey, cfg.Auth)
		if permission == "" {
			logger.WarnWithContext(c.Request.Context(), "Invalid API key",
				zap.String("request_id", requestID),
				zap.String("api_key_prefix", MaskAPIKey(apiKey)))

			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "Invalid API key",
				Message: "The provided API key is not valid",
				Code:    http.StatusUnauthorized,
			})
			c.Abort()
			return
		}

		c.Set("auth_permission", permission)
		c.Next()
	}
}

// RequirePermission middleware checks that the authenticated caller has
// the required permission level
func RequirePermission(required string) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetString("request_id")

		if cfg, exists := c.Get("config"); exists {
			if configData, ok := cfg.(*config.Config); ok && !configData.Auth.Enabled {
				c.Next()
				return
			}
		}

		permission := c.GetString("auth_permission")
		if permission == "" {
			logger.ErrorWithContext(c.Request.Context(), "Permission not found in context",
				zap.String("request_id", requestID),
				zap.String("required_permission", required))

			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "Authentication error",
				Message: "Internal authentication error",
				Code:    http.StatusInternalServerError,
			})
			c.Abort()
			return
		}

		if !hasPermission(permission, required) {
			logger.WarnWithContext(c.Request.Context(), "Insufficient permissions",
				zap.String("request_id", requestID),
				zap.String("user_permission", permission),
				zap.String("required_permission", required))

			c.JSON(http.StatusForbidden, models.ErrorResponse{
				Error:   "Insufficient permissions",
				Message: "This operation requires " + required + " permissions",
				Code:    http.StatusForbidden,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// validateAPIKey returns the permission level for a key, or "" for unknown keys
func validateAPIKey(apiKey string, authConfig config.AuthConfig) string {
	if slices.Contains(authConfig.ReadWriteKeys, apiKey) {
		return PermissionReadWrite
	}
	if slices.Contains(authConfig.ReadOnlyKeys, apiKey) {
		return PermissionRead
	}
	return ""
}

// hasPermission checks if a permission level satisfies the requirement.
// Read-write implies read.
func hasPermission(userPermission, requiredPermission string) bool {
	switch requiredPermission {
	case PermissionRead:
		return userPermission == PermissionRead || userPermission == PermissionReadWrite
	case PermissionReadWrite:
		return userPermission == PermissionReadWrite
	default:
		return false
	}
}

// MaskAPIKey masks an API key for logging (shows only first 8 characters)
func MaskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return strings.Repeat("*", len(apiKey))
	}
	return apiKey[:8] + strings.Repeat("*", len(apiKey)-8)
}

// GenerateAPIKey generates a cryptographically secure API key
func GenerateAPIKey() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
