package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"cropr/internal/config"
	"cropr/internal/models"
	"cropr/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimiter holds per-client limiter state
type RateLimiter struct {
	limiters map[string]*clientLimiter
	mu       sync.Mutex
	config   *config.Config

	cleanup     *time.Ticker
	stopCleanup chan struct{}
}

// clientLimiter pairs a limiter with its last use for cleanup
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var (
	globalRateLimiter *RateLimiter
	once              sync.Once
)

// RateLimit middleware applies per-IP rate limiting. Crop serving and
// the management API carry separate budgets: crop traffic is cacheable
// and high-volume, the API is not.
func RateLimit(cfg *config.Config) gin.HandlerFunc {
	once.Do(func() {
		globalRateLimiter = &RateLimiter{
			limiters:    make(map[string]*clientLimiter),
			config:      cfg,
			cleanup:     time.NewTicker(10 * time.Minute),
			stopCleanup: make(chan struct{}),
		}
		go globalRateLimiter.startCleanup()
	})

	return globalRateLimiter.middleware
}

func (rl *RateLimiter) middleware(c *gin.Context) {
	clientIP := c.ClientIP()

	// Crop requests come through NoRoute, so FullPath is empty there;
	// classify on the raw URL path instead.
	class, limit := rl.classify(c.Request.URL.Path)
	if limit <= 0 {
		c.Next()
		return
	}

	key := clientIP + ":" + class
	limiter := rl.getLimiter(key, limit)

	if !limiter.Allow() {
		rl.handleRateLimitExceeded(c, clientIP, class, limit)
		return
	}

	c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
	c.Next()
}

// classify maps a request path to its rate budget (requests per minute)
func (rl *RateLimiter) classify(path string) (string, int) {
	if strings.HasPrefix(path, "/api/") {
		return "api", rl.config.RateLimit.API
	}
	if path == "/health" || strings.HasPrefix(path, "/debug/") {
		return "api", rl.config.RateLimit.API
	}
	return "crop", rl.config.RateLimit.Crop
}

// getLimiter gets or creates a rate limiter for a client+class key
func (rl *RateLimiter) getLimiter(key string, limit int) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, exists := rl.limiters[key]
	if !exists {
		// Burst of one minute's budget, refilled continuously
		perSecond := rate.Limit(float64(limit) / 60.0)
		cl = &clientLimiter{limiter: rate.NewLimiter(perSecond, limit)}
		rl.limiters[key] = cl
	}
	cl.lastSeen = time.Now()

	return cl.limiter
}

func (rl *RateLimiter) handleRateLimitExceeded(c *gin.Context, clientIP, class string, limit int) {
	logger.WarnWithContext(c.Request.Context(), "Rate limit exceeded",
		zap.String("client_ip", clientIP),
		zap.String("class", class),
		zap.Int("limit", limit),
		zap.String("request_id", c.GetString("request_id")))

	c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
	c.Header("X-RateLimit-Remaining", "0")
	c.Header("Retry-After", "60")

	c.JSON(http.StatusTooManyRequests, models.ErrorResponse{
		Error:   "Rate limit exceeded",
		Message: fmt.Sprintf("Too many requests. Limit: %d requests per minute", limit),
		Code:    http.StatusTooManyRequests,
	})

	c.Abort()
}

func (rl *RateLimiter) startCleanup() {
	for {
		select {
		case <-rl.cleanup.C:
			rl.cleanupOldLimiters()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupOldLimiters drops limiters idle for more than an hour
func (rl *RateLimiter) cleanupOldLimiters() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-time.Hour)
	removed := 0
	for key, cl := range rl.limiters {
		if cl.lastSeen.Before(cutoff) {
			delete(rl.limiters, key)
			removed++
		}
	}

	if removed > 0 {
		logger.Debug("Cleaned up idle rate limiters",
			zap.Int("removed", removed),
			zap.Int("remaining", len(rl.limiters)))
	}
}

// Stop stops the rate limiter cleanup
func (rl *RateLimiter) Stop() {
	if rl.cleanup != nil {
		rl.cleanup.Stop()
	}
	if rl.stopCleanup != nil {
		close(rl.stopCleanup)
	}
}
