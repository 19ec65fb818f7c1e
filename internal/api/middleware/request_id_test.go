package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"cropr/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestIDEngine(capture *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/", func(c *gin.Context) {
		*capture = logger.GetRequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})
	return engine
}

func TestRequestID_Generated(t *testing.T) {
	var fromCtx string
	engine := requestIDEngine(&fromCtx)

	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

	header := resp.Header().Get(RequestIDHeader)
	require.NotEmpty(t, header)

	_, err := uuid.Parse(header)
	assert.NoError(t, err, "generated request id should be a UUID")
	assert.Equal(t, header, fromCtx, "context and header must agree")
}

func TestRequestID_Propagated(t *testing.T) {
	var fromCtx string
	engine := requestIDEngine(&fromCtx)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "caller-supplied-id")
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)

	assert.Equal(t, "caller-supplied-id", resp.Header().Get(RequestIDHeader))
	assert.Equal(t, "caller-supplied-id", fromCtx)
}
