package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"cropr/internal/models"
	"cropr/internal/service"
	"cropr/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCropTestEngine(mock *testutil.MockCropService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.NoRoute(NewCropHandler(mock).Serve)
	return engine
}

func performRequest(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	return resp
}

func TestCropHandler_Success(t *testing.T) {
	var captured service.CropRequest
	mock := &testutil.MockCropService{
		RenderFunc: func(ctx context.Context, req service.CropRequest) (*service.CropResult, error) {
			captured = req
			return &service.CropResult{Data: []byte("jpeg-bytes"), ContentType: "image/jpeg"}, nil
		},
	}
	engine := newCropTestEngine(mock)

	resp := performRequest(engine, http.MethodGet, "/1234/5678/9/16x9/600.jpg")

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "image/jpeg", resp.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=3600", resp.Header().Get("Cache-Control"))
	assert.Equal(t, "jpeg-bytes", resp.Body.String())

	assert.Equal(t, int64(123456789), captured.ID)
	assert.Equal(t, "16x9", captured.RatioToken)
	assert.Equal(t, 600, captured.Width)
	assert.Equal(t, "jpg", captured.Extension)
}

func TestCropHandler_ShortFlatID(t *testing.T) {
	mock := &testutil.MockCropService{
		RenderFunc: func(ctx context.Context, req service.CropRequest) (*service.CropResult, error) {
			return &service.CropResult{Data: []byte("x"), ContentType: "image/png"}, nil
		},
	}
	engine := newCropTestEngine(mock)

	// Ids of up to four digits are served directly, no redirect
	resp := performRequest(engine, http.MethodGet, "/42/1x1/100.png")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestCropHandler_FlatIDRedirect(t *testing.T) {
	rendered := false
	mock := &testutil.MockCropService{
		RenderFunc: func(ctx context.Context, req service.CropRequest) (*service.CropResult, error) {
			rendered = true
			return &service.CropResult{Data: []byte("x"), ContentType: "image/jpeg"}, nil
		},
	}
	engine := newCropTestEngine(mock)

	resp := performRequest(engine, http.MethodGet, "/123456789/16x9/600.jpg")

	assert.Equal(t, http.StatusFound, resp.Code)
	assert.Equal(t, "/1234/5678/9/16x9/600.jpg", resp.Header().Get("Location"))
	assert.False(t, rendered, "redirect must not render")

	// Following the redirect serves without another redirect
	resp = performRequest(engine, http.MethodGet, resp.Header().Get("Location"))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, rendered)
}

func TestCropHandler_MalformedPaths(t *testing.T) {
	mock := &testutil.MockCropService{}
	engine := newCropTestEngine(mock)

	paths := []string{
		"/",
		"/1234",
		"/1234/1x1",
		"/1234/1x1/600",
		"/1234/1x1/.jpg",
		"/1234/1x1/abcxjpg",
		"/1234/1x1/-5.jpg",
		"/abcd/1x1/600.jpg",
	}

	for _, path := range paths {
		resp := performRequest(engine, http.MethodGet, path)
		assert.Equal(t, http.StatusNotFound, resp.Code, "path %s", path)
	}
}

func TestCropHandler_ErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"invalid ratio", models.InvalidRatioError{Token: "0x0"}, http.StatusNotFound},
		{"unsupported format", models.UnsupportedFormatError{Extension: "gif"}, http.StatusNotFound},
		{"source unavailable", models.SourceUnavailableError{ID: 42}, http.StatusNotFound},
		{"record missing", models.NotFoundError{Resource: "image", ID: "42"}, http.StatusNotFound},
		{"width too large", models.WidthTooLargeError{Width: 5000, Max: 2000}, http.StatusInternalServerError},
		{"geometry", models.GeometryError{Reason: "unrecoverable"}, http.StatusInternalServerError},
		{"decode", models.DecodeError{Reason: "bad bytes"}, http.StatusInternalServerError},
		{"cache write", models.CacheWriteError{Path: "/x", Reason: "denied"}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &testutil.MockCropService{
				RenderFunc: func(ctx context.Context, req service.CropRequest) (*service.CropResult, error) {
					return nil, tt.err
				},
			}
			engine := newCropTestEngine(mock)

			resp := performRequest(engine, http.MethodGet, "/1234/1x1/600.jpg")
			assert.Equal(t, tt.expected, resp.Code)

			if tt.expected == http.StatusNotFound {
				// Crop 404s carry a short negative-cache window
				assert.Equal(t, "max-age=60", resp.Header().Get("Cache-Control"))
			}
		})
	}
}

func TestCropHandler_PlaceholderHeaders(t *testing.T) {
	mock := &testutil.MockCropService{
		RenderFunc: func(ctx context.Context, req service.CropRequest) (*service.CropResult, error) {
			return &service.CropResult{
				Data:        []byte("placeholder"),
				ContentType: "image/png",
				Placeholder: true,
			}, nil
		},
	}
	engine := newCropTestEngine(mock)

	resp := performRequest(engine, http.MethodGet, "/9999/2x1/100.png")

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "no-cache, no-store, must-revalidate", resp.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", resp.Header().Get("Pragma"))
	assert.Equal(t, "0", resp.Header().Get("Expires"))
}
