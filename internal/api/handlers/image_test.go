package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cropr/internal/models"
	"cropr/internal/service"
	"cropr/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newImageTestEngine(t *testing.T, mock *testutil.MockImageService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	handler := NewImageHandler(mock, testutil.TestConfig(t))

	engine := gin.New()
	engine.POST("/api/v1/images", handler.Upload)
	engine.GET("/api/v1/images", handler.Search)
	engine.GET("/api/v1/images/:id", handler.Detail)
	engine.PATCH("/api/v1/images/:id", handler.Update)
	engine.DELETE("/api/v1/images/:id", handler.Delete)
	engine.POST("/api/v1/images/:id/selections/:ratio", handler.UpdateSelection)
	return engine
}

func TestImageHandler_Upload(t *testing.T) {
	mock := &testutil.MockImageService{
		ProcessUploadFunc: func(ctx context.Context, input service.UploadInput) (*models.ImageMetadata, error) {
			assert.Equal(t, "photo.png", input.Filename)
			return models.NewImageMetadata(123456789, "photo", 640, 480), nil
		},
	}
	engine := newImageTestEngine(t, mock)

	req := testutil.CreateMultipartRequest(http.MethodPost, "/api/v1/images", "image", "photo.png", testutil.TestPNG(t, 8, 8))
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code)

	var body models.UploadResponse
	require.NoError(t, testutil.ParseJSONResponse(resp, &body))
	assert.Equal(t, int64(123456789), body.ID)
	assert.Equal(t, "1234/5678/9", body.Path)
	assert.Equal(t, 640, body.Width)
	assert.Equal(t, 480, body.Height)
}

func TestImageHandler_UploadMissingFile(t *testing.T) {
	engine := newImageTestEngine(t, &testutil.MockImageService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/images", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestImageHandler_Detail(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		mock := &testutil.MockImageService{
			GetMetadataFunc: func(ctx context.Context, id int64) (*models.ImageMetadata, error) {
				meta := models.NewImageMetadata(id, "skyline", 1920, 1080)
				meta.SetSelection("16x9", models.Selection{X0: 0, Y0: 0, X1: 1920, Y1: 1080})
				return meta, nil
			},
		}
		engine := newImageTestEngine(t, mock)

		resp := httptest.NewRecorder()
		engine.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/images/42", nil))

		require.Equal(t, http.StatusOK, resp.Code)

		var body models.DetailResponse
		require.NoError(t, testutil.ParseJSONResponse(resp, &body))
		assert.Equal(t, int64(42), body.ID)
		assert.Equal(t, "skyline", body.Name)
		assert.Contains(t, body.Selections, "16x9")
	})

	t.Run("missing", func(t *testing.T) {
		mock := &testutil.MockImageService{
			GetMetadataFunc: func(ctx context.Context, id int64) (*models.ImageMetadata, error) {
				return nil, models.NotFoundError{Resource: "image", ID: "42"}
			},
		}
		engine := newImageTestEngine(t, mock)

		resp := httptest.NewRecorder()
		engine.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/images/42", nil))

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("non-numeric id", func(t *testing.T) {
		engine := newImageTestEngine(t, &testutil.MockImageService{})

		resp := httptest.NewRecorder()
		engine.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/images/abc", nil))

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

func TestImageHandler_Update(t *testing.T) {
	mock := &testutil.MockImageService{
		UpdateDetailsFunc: func(ctx context.Context, id int64, req models.UpdateDetailRequest) (*models.ImageMetadata, error) {
			meta := models.NewImageMetadata(id, *req.Name, 100, 100)
			meta.Credit = *req.Credit
			return meta, nil
		},
	}
	engine := newImageTestEngine(t, mock)

	body := strings.NewReader(`{"name":"renamed","credit":"Jane"}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/images/7", body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)

	var detail models.DetailResponse
	require.NoError(t, testutil.ParseJSONResponse(resp, &detail))
	assert.Equal(t, "renamed", detail.Name)
	assert.Equal(t, "Jane", detail.Credit)
}

func TestImageHandler_Search(t *testing.T) {
	mock := &testutil.MockImageService{
		SearchFunc: func(ctx context.Context, query string) ([]*models.ImageMetadata, error) {
			assert.Equal(t, "sunset", query)
			return []*models.ImageMetadata{
				models.NewImageMetadata(2, "city sunset", 100, 100),
				models.NewImageMetadata(1, "sunset beach", 100, 100),
			}, nil
		},
	}
	engine := newImageTestEngine(t, mock)

	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/images?q=sunset", nil))

	require.Equal(t, http.StatusOK, resp.Code)

	var body models.SearchResponse
	require.NoError(t, testutil.ParseJSONResponse(resp, &body))
	require.Len(t, body.Results, 2)
	assert.Equal(t, int64(2), body.Results[0].ID)
}

func TestImageHandler_UpdateSelection(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		var gotSel models.Selection
		var gotRatio string
		mock := &testutil.MockImageService{
			UpdateSelectionFunc: func(ctx context.Context, id int64, ratioToken string, sel models.Selection) error {
				gotRatio = ratioToken
				gotSel = sel
				return nil
			},
		}
		engine := newImageTestEngine(t, mock)

		body := strings.NewReader(`{"x0":10,"y0":0,"x1":210,"y1":200}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/images/7/selections/1x1", body)
		req.Header.Set("Content-Type", "application/json")
		resp := httptest.NewRecorder()
		engine.ServeHTTP(resp, req)

		assert.Equal(t, http.StatusNoContent, resp.Code)
		assert.Equal(t, "1x1", gotRatio)
		assert.Equal(t, models.Selection{X0: 10, Y0: 0, X1: 210, Y1: 200}, gotSel)
	})

	t.Run("missing coordinate rejected", func(t *testing.T) {
		engine := newImageTestEngine(t, &testutil.MockImageService{})

		body := strings.NewReader(`{"x0":10,"y0":0,"x1":210}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/images/7/selections/1x1", body)
		req.Header.Set("Content-Type", "application/json")
		resp := httptest.NewRecorder()
		engine.ServeHTTP(resp, req)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("invalid geometry maps to 400", func(t *testing.T) {
		mock := &testutil.MockImageService{
			UpdateSelectionFunc: func(ctx context.Context, id int64, ratioToken string, sel models.Selection) error {
				return models.GeometryError{Selection: sel, Reason: "selection exceeds source bounds"}
			},
		}
		engine := newImageTestEngine(t, mock)

		body := strings.NewReader(`{"x0":0,"y0":0,"x1":9999,"y1":9999}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/images/7/selections/1x1", body)
		req.Header.Set("Content-Type", "application/json")
		resp := httptest.NewRecorder()
		engine.ServeHTTP(resp, req)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

func TestImageHandler_Delete(t *testing.T) {
	mock := &testutil.MockImageService{
		DeleteImageFunc: func(ctx context.Context, id int64) error {
			if id == 404 {
				return models.NotFoundError{Resource: "image", ID: "404"}
			}
			return nil
		},
	}
	engine := newImageTestEngine(t, mock)

	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, httptest.NewRequest(http.MethodDelete, "/api/v1/images/7", nil))
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = httptest.NewRecorder()
	engine.ServeHTTP(resp, httptest.NewRequest(http.MethodDelete, "/api/v1/images/404", nil))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
