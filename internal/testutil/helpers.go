package testutil

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"cropr/internal/config"
)

// TestConfig returns a configuration suitable for unit tests, with all
// filesystem roots pointed at per-test temp directories.
func TestConfig(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{
		Server: config.ServerConfig{
			Port:    "8080",
			GinMode: "test",
		},
		Metadata: config.MetadataConfig{
			Backend:   "badger",
			Directory: t.TempDir(),
		},
		Storage: config.StorageConfig{
			Type: "fs",
			Root: t.TempDir(),
		},
		Cache: config.CacheConfig{
			Directory: t.TempDir(),
		},
		Image: config.ImageConfig{
			MaxWidth:    2000,
			JPEGQuality: 80,
			MaxFileSize: 10485760,
			Ratios:      []string{"1x1", "2x1", "3x1", "3x4", "4x3", "16x9"},
			Placeholder: config.PlaceholderConfig{
				Enabled: true,
			},
		},
		RateLimit: config.RateLimitConfig{
			Crop: 100000,
			API:  100000,
		},
		Logger: config.LoggerConfig{
			Level:  "error",
			Format: "console",
		},
		CORS: config.CORSConfig{
			Enabled: false,
		},
		Auth: config.AuthConfig{
			Enabled:   false,
			KeyHeader: "X-API-Key",
		},
	}
}

// TestPNG encodes a width x height PNG filled with a flat color.
func TestPNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	fill := color.RGBA{R: 40, G: 120, B: 200, A: 255}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fill)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test PNG: %v", err)
	}
	return buf.Bytes()
}

// TestJPEG encodes a width x height JPEG filled with a flat color.
func TestJPEG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 60, B: 30, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("failed to encode test JPEG: %v", err)
	}
	return buf.Bytes()
}

// DecodeDims decodes image bytes and returns their dimensions.
func DecodeDims(t *testing.T, data []byte) (int, int) {
	t.Helper()

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode image config: %v", err)
	}
	return cfg.Width, cfg.Height
}

// CreateMultipartRequest creates a multipart upload request with one file field.
func CreateMultipartRequest(method, path, fileField, filename string, fileContent []byte) *http.Request {
	var body bytes.Buffer
	boundary := "test-boundary"

	body.WriteString("--" + boundary + "\r\n")
	body.WriteString("Content-Disposition: form-data; name=\"" + fileField + "\"; filename=\"" + filename + "\"\r\n")
	body.WriteString("Content-Type: application/octet-stream\r\n\r\n")
	body.Write(fileContent)
	body.WriteString("\r\n--" + boundary + "--\r\n")

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "multipart/form-data; boundary="+boundary)
	return req
}

// ParseJSONResponse parses a recorded JSON response into target.
func ParseJSONResponse(resp *httptest.ResponseRecorder, target interface{}) error {
	return json.Unmarshal(resp.Body.Bytes(), target)
}
