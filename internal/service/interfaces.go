package service

import (
	"context"
	"image"

	"cropr/internal/models"
)

// CropService defines the interface for the crop-render-cache pipeline
type CropService interface {
	// Render produces the bytes for one crop request, going through the
	// render cache, the selection resolver and the renderer.
	Render(ctx context.Context, req CropRequest) (*CropResult, error)
}

// ImageService defines the interface for image management
type ImageService interface {
	// ProcessUpload ingests new source bytes and creates the record
	ProcessUpload(ctx context.Context, input UploadInput) (*models.ImageMetadata, error)

	// GetMetadata retrieves image metadata by ID
	GetMetadata(ctx context.Context, id int64) (*models.ImageMetadata, error)

	// UpdateDetails patches name/credit on an image record
	UpdateDetails(ctx context.Context, id int64, req models.UpdateDetailRequest) (*models.ImageMetadata, error)

	// Search finds records by name substring, newest first
	Search(ctx context.Context, query string) ([]*models.ImageMetadata, error)

	// UpdateSelection stores a crop selection for a ratio token and
	// invalidates every cached render for that (image, ratio) pair
	// before reporting success.
	UpdateSelection(ctx context.Context, id int64, ratioToken string, sel models.Selection) error

	// DeleteImage removes the record and its source bytes
	DeleteImage(ctx context.Context, id int64) error
}

// ProcessorService defines the interface for pixel operations
type ProcessorService interface {
	// Decode decodes source bytes into an image
	Decode(data []byte) (image.Image, error)

	// Render crops, resizes and encodes a decoded source image
	Render(src image.Image, sel models.Selection, opts RenderOptions) ([]byte, error)
}

// PlaceholderService defines the interface for synthetic stand-in images
type PlaceholderService interface {
	// Generate produces a labeled colored rectangle for a ratio and width
	Generate(ratio models.Ratio, width int, ext string) ([]byte, error)
}

// HealthService defines the interface for health checking
type HealthService interface {
	// CheckHealth performs comprehensive health check
	CheckHealth(ctx context.Context) (*HealthStatus, error)

	// GetMetrics retrieves system metrics
	GetMetrics(ctx context.Context) (map[string]interface{}, error)
}

// Input/Output Types

// CropRequest represents one inbound crop request after path resolution
type CropRequest struct {
	ID         int64  `json:"id"`
	RatioToken string `json:"ratio"`
	Width      int    `json:"width"`
	Extension  string `json:"extension"`
}

// CropResult represents the outcome of a crop request
type CropResult struct {
	Data        []byte `json:"-"`
	ContentType string `json:"content_type"`
	Placeholder bool   `json:"placeholder"`
	CacheHit    bool   `json:"cache_hit"`
}

// UploadInput represents input for image upload
type UploadInput struct {
	Filename string `json:"filename"`
	Data     []byte `json:"-"`
	Size     int64  `json:"size"`
}

// RenderOptions represents crop render parameters
type RenderOptions struct {
	Width       int    `json:"width"`
	Extension   string `json:"extension"`
	JPEGQuality int    `json:"jpeg_quality"`
}

// HealthStatus represents system health status
type HealthStatus struct {
	Services map[string]string `json:"services"`
	Uptime   int64             `json:"uptime_seconds"`
	Version  string            `json:"version"`
}
