package repository

import (
	"context"

	"cropr/internal/models"
)

// ImageRepository defines the interface for image metadata operations.
// The crop pipeline only reads records and writes dimension corrections;
// everything else is CRUD for the management API.
type ImageRepository interface {
	// NextID allocates the next image identifier from the sequence
	NextID(ctx context.Context) (int64, error)

	// Store saves image metadata
	Store(ctx context.Context, img *models.ImageMetadata) error

	// Get retrieves image metadata by ID.
	// A missing record yields models.NotFoundError.
	Get(ctx context.Context, id int64) (*models.ImageMetadata, error)

	// Update updates existing image metadata
	Update(ctx context.Context, img *models.ImageMetadata) error

	// Delete removes image metadata
	Delete(ctx context.Context, id int64) error

	// Exists checks if image metadata exists
	Exists(ctx context.Context, id int64) (bool, error)

	// Search retrieves records whose name contains query
	// (case-insensitive), newest first, at most limit entries.
	// An empty query matches everything.
	Search(ctx context.Context, query string, limit int) ([]*models.ImageMetadata, error)

	// Health checks repository health
	Health(ctx context.Context) error

	// Close closes the repository connection
	Close() error
}
