package storage

import (
	"context"
)

// SourceStorage defines the interface for source image byte storage.
// Rendered crops never go through this interface; they live in the
// filesystem RenderCache so that cache paths stay deterministic.
type SourceStorage interface {
	// Upload stores the source bytes for an image id
	Upload(ctx context.Context, id int64, data []byte, contentType string) error

	// Download retrieves the source bytes for an image id.
	// A missing source yields models.SourceUnavailableError.
	Download(ctx context.Context, id int64) ([]byte, error)

	// Delete removes the source bytes for an image id
	Delete(ctx context.Context, id int64) error

	// Exists checks whether source bytes are present for an image id
	Exists(ctx context.Context, id int64) (bool, error)

	// Health checks storage backend health
	Health(ctx context.Context) error
}
