package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"cropr/internal/config"
	"cropr/internal/models"
	"cropr/pkg/logger"

	"go.uber.org/zap"
)

// RenderCache persists rendered crops on the local filesystem at
// <root>/<shardedID>/<ratioToken>/<width>.<ext>. A file's existence at
// that key is the sole cache-hit signal; entries are only removed by
// Invalidate when a selection changes.
//
// Renders are deterministic, so concurrent writers racing on the same
// key are allowed to overwrite each other.
type RenderCache struct {
	root string
}

// NewRenderCache creates a render cache rooted at cfg.Directory.
func NewRenderCache(cfg *config.CacheConfig) (*RenderCache, error) {
	logger.Info("Initializing render cache",
		zap.String("directory", cfg.Directory))

	if err := os.MkdirAll(cfg.Directory, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create render cache root: %w", err)
	}

	return &RenderCache{root: cfg.Directory}, nil
}

// EntryPath returns the cache file path for a render key.
func (c *RenderCache) EntryPath(id int64, ratioSlug string, width int, ext string) string {
	return filepath.Join(c.ratioDir(id, ratioSlug), strconv.Itoa(width)+"."+ext)
}

// ratioDir returns the per-ratio subtree for an image.
func (c *RenderCache) ratioDir(id int64, ratioSlug string) string {
	return filepath.Join(c.root, filepath.FromSlash(models.IDPath(id)), ratioSlug)
}

// Get reads a cached render. A miss is not an error.
func (c *RenderCache) Get(ctx context.Context, id int64, ratioSlug string, width int, ext string) ([]byte, bool, error) {
	path := c.EntryPath(id, ratioSlug, width, ext)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.DebugWithContext(ctx, "Render cache miss",
				zap.Int64("image_id", id),
				zap.String("ratio", ratioSlug),
				zap.Int("width", width))
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cached render: %w", err)
	}

	logger.DebugWithContext(ctx, "Render cache hit",
		zap.Int64("image_id", id),
		zap.String("ratio", ratioSlug),
		zap.Int("width", width),
		zap.Int("size", len(data)))

	return data, true, nil
}

// Put stores a rendered crop. A directory-creation failure is fatal
// (models.CacheWriteError); a failure on the file write itself is
// returned as a plain error so the caller can still serve the bytes.
func (c *RenderCache) Put(ctx context.Context, id int64, ratioSlug string, width int, ext string, data []byte) error {
	dir := c.ratioDir(id, ratioSlug)

	// MkdirAll treats an existing directory as success, which covers the
	// concurrent-creation race.
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return models.CacheWriteError{Path: dir, Reason: err.Error()}
	}

	path := filepath.Join(dir, strconv.Itoa(width)+"."+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cached render %s: %w", path, err)
	}

	logger.DebugWithContext(ctx, "Render cached",
		zap.Int64("image_id", id),
		zap.String("ratio", ratioSlug),
		zap.Int("width", width),
		zap.Int("size", len(data)))

	return nil
}

// InvalidateImage removes every cached render for an image, across all
// ratio tokens. Used on image deletion, where enumerating tokens would
// miss renders cached under ratios outside the configured set.
func (c *RenderCache) InvalidateImage(ctx context.Context, id int64) error {
	dir := filepath.Join(c.root, filepath.FromSlash(models.IDPath(id)))

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to invalidate render cache %s: %w", dir, err)
	}

	logger.InfoWithContext(ctx, "Render cache invalidated for image",
		zap.Int64("image_id", id))

	return nil
}

// Invalidate removes every cached render for one (image, ratio) pair.
func (c *RenderCache) Invalidate(ctx context.Context, id int64, ratioSlug string) error {
	dir := c.ratioDir(id, ratioSlug)

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to invalidate render cache %s: %w", dir, err)
	}

	logger.InfoWithContext(ctx, "Render cache invalidated",
		zap.Int64("image_id", id),
		zap.String("ratio", ratioSlug))

	return nil
}
