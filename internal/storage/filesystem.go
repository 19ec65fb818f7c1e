package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"cropr/internal/config"
	"cropr/internal/models"
	"cropr/pkg/logger"

	"go.uber.org/zap"
)

// sourceFilename is the name of the source artifact inside an image's
// sharded directory.
const sourceFilename = "src"

// FilesystemStorage implements SourceStorage on a local directory tree,
// sharded by image id to bound per-directory fan-out.
type FilesystemStorage struct {
	root string
}

// NewFilesystemStorage creates a filesystem source storage rooted at cfg.Root.
func NewFilesystemStorage(cfg *config.StorageConfig) (*FilesystemStorage, error) {
	logger.Info("Initializing filesystem source storage",
		zap.String("root", cfg.Root))

	if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}

	return &FilesystemStorage{root: cfg.Root}, nil
}

// sourcePath returns the absolute path of the source file for an id.
func (s *FilesystemStorage) sourcePath(id int64) string {
	return filepath.Join(s.root, filepath.FromSlash(models.IDPath(id)), sourceFilename)
}

// Upload stores the source bytes for an image id
func (s *FilesystemStorage) Upload(ctx context.Context, id int64, data []byte, contentType string) error {
	path := s.sourcePath(id)

	logger.DebugWithContext(ctx, "Writing source file",
		zap.Int64("image_id", id),
		zap.String("path", path),
		zap.String("content_type", contentType),
		zap.Int("size", len(data)))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return models.StorageError{Operation: "upload", Backend: "fs", Reason: err.Error()}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return models.StorageError{Operation: "upload", Backend: "fs", Reason: err.Error()}
	}
	return nil
}

// Download retrieves the source bytes for an image id
func (s *FilesystemStorage) Download(ctx context.Context, id int64) ([]byte, error) {
	data, err := os.ReadFile(s.sourcePath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.DebugWithContext(ctx, "Source file missing",
				zap.Int64("image_id", id))
			return nil, models.SourceUnavailableError{ID: id}
		}
		return nil, models.StorageError{Operation: "download", Backend: "fs", Reason: err.Error()}
	}
	return data, nil
}

// Delete removes the source bytes for an image id
func (s *FilesystemStorage) Delete(ctx context.Context, id int64) error {
	dir := filepath.Join(s.root, filepath.FromSlash(models.IDPath(id)))
	if err := os.RemoveAll(dir); err != nil {
		return models.StorageError{Operation: "delete", Backend: "fs", Reason: err.Error()}
	}
	return nil
}

// Exists checks whether source bytes are present for an image id
func (s *FilesystemStorage) Exists(ctx context.Context, id int64) (bool, error) {
	_, err := os.Stat(s.sourcePath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, models.StorageError{Operation: "stat", Backend: "fs", Reason: err.Error()}
	}
	return true, nil
}

// Health checks that the storage root is writable
func (s *FilesystemStorage) Health(ctx context.Context) error {
	probe, err := os.CreateTemp(s.root, ".health-*")
	if err != nil {
		return fmt.Errorf("storage root not writable: %w", err)
	}
	name := probe.Name()
	probe.Close()
	if err := os.Remove(name); err != nil {
		logger.WarnWithContext(ctx, "Failed to remove health probe file",
			zap.String("path", name),
			zap.Error(err))
	}
	return nil
}
