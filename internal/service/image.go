package service

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"

	"cropr/internal/config"
	"cropr/internal/models"
	"cropr/internal/repository"
	"cropr/internal/storage"
	"cropr/pkg/logger"

	"go.uber.org/zap"
)

// searchLimit caps the number of records returned by a name search.
const searchLimit = 25

// ImageServiceImpl implements the ImageService interface
type ImageServiceImpl struct {
	repo      repository.ImageRepository
	source    storage.SourceStorage
	cache     *storage.RenderCache
	processor ProcessorService
	config    *config.Config
}

// NewImageService creates a new image management service
func NewImageService(
	repo repository.ImageRepository,
	source storage.SourceStorage,
	cache *storage.RenderCache,
	processor ProcessorService,
	cfg *config.Config,
) ImageService {
	return &ImageServiceImpl{
		repo:      repo,
		source:    source,
		cache:     cache,
		processor: processor,
		config:    cfg,
	}
}

// ProcessUpload decodes the upload to capture true dimensions, allocates
// an id, stores the source bytes and creates the metadata record.
func (s *ImageServiceImpl) ProcessUpload(ctx context.Context, input UploadInput) (*models.ImageMetadata, error) {
	if len(input.Data) == 0 {
		return nil, models.ValidationError{Field: "file", Message: "empty upload"}
	}
	if input.Size > s.config.Image.MaxFileSize {
		return nil, models.ValidationError{Field: "file", Message: "file exceeds maximum size"}
	}

	img, err := s.processor.Decode(input.Data)
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()

	id, err := s.repo.NextID(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSuffix(input.Filename, filepath.Ext(input.Filename))
	if name == "" {
		name = input.Filename
	}

	meta := models.NewImageMetadata(id, name, bounds.Dx(), bounds.Dy())
	if err := meta.Validate(); err != nil {
		return nil, err
	}

	if err := s.source.Upload(ctx, id, input.Data, http.DetectContentType(input.Data)); err != nil {
		return nil, err
	}

	if err := s.repo.Store(ctx, meta); err != nil {
		// Roll back the source write so no orphan bytes remain.
		if delErr := s.source.Delete(ctx, id); delErr != nil {
			logger.ErrorWithContext(ctx, "Failed to clean up source after store failure",
				zap.Int64("image_id", id),
				zap.Error(delErr))
		}
		return nil, err
	}

	logger.InfoWithContext(ctx, "Image uploaded",
		zap.Int64("image_id", id),
		zap.String("name", name),
		zap.Int("width", meta.Width),
		zap.Int("height", meta.Height))

	return meta, nil
}

// GetMetadata retrieves a record by id
func (s *ImageServiceImpl) GetMetadata(ctx context.Context, id int64) (*models.ImageMetadata, error) {
	return s.repo.Get(ctx, id)
}

// UpdateDetails patches the editable record fields
func (s *ImageServiceImpl) UpdateDetails(ctx context.Context, id int64, req models.UpdateDetailRequest) (*models.ImageMetadata, error) {
	meta, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	changed := false
	if req.Name != nil {
		if *req.Name == "" {
			return nil, models.ValidationError{Field: "name", Message: "name cannot be empty"}
		}
		meta.Name = *req.Name
		changed = true
	}
	if req.Credit != nil {
		meta.Credit = *req.Credit
		changed = true
	}

	if !changed {
		return meta, nil
	}

	if err := s.repo.Update(ctx, meta); err != nil {
		return nil, err
	}

	return meta, nil
}

// Search finds records by name substring, newest first
func (s *ImageServiceImpl) Search(ctx context.Context, query string) ([]*models.ImageMetadata, error) {
	return s.repo.Search(ctx, query, searchLimit)
}

// UpdateSelection stores a crop selection for an allowed ratio token.
// The cached renders for that ratio are removed before the update is
// reported, so a success is never followed by a stale render.
func (s *ImageServiceImpl) UpdateSelection(ctx context.Context, id int64, ratioToken string, sel models.Selection) error {
	ratio, err := models.ParseRatio(ratioToken)
	if err != nil {
		return err
	}
	if !s.config.IsAllowedRatio(ratioToken) {
		return models.InvalidRatioError{Token: ratioToken}
	}

	meta, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := sel.Validate(meta.Width, meta.Height); err != nil {
		return err
	}

	slug := ratio.Slug()
	if err := s.cache.Invalidate(ctx, id, slug); err != nil {
		return err
	}

	meta.SetSelection(slug, sel)
	if err := s.repo.Update(ctx, meta); err != nil {
		return err
	}

	logger.InfoWithContext(ctx, "Selection updated",
		zap.Int64("image_id", id),
		zap.String("ratio", slug),
		zap.Int("x0", sel.X0),
		zap.Int("y0", sel.Y0),
		zap.Int("x1", sel.X1),
		zap.Int("y1", sel.Y1))

	return nil
}

// DeleteImage removes the record, its source bytes and all cached renders
func (s *ImageServiceImpl) DeleteImage(ctx context.Context, id int64) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}

	// Crop reads accept any well-formed ratio token, so the cache may
	// hold renders outside the configured set; drop the whole subtree.
	if err := s.cache.InvalidateImage(ctx, id); err != nil {
		logger.WarnWithContext(ctx, "Failed to clear cached renders",
			zap.Int64("image_id", id),
			zap.Error(err))
	}

	if err := s.source.Delete(ctx, id); err != nil {
		logger.WarnWithContext(ctx, "Failed to delete source bytes",
			zap.Int64("image_id", id),
			zap.Error(err))
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	logger.InfoWithContext(ctx, "Image deleted", zap.Int64("image_id", id))
	return nil
}
