package service

import (
	"context"
	"errors"

	"cropr/internal/config"
	"cropr/internal/models"
	"cropr/internal/repository"
	"cropr/internal/storage"
	"cropr/pkg/logger"

	"go.uber.org/zap"
)

// CropServiceImpl implements the CropService interface
type CropServiceImpl struct {
	repo        repository.ImageRepository
	source      storage.SourceStorage
	cache       *storage.RenderCache
	processor   ProcessorService
	placeholder PlaceholderService
	config      *config.Config
}

// NewCropService creates the crop pipeline service
func NewCropService(
	repo repository.ImageRepository,
	source storage.SourceStorage,
	cache *storage.RenderCache,
	processor ProcessorService,
	placeholder PlaceholderService,
	cfg *config.Config,
) CropService {
	return &CropServiceImpl{
		repo:        repo,
		source:      source,
		cache:       cache,
		processor:   processor,
		placeholder: placeholder,
		config:      cfg,
	}
}

// Render serves one crop request: cache lookup, then decode, selection
// resolution, render and cache fill. Placeholders are produced for
// missing sources when enabled, and bypass the cache entirely.
func (s *CropServiceImpl) Render(ctx context.Context, req CropRequest) (*CropResult, error) {
	ratio, err := models.ParseRatio(req.RatioToken)
	if err != nil {
		return nil, err
	}

	if req.Width < 1 {
		return nil, models.ValidationError{Field: "width", Message: "width must be positive"}
	}
	if req.Width > s.config.Image.MaxWidth {
		return nil, models.WidthTooLargeError{Width: req.Width, Max: s.config.Image.MaxWidth}
	}

	contentType, err := models.ContentTypeForExtension(req.Extension)
	if err != nil {
		return nil, err
	}

	slug := ratio.Slug()

	cached, hit, err := s.cache.Get(ctx, req.ID, slug, req.Width, req.Extension)
	if err != nil {
		logger.WarnWithContext(ctx, "Render cache read failed, falling through to render",
			zap.Int64("image_id", req.ID),
			zap.Error(err))
	}
	if hit {
		return &CropResult{Data: cached, ContentType: contentType, CacheHit: true}, nil
	}

	meta, err := s.repo.Get(ctx, req.ID)
	if err != nil {
		var notFound models.NotFoundError
		if errors.As(err, &notFound) {
			return s.renderPlaceholder(ctx, ratio, req, models.SourceUnavailableError{ID: req.ID})
		}
		return nil, err
	}

	data, err := s.source.Download(ctx, req.ID)
	if err != nil {
		var unavailable models.SourceUnavailableError
		if errors.As(err, &unavailable) {
			return s.renderPlaceholder(ctx, ratio, req, err)
		}
		return nil, err
	}

	src, err := s.processor.Decode(data)
	if err != nil {
		return nil, err
	}

	// The decoded bounds are the ground truth; the record's cached
	// dimensions may be stale.
	bounds := src.Bounds()
	trueWidth, trueHeight := bounds.Dx(), bounds.Dy()
	bound := ratio.WithDimensions(trueWidth, trueHeight)

	sel, stored := meta.SelectionFor(slug)
	if !stored {
		sel = models.DefaultSelection(bound, trueWidth, trueHeight)
	}

	if err := sel.Validate(trueWidth, trueHeight); err != nil {
		sel, err = s.heal(ctx, meta, bound, trueWidth, trueHeight)
		if err != nil {
			return nil, err
		}
	}

	rendered, err := s.processor.Render(src, sel, RenderOptions{
		Width:       req.Width,
		Extension:   req.Extension,
		JPEGQuality: s.config.Image.JPEGQuality,
	})
	if err != nil {
		return nil, err
	}

	if err := s.cache.Put(ctx, req.ID, slug, req.Width, req.Extension, rendered); err != nil {
		var writeErr models.CacheWriteError
		if errors.As(err, &writeErr) {
			return nil, err
		}
		// The render itself succeeded; serve it and leave the cache cold.
		logger.WarnWithContext(ctx, "Render cache fill failed",
			zap.Int64("image_id", req.ID),
			zap.String("ratio", slug),
			zap.Error(err))
	}

	return &CropResult{Data: rendered, ContentType: contentType}, nil
}

// heal recovers from a selection that does not fit the decoded source:
// the record's dimensions are corrected to the true values and a fresh
// default selection is computed from them. A default that still fails
// means the geometry is genuinely unusable.
func (s *CropServiceImpl) heal(ctx context.Context, meta *models.ImageMetadata, ratio models.Ratio, trueWidth, trueHeight int) (models.Selection, error) {
	logger.WarnWithContext(ctx, "Selection failed geometry check, correcting stored dimensions",
		zap.Int64("image_id", meta.ID),
		zap.Int("stored_width", meta.Width),
		zap.Int("stored_height", meta.Height),
		zap.Int("true_width", trueWidth),
		zap.Int("true_height", trueHeight))

	meta.SetDimensions(trueWidth, trueHeight)
	if err := s.repo.Update(ctx, meta); err != nil {
		// The correction is an optimization for later requests; this
		// render can still proceed on the recomputed default.
		logger.ErrorWithContext(ctx, "Failed to persist corrected dimensions",
			zap.Int64("image_id", meta.ID),
			zap.Error(err))
	}

	sel := models.DefaultSelection(ratio, trueWidth, trueHeight)
	if err := sel.Validate(trueWidth, trueHeight); err != nil {
		return models.Selection{}, err
	}
	return sel, nil
}

// renderPlaceholder produces the synthetic stand-in for a missing
// source, or surfaces the original error when placeholders are off.
func (s *CropServiceImpl) renderPlaceholder(ctx context.Context, ratio models.Ratio, req CropRequest, cause error) (*CropResult, error) {
	if !s.config.Image.Placeholder.Enabled {
		return nil, cause
	}

	// An original-ratio request has no source dimensions to follow, so
	// the stand-in falls back to a square.
	if ratio.Original {
		ratio = models.Ratio{Width: 1, Height: 1, Original: true}
	}

	data, err := s.placeholder.Generate(ratio, req.Width, req.Extension)
	if err != nil {
		return nil, err
	}

	contentType, err := models.ContentTypeForExtension(req.Extension)
	if err != nil {
		return nil, err
	}

	logger.InfoWithContext(ctx, "Serving placeholder",
		zap.Int64("image_id", req.ID),
		zap.String("ratio", ratio.Slug()),
		zap.Int("width", req.Width))

	return &CropResult{Data: data, ContentType: contentType, Placeholder: true}, nil
}
