package repository

import (
	"fmt"

	"cropr/internal/config"
	"cropr/pkg/logger"

	"go.uber.org/zap"
)

// NewImageRepository creates the configured metadata store backend.
func NewImageRepository(cfg *config.Config) (ImageRepository, error) {
	logger.Info("Initializing image repository",
		zap.String("backend", cfg.Metadata.Backend))

	switch cfg.Metadata.Backend {
	case "redis":
		return NewRedisRepository(&cfg.Redis)

	case "badger":
		return NewBadgerRepository(&cfg.Metadata)

	default:
		return nil, fmt.Errorf("unsupported metadata backend: %s", cfg.Metadata.Backend)
	}
}
