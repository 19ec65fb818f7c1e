package service

import (
	"context"
	"runtime"
	"time"

	"cropr/internal/repository"
	"cropr/internal/storage"
	"cropr/pkg/logger"

	"go.uber.org/zap"
)

// HealthServiceImpl implements the HealthService interface
type HealthServiceImpl struct {
	repo      repository.ImageRepository
	source    storage.SourceStorage
	startTime time.Time
	version   string
}

// NewHealthService creates a new health service
func NewHealthService(
	repo repository.ImageRepository,
	source storage.SourceStorage,
	version string,
) HealthService {
	return &HealthServiceImpl{
		repo:      repo,
		source:    source,
		startTime: time.Now(),
		version:   version,
	}
}

// CheckHealth performs comprehensive health check
func (s *HealthServiceImpl) CheckHealth(ctx context.Context) (*HealthStatus, error) {
	logger.DebugWithContext(ctx, "Starting health check")

	services := make(map[string]string)

	if err := s.repo.Health(ctx); err != nil {
		logger.WarnWithContext(ctx, "Metadata store health check failed",
			zap.Error(err))
		services["metadata"] = "unhealthy: " + err.Error()
	} else {
		services["metadata"] = "connected"
	}

	if err := s.source.Health(ctx); err != nil {
		logger.WarnWithContext(ctx, "Source storage health check failed",
			zap.Error(err))
		services["storage"] = "unhealthy: " + err.Error()
	} else {
		services["storage"] = "connected"
	}

	services["application"] = "healthy"

	uptime := int64(time.Since(s.startTime).Seconds())

	status := &HealthStatus{
		Services: services,
		Uptime:   uptime,
		Version:  s.version,
	}

	logger.InfoWithContext(ctx, "Health check completed",
		zap.Any("services", services),
		zap.Int64("uptime", uptime))

	return status, nil
}

// GetMetrics retrieves system metrics
func (s *HealthServiceImpl) GetMetrics(ctx context.Context) (map[string]interface{}, error) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := map[string]interface{}{
		"system": map[string]interface{}{
			"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
			"version":        s.version,
			"go_version":     runtime.Version(),
			"goroutines":     runtime.NumGoroutine(),
			"cpu_count":      runtime.NumCPU(),
		},
		"memory": map[string]interface{}{
			"alloc_bytes":      memStats.Alloc,
			"sys_bytes":        memStats.Sys,
			"heap_alloc_bytes": memStats.HeapAlloc,
			"heap_objects":     memStats.HeapObjects,
			"gc_runs":          memStats.NumGC,
		},
		"timestamp": time.Now().Unix(),
	}

	return metrics, nil
}
