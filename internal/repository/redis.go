package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"cropr/internal/config"
	"cropr/internal/models"
	"cropr/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	metadataKeyPrefix = "cropr:image:"
	sequenceKey       = "cropr:image:seq"
)

// RedisRepository implements ImageRepository on Redis. Records are hashes
// keyed by id; the id sequence is a plain INCR counter.
type RedisRepository struct {
	client redis.Cmdable
	config *config.RedisConfig
}

// NewRedisRepository creates a new Redis repository
func NewRedisRepository(cfg *config.RedisConfig) (ImageRepository, error) {
	logger.Info("Initializing Redis repository",
		zap.String("url", cfg.URL),
		zap.Int("db", cfg.DB),
		zap.Int("pool_size", cfg.PoolSize))

	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}

	opt.Password = cfg.Password
	opt.DB = cfg.DB
	opt.PoolSize = cfg.PoolSize
	opt.DialTimeout = cfg.Timeout
	opt.ReadTimeout = cfg.Timeout
	opt.WriteTimeout = cfg.Timeout

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis repository initialized successfully")
	return &RedisRepository{client: client, config: cfg}, nil
}

// NextID allocates the next image identifier
func (r *RedisRepository) NextID(ctx context.Context) (int64, error) {
	id, err := r.client.Incr(ctx, sequenceKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to allocate image id: %w", err)
	}
	return id, nil
}

// Store saves image metadata to Redis
func (r *RedisRepository) Store(ctx context.Context, img *models.ImageMetadata) error {
	if err := img.Validate(); err != nil {
		return fmt.Errorf("invalid metadata: %w", err)
	}

	key := r.metadataKey(img.ID)
	fields, err := metadataToFields(img)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	if err := r.client.HMSet(ctx, key, fields).Err(); err != nil {
		logger.ErrorWithContext(ctx, "Failed to store image metadata",
			zap.Int64("image_id", img.ID),
			zap.String("key", key),
			zap.Error(err))
		return fmt.Errorf("failed to store metadata: %w", err)
	}

	logger.DebugWithContext(ctx, "Image metadata stored",
		zap.Int64("image_id", img.ID))
	return nil
}

// Get retrieves image metadata by ID
func (r *RedisRepository) Get(ctx context.Context, id int64) (*models.ImageMetadata, error) {
	key := r.metadataKey(id)

	fields, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata: %w", err)
	}

	if len(fields) == 0 {
		return nil, models.NotFoundError{
			Resource: "image",
			ID:       strconv.FormatInt(id, 10),
		}
	}

	metadata, err := fieldsToMetadata(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return metadata, nil
}

// Update updates existing image metadata
func (r *RedisRepository) Update(ctx context.Context, img *models.ImageMetadata) error {
	exists, err := r.Exists(ctx, img.ID)
	if err != nil {
		return err
	}
	if !exists {
		return models.NotFoundError{
			Resource: "image",
			ID:       strconv.FormatInt(img.ID, 10),
		}
	}

	img.UpdatedAt = time.Now()
	return r.Store(ctx, img)
}

// Delete removes image metadata from Redis
func (r *RedisRepository) Delete(ctx context.Context, id int64) error {
	deleted, err := r.client.Del(ctx, r.metadataKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete metadata: %w", err)
	}
	if deleted == 0 {
		return models.NotFoundError{
			Resource: "image",
			ID:       strconv.FormatInt(id, 10),
		}
	}

	logger.InfoWithContext(ctx, "Image metadata deleted",
		zap.Int64("image_id", id))
	return nil
}

// Exists checks if image metadata exists
func (r *RedisRepository) Exists(ctx context.Context, id int64) (bool, error) {
	exists, err := r.client.Exists(ctx, r.metadataKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return exists > 0, nil
}

// Search retrieves records matching a name substring, newest first
func (r *RedisRepository) Search(ctx context.Context, query string, limit int) ([]*models.ImageMetadata, error) {
	pattern := metadataKeyPrefix + "*"

	var cursor uint64
	var keys []string
	for {
		scanKeys, next, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan keys: %w", err)
		}
		keys = append(keys, scanKeys...)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	needle := strings.ToLower(query)
	results := make([]*models.ImageMetadata, 0, limit)
	for _, key := range keys {
		if key == sequenceKey {
			continue
		}
		fields, err := r.client.HGetAll(ctx, key).Result()
		if err != nil || len(fields) == 0 {
			continue
		}
		metadata, err := fieldsToMetadata(fields)
		if err != nil {
			logger.WarnWithContext(ctx, "Skipping unparseable image record",
				zap.String("key", key),
				zap.Error(err))
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(metadata.Name), needle) {
			continue
		}
		results = append(results, metadata)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].ID > results[j].ID
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Health checks repository health
func (r *RedisRepository) Health(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the repository connection
func (r *RedisRepository) Close() error {
	if client, ok := r.client.(*redis.Client); ok {
		return client.Close()
	}
	return nil
}

// Helper methods

func (r *RedisRepository) metadataKey(id int64) string {
	return metadataKeyPrefix + strconv.FormatInt(id, 10)
}

// metadataToFields converts metadata into Redis hash fields. The
// selections map is stored as a JSON blob in a single field.
func metadataToFields(img *models.ImageMetadata) (map[string]interface{}, error) {
	selections, err := json.Marshal(img.Selections)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"id":         img.ID,
		"name":       img.Name,
		"credit":     img.Credit,
		"width":      img.Width,
		"height":     img.Height,
		"selections": string(selections),
		"created_at": img.CreatedAt.Format(time.RFC3339Nano),
		"updated_at": img.UpdatedAt.Format(time.RFC3339Nano),
	}, nil
}

// fieldsToMetadata converts Redis hash fields back into metadata.
func fieldsToMetadata(fields map[string]string) (*models.ImageMetadata, error) {
	id, err := strconv.ParseInt(fields["id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid id field: %w", err)
	}
	width, err := strconv.Atoi(fields["width"])
	if err != nil {
		return nil, fmt.Errorf("invalid width field: %w", err)
	}
	height, err := strconv.Atoi(fields["height"])
	if err != nil {
		return nil, fmt.Errorf("invalid height field: %w", err)
	}

	selections := map[string]models.Selection{}
	if raw := fields["selections"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &selections); err != nil {
			return nil, fmt.Errorf("invalid selections field: %w", err)
		}
	}

	metadata := &models.ImageMetadata{
		ID:         id,
		Name:       fields["name"],
		Credit:     fields["credit"],
		Width:      width,
		Height:     height,
		Selections: selections,
	}

	if raw := fields["created_at"]; raw != "" {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			metadata.CreatedAt = t
		}
	}
	if raw := fields["updated_at"]; raw != "" {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			metadata.UpdatedAt = t
		}
	}

	return metadata, nil
}
