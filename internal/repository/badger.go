package repository

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"cropr/internal/config"
	"cropr/internal/models"
	"cropr/pkg/logger"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

const (
	badgerMetadataPrefix = "image:meta:"
	badgerSequenceKey    = "image:seq"
)

// BadgerRepository implements ImageRepository on an embedded BadgerDB,
// for deployments without a Redis server. Records are JSON values keyed
// by zero-padded id so prefix iteration yields ascending order.
type BadgerRepository struct {
	db        *badger.DB
	directory string
}

// NewBadgerRepository creates a new BadgerDB repository
func NewBadgerRepository(cfg *config.MetadataConfig) (*BadgerRepository, error) {
	logger.Info("Initializing BadgerDB repository",
		zap.String("directory", cfg.Directory))

	if err := os.MkdirAll(cfg.Directory, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create metadata directory: %w", err)
	}

	opts := badger.DefaultOptions(cfg.Directory)
	opts.Logger = &badgerLogger{} // Custom logger to suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	logger.Info("BadgerDB repository initialized successfully")
	return &BadgerRepository{db: db, directory: cfg.Directory}, nil
}

// NextID allocates the next image identifier
func (b *BadgerRepository) NextID(ctx context.Context) (int64, error) {
	var id int64

	// Transactional read-increment-write; retried on conflict so that
	// concurrent uploads never observe the same value.
	for {
		err := b.db.Update(func(txn *badger.Txn) error {
			var current int64
			item, err := txn.Get([]byte(badgerSequenceKey))
			if err == nil {
				err = item.Value(func(val []byte) error {
					if len(val) == 8 {
						current = int64(binary.BigEndian.Uint64(val))
					}
					return nil
				})
				if err != nil {
					return err
				}
			} else if err != badger.ErrKeyNotFound {
				return err
			}

			id = current + 1
			buf := make([]byte, 8)
			binary.BigEndian.PutUint64(buf, uint64(id))
			return txn.Set([]byte(badgerSequenceKey), buf)
		})
		if err == badger.ErrConflict {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("failed to allocate image id: %w", err)
		}
		return id, nil
	}
}

// Store saves image metadata
func (b *BadgerRepository) Store(ctx context.Context, img *models.ImageMetadata) error {
	if err := img.Validate(); err != nil {
		return fmt.Errorf("invalid metadata: %w", err)
	}

	data, err := json.Marshal(img)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(b.metadataKey(img.ID)), data)
	})
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to store image metadata",
			zap.Int64("image_id", img.ID),
			zap.Error(err))
		return fmt.Errorf("failed to store metadata: %w", err)
	}

	logger.DebugWithContext(ctx, "Image metadata stored",
		zap.Int64("image_id", img.ID))
	return nil
}

// Get retrieves image metadata by ID
func (b *BadgerRepository) Get(ctx context.Context, id int64) (*models.ImageMetadata, error) {
	var metadata models.ImageMetadata

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(b.metadataKey(id)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &metadata)
		})
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, models.NotFoundError{
				Resource: "image",
				ID:       strconv.FormatInt(id, 10),
			}
		}
		return nil, fmt.Errorf("failed to get metadata: %w", err)
	}

	return &metadata, nil
}

// Update updates existing image metadata
func (b *BadgerRepository) Update(ctx context.Context, img *models.ImageMetadata) error {
	exists, err := b.Exists(ctx, img.ID)
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
	return b.Store(ctx, img)
}

// Delete removes image metadata
func (b *BadgerRepository) Delete(ctx context.Context, id int64) error {
	exists, err := b.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return models.NotFoundError{
			Resource: "image",
			ID:       strconv.FormatInt(id, 10),
		}
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(b.metadataKey(id)))
	})
	if err != nil {
		return fmt.Errorf("failed to delete metadata: %w", err)
	}

	logger.InfoWithContext(ctx, "Image metadata deleted",
		zap.Int64("image_id", id))
	return nil
}

// Exists checks if image metadata exists
func (b *BadgerRepository) Exists(ctx context.Context, id int64) (bool, error) {
	err := b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(b.metadataKey(id)))
		return err
	})
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return true, nil
}

// Search retrieves records matching a name substring, newest first
func (b *BadgerRepository) Search(ctx context.Context, query string, limit int) ([]*models.ImageMetadata, error) {
	needle := strings.ToLower(query)
	var results []*models.ImageMetadata

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		iter := txn.NewIterator(opts)
		defer iter.Close()

		prefix := []byte(badgerMetadataPrefix)
		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				var metadata models.ImageMetadata
				if err := json.Unmarshal(val, &metadata); err != nil {
					logger.WarnWithContext(ctx, "Skipping unparseable image record",
						zap.Error(err))
					return nil
				}
				if needle != "" && !strings.Contains(strings.ToLower(metadata.Name), needle) {
					return nil
				}
				results = append(results, &metadata)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search metadata: %w", err)
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
func (b *BadgerRepository) Health(ctx context.Context) error {
	if b.db.IsClosed() {
		return fmt.Errorf("BadgerDB is closed")
	}
	return nil
}

// Close closes the repository
func (b *BadgerRepository) Close() error {
	logger.Info("Closing BadgerDB repository")
	return b.db.Close()
}

// metadataKey returns a zero-padded key so iteration order follows id order.
func (b *BadgerRepository) metadataKey(id int64) string {
	return fmt.Sprintf("%s%016d", badgerMetadataPrefix, id)
}

// badgerLogger implements badger.Logger to suppress BadgerDB logs
type badgerLogger struct{}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	logger.Error("BadgerDB error", zap.String("message", fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	// Suppress warnings - BadgerDB is quite verbose
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	// Suppress info logs
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	// Suppress debug logs
}
