package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cropr/internal/config"
	"cropr/internal/models"
	"cropr/pkg/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

// S3Storage implements SourceStorage against AWS S3 or an S3-compatible
// endpoint. Only source artifacts live in the bucket; rendered crops
// stay on the local filesystem.
type S3Storage struct {
	client   *s3.Client
	uploader *manager.Uploader
	config   *config.S3Config
	bucket   string
}

// NewS3Storage creates a new S3 source storage instance
func NewS3Storage(cfg *config.S3Config) (*S3Storage, error) {
	logger.Info("Initializing S3 source storage",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("region", cfg.Region),
		zap.String("bucket", cfg.Bucket))

	awsConfig, err := createAWSConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "https://s3.amazonaws.com" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // Required for MinIO and custom endpoints
		}
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 10 * 1024 * 1024
		u.Concurrency = 3
	})

	storage := &S3Storage{
		client:   client,
		uploader: uploader,
		config:   cfg,
		bucket:   cfg.Bucket,
	}

	if err := storage.Health(context.Background()); err != nil {
		return nil, fmt.Errorf("S3 health check failed: %w", err)
	}

	logger.Info("S3 source storage initialized successfully")
	return storage, nil
}

// sourceKey returns the bucket key for an image's source artifact.
func sourceKey(id int64) string {
	return fmt.Sprintf("images/%s/%s", models.IDPath(id), sourceFilename)
}

// Upload stores the source bytes for an image id
func (s *S3Storage) Upload(ctx context.Context, id int64, data []byte, contentType string) error {
	key := sourceKey(id)

	logger.DebugWithContext(ctx, "Uploading source to S3",
		zap.Int64("image_id", id),
		zap.String("key", key),
		zap.Int("size", len(data)))

	// The uploader switches to multipart automatically for large bodies.
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to upload source to S3",
			zap.Int64("image_id", id),
			zap.Error(err))
		return models.StorageError{Operation: "upload", Backend: "s3", Reason: err.Error()}
	}

	return nil
}

// Download retrieves the source bytes for an image id
func (s *S3Storage) Download(ctx context.Context, id int64) ([]byte, error) {
	key := sourceKey(id)

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFoundError(err) {
			logger.DebugWithContext(ctx, "Source object missing in S3",
				zap.Int64("image_id", id),
				zap.String("key", key))
			return nil, models.SourceUnavailableError{ID: id}
		}
		return nil, models.StorageError{Operation: "download", Backend: "s3", Reason: err.Error()}
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, models.StorageError{Operation: "download", Backend: "s3", Reason: err.Error()}
	}
	return data, nil
}

// Delete removes the source bytes for an image id
func (s *S3Storage) Delete(ctx context.Context, id int64) error {
	key := sourceKey(id)

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to delete source from S3",
			zap.Int64("image_id", id),
			zap.Error(err))
		return models.StorageError{Operation: "delete", Backend: "s3", Reason: err.Error()}
	}

	return nil
}

// Exists checks whether source bytes are present for an image id
func (s *S3Storage) Exists(ctx context.Context, id int64) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(sourceKey(id)),
	})
	if err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		return false, models.StorageError{Operation: "head", Backend: "s3", Reason: err.Error()}
	}
	return true, nil
}

// Health checks storage service health
func (s *S3Storage) Health(ctx context.Context) error {
	_, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return fmt.Errorf("S3 health check failed: %w", err)
	}

	// Test write permissions with a health check object
	healthKey := fmt.Sprintf("health-check/%d", time.Now().Unix())

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(healthKey),
		Body:        strings.NewReader("health-check"),
		ContentType: aws.String("text/plain"),
	})
	if err != nil {
		return fmt.Errorf("S3 write test failed: %w", err)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(healthKey),
	})
	if err != nil {
		logger.WarnWithContext(ctx, "Failed to cleanup health check object",
			zap.String("key", healthKey),
			zap.Error(err))
	}

	return nil
}

// Helper functions

// createAWSConfig creates AWS configuration
func createAWSConfig(cfg *config.S3Config) (aws.Config, error) {
	credProvider := credentials.NewStaticCredentialsProvider(
		cfg.AccessKey,
		cfg.SecretKey,
		"", // session token not needed for static credentials
	)

	awsConfig, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithCredentialsProvider(credProvider),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return aws.Config{}, err
	}

	return awsConfig, nil
}

// isNotFoundError checks if the error is a "not found" error
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}

	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}

	return strings.Contains(err.Error(), "404") ||
		strings.Contains(err.Error(), "NoSuchKey") ||
		strings.Contains(err.Error(), "Not Found")
}

// NewSourceStorage creates the configured source storage backend.
func NewSourceStorage(cfg *config.StorageConfig) (SourceStorage, error) {
	switch cfg.Type {
	case "fs":
		return NewFilesystemStorage(cfg)
	case "s3":
		return NewS3Storage(&cfg.S3)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
