package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Metadata  MetadataConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Cache     CacheConfig
	Image     ImageConfig
	RateLimit RateLimitConfig
	Logger    LoggerConfig
	CORS      CORSConfig
	Auth      AuthConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port    string
	GinMode string
}

// MetadataConfig selects the metadata store backend.
// - "redis": image records in Redis (requires a Redis server)
// - "badger": image records in BadgerDB (embedded, no external dependencies)
type MetadataConfig struct {
	Backend   string
	Directory string // BadgerDB directory (only used when backend=badger)
}

// RedisConfig holds Redis database configuration
type RedisConfig struct {
	URL      string
	Password string
	DB       int
	PoolSize int
	Timeout  time.Duration
}

// StorageConfig holds source image storage configuration.
// - "fs": source bytes under Root, sharded by image id
// - "s3": source bytes in an S3-compatible bucket; rendered crops stay on
//   the local filesystem either way
type StorageConfig struct {
	Type string
	Root string // filesystem root for source images (type=fs)
	S3   S3Config
}

// S3Config holds S3 storage configuration
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// CacheConfig holds render cache configuration
type CacheConfig struct {
	Directory string // root of the rendered-crop tree
}

// ImageConfig holds crop pipeline configuration
type ImageConfig struct {
	MaxWidth    int      // upper bound on requested render width
	JPEGQuality int      // fixed encoding quality for jpg output
	MaxFileSize int64    // upload size cap
	Ratios      []string // ratio tokens accepted for selection updates
	Placeholder PlaceholderConfig
}

// PlaceholderConfig holds placeholder fallback configuration
type PlaceholderConfig struct {
	Enabled  bool
	FontPath string // optional TTF/OTF file for the label; built-in face when empty
}

// RateLimitConfig holds rate limiting configuration (requests per minute)
type RateLimitConfig struct {
	Crop int
	API  int
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "json", "console"
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	Enabled          bool
	AllowAllOrigins  bool
	AllowedOrigins   []string
	AllowCredentials bool
}

// AuthConfig holds API key authentication configuration
type AuthConfig struct {
	Enabled       bool
	ReadWriteKeys []string
	ReadOnlyKeys  []string
	KeyHeader     string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "release"),
		},
		Metadata: MetadataConfig{
			Backend:   getEnv("METADATA_BACKEND", "redis"),
			Directory: getEnv("BADGER_DIRECTORY", "./data/metadata"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			PoolSize: getEnvInt("REDIS_POOL_SIZE", 10),
			Timeout:  time.Duration(getEnvInt("REDIS_TIMEOUT", 5)) * time.Second,
		},
		Storage: StorageConfig{
			Type: getEnv("STORAGE_TYPE", "fs"),
			Root: getEnv("STORAGE_ROOT", "./data/images"),
			S3: S3Config{
				Endpoint:  getEnv("S3_ENDPOINT", "https://s3.amazonaws.com"),
				AccessKey: getEnv("S3_ACCESS_KEY", ""),
				SecretKey: getEnv("S3_SECRET_KEY", ""),
				Bucket:    getEnv("S3_BUCKET", ""),
				Region:    getEnv("S3_REGION", "us-east-1"),
				UseSSL:    getEnvBool("S3_USE_SSL", true),
			},
		},
		Cache: CacheConfig{
			Directory: getEnv("RENDER_CACHE_DIRECTORY", "./data/renders"),
		},
		Image: ImageConfig{
			MaxWidth:    getEnvInt("IMAGE_MAX_WIDTH", 2000),
			JPEGQuality: getEnvInt("JPEG_QUALITY", 80),
			MaxFileSize: int64(getEnvInt("MAX_FILE_SIZE", 10485760)), // 10MB default
			Ratios:      getEnvStringSlice("RATIOS", []string{"1x1", "2x1", "3x1", "3x4", "4x3", "16x9"}),
			Placeholder: PlaceholderConfig{
				Enabled:  getEnvBool("PLACEHOLDER_ENABLED", false),
				FontPath: getEnv("PLACEHOLDER_FONT", ""),
			},
		},
		RateLimit: RateLimitConfig{
			Crop: getEnvInt("RATE_LIMIT_CROP", 300),
			API:  getEnvInt("RATE_LIMIT_API", 60),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		CORS: CORSConfig{
			Enabled:          getEnvBool("CORS_ENABLED", true),
			AllowAllOrigins:  getEnvBool("CORS_ALLOW_ALL_ORIGINS", false),
			AllowedOrigins:   getEnvStringSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowCredentials: getEnvBool("CORS_ALLOW_CREDENTIALS", false),
		},
		Auth: AuthConfig{
			Enabled:       getEnvBool("AUTH_ENABLED", false),
			ReadWriteKeys: getEnvStringSlice("AUTH_READWRITE_KEYS", []string{}),
			ReadOnlyKeys:  getEnvStringSlice("AUTH_READONLY_KEYS", []string{}),
			KeyHeader:     getEnv("AUTH_KEY_HEADER", "X-API-Key"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	validBackends := []string{"redis", "badger"}
	if !contains(validBackends, c.Metadata.Backend) {
		return fmt.Errorf("METADATA_BACKEND must be one of: %s", strings.Join(validBackends, ", "))
	}
	if c.Metadata.Backend == "redis" && c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required when METADATA_BACKEND=redis")
	}
	if c.Metadata.Backend == "badger" && c.Metadata.Directory == "" {
		return fmt.Errorf("BADGER_DIRECTORY is required when METADATA_BACKEND=badger")
	}

	validStorageTypes := []string{"fs", "s3"}
	if !contains(validStorageTypes, c.Storage.Type) {
		return fmt.Errorf("STORAGE_TYPE must be one of: %s", strings.Join(validStorageTypes, ", "))
	}
	if c.Storage.Type == "fs" && c.Storage.Root == "" {
		return fmt.Errorf("STORAGE_ROOT is required when STORAGE_TYPE=fs")
	}
	if c.Storage.Type == "s3" {
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when STORAGE_TYPE=s3")
		}
		if c.Storage.S3.AccessKey == "" {
			return fmt.Errorf("S3_ACCESS_KEY is required when STORAGE_TYPE=s3")
		}
		if c.Storage.S3.SecretKey == "" {
			return fmt.Errorf("S3_SECRET_KEY is required when STORAGE_TYPE=s3")
		}
	}

	if c.Cache.Directory == "" {
		return fmt.Errorf("RENDER_CACHE_DIRECTORY cannot be empty")
	}

	if c.Image.MaxWidth <= 0 {
		return fmt.Errorf("IMAGE_MAX_WIDTH must be a positive integer")
	}
	if c.Image.JPEGQuality < 1 || c.Image.JPEGQuality > 100 {
		return fmt.Errorf("JPEG_QUALITY must be between 1 and 100")
	}
	if c.Image.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be positive")
	}
	if len(c.Image.Ratios) == 0 {
		return fmt.Errorf("RATIOS cannot be empty")
	}

	if c.RateLimit.Crop <= 0 || c.RateLimit.API <= 0 {
		return fmt.Errorf("rate limits must be positive integers")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of: %s", strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "console"}
	if !contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("LOG_FORMAT must be one of: %s", strings.Join(validLogFormats, ", "))
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.GinMode == "debug" || c.Logger.Format == "console"
}

// IsAllowedRatio checks if a ratio token is in the selection allow-list
func (c *Config) IsAllowedRatio(token string) bool {
	return contains(c.Image.Ratios, token)
}

// Helper functions for environment variable parsing

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns environment variable as integer or default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool returns environment variable as boolean or default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvStringSlice returns environment variable as string slice or default
func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// contains checks if slice contains value
func contains(slice []string, value string) bool {
	for _, item := range slice {
		if item == value {
			return true
		}
	}
	return false
}
