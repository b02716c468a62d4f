package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tendant/medical-artists/pkg/medart"
	"github.com/tendant/medical-artists/pkg/medart/delivery"
	"github.com/tendant/medical-artists/pkg/medart/sweeper"
)

// Storage providers
const (
	ProviderS3     = "s3"
	ProviderGCS    = "gcs"
	ProviderMemory = "memory"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Environment:       "development",
		StorageProvider:   ProviderS3,
		S3:                S3Config{Region: "us-east-1"},
		Proxy:             ProxyConfig{Placeholder: delivery.DefaultPlaceholder},
		MaxUploadBytes:    medart.DefaultMaxFileSize,
		GrantTTL:          medart.DefaultGrantTTL,
		RecordMetadata:    true,
		AutoMigrate:       true,
		SweepSchedule:     sweeper.DefaultSchedule,
		DeliveryCacheSize: 4096,
	}
}

// ServerConfig represents configuration for the image upload and delivery server
type ServerConfig struct {
	Environment string `env:"ENVIRONMENT" env-default:"development"`

	// Empty or "memory" selects the in-memory repository
	DatabaseURL string `env:"DATABASE_URL"`
	AutoMigrate bool   `env:"DB_AUTO_MIGRATE" env-default:"true"`

	StorageProvider string `env:"STORAGE_PROVIDER" env-default:"s3"`
	S3              S3Config
	GCS             GCSConfig
	Proxy           ProxyConfig

	JWTSecret         string        `env:"JWT_SECRET"`
	AdminAPIKeySHA256 string        `env:"ADMIN_API_KEY_SHA256"`
	MaxUploadBytes    int64         `env:"MAX_UPLOAD_BYTES" env-default:"10485760"`
	GrantTTL          time.Duration `env:"GRANT_TTL" env-default:"300s"`
	RecordMetadata    bool          `env:"RECORD_METADATA" env-default:"true"`
	SweepSchedule     string        `env:"SWEEP_SCHEDULE" env-default:"@every 5m"`
	DeliveryCacheSize int           `env:"DELIVERY_CACHE_SIZE" env-default:"4096"`
}

// S3Config holds S3-compatible storage settings
type S3Config struct {
	Endpoint        string `env:"S3_ENDPOINT"`
	AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	Bucket          string `env:"S3_BUCKET"`
	Region          string `env:"S3_REGION" env-default:"us-east-1"`
	UsePathStyle    bool   `env:"S3_USE_PATH_STYLE" env-default:"false"`
	CreateBucket    bool   `env:"S3_CREATE_BUCKET" env-default:"false"`
}

// GCSConfig holds Google Cloud Storage signing settings
type GCSConfig struct {
	Bucket       string `env:"GCS_BUCKET"`
	SigningEmail string `env:"GCS_SIGNING_EMAIL"`
	PrivateKey   string `env:"GCS_SIGNING_PRIVATE_KEY"`
}

// ProxyConfig holds image proxy settings. Any missing value selects
// unsigned delivery.
type ProxyConfig struct {
	URL            string `env:"IMGPROXY_URL"`
	Key            string `env:"IMGPROXY_KEY"`
	Salt           string `env:"IMGPROXY_SALT"`
	PublicEndpoint string `env:"STORAGE_PUBLIC_ENDPOINT"`
	Placeholder    string `env:"PLACEHOLDER_IMAGE" env-default:"/images/placeholder.png"`
}

// Delivery converts the proxy settings for delivery.New
func (p ProxyConfig) Delivery() delivery.Config {
	return delivery.Config{
		ProxyURL:       p.URL,
		Key:            p.Key,
		Salt:           p.Salt,
		PublicEndpoint: p.PublicEndpoint,
		Placeholder:    p.Placeholder,
	}
}

// DatabaseType returns "memory" or "postgres"
func (c *ServerConfig) DatabaseType() string {
	if c.DatabaseURL == "" || c.DatabaseURL == "memory" {
		return "memory"
	}
	return "postgres"
}

// IsProduction reports whether the server runs in production mode
func (c *ServerConfig) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Validate validates the server configuration. Storage problems are
// reported as medart.ErrStorageConfig so startup fails closed.
func (c *ServerConfig) Validate() error {
	if c.DatabaseType() == "postgres" &&
		!strings.HasPrefix(c.DatabaseURL, "postgres://") && !strings.HasPrefix(c.DatabaseURL, "postgresql://") {
		return fmt.Errorf("unsupported DATABASE_URL format (use 'memory' or 'postgresql://...')")
	}

	switch c.StorageProvider {
	case ProviderS3:
		var missing []string
		if c.S3.Bucket == "" {
			missing = append(missing, "S3_BUCKET")
		}
		if c.S3.AccessKeyID == "" {
			missing = append(missing, "S3_ACCESS_KEY_ID")
		}
		if c.S3.SecretAccessKey == "" {
			missing = append(missing, "S3_SECRET_ACCESS_KEY")
		}
		if len(missing) > 0 {
			return fmt.Errorf("missing %s: %w", strings.Join(missing, ", "), medart.ErrStorageConfig)
		}
	case ProviderGCS:
		if c.GCS.Bucket == "" || c.GCS.SigningEmail == "" || c.GCS.PrivateKey == "" {
			return fmt.Errorf("GCS_BUCKET, GCS_SIGNING_EMAIL and GCS_SIGNING_PRIVATE_KEY are required: %w", medart.ErrStorageConfig)
		}
	case ProviderMemory:
		if c.IsProduction() {
			return fmt.Errorf("memory storage is not allowed in production: %w", medart.ErrStorageConfig)
		}
	default:
		return fmt.Errorf("storage provider must be one of s3, gcs, memory, got %q: %w", c.StorageProvider, medart.ErrStorageConfig)
	}

	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	if c.GrantTTL <= 0 || c.GrantTTL > 7*24*time.Hour {
		return fmt.Errorf("GRANT_TTL must be between 1s and 7 days, got %s", c.GrantTTL)
	}
	return nil
}
