package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// WithEnv applies environment variable overrides.
//
// Storage:
//
//	STORAGE_PROVIDER - s3 (default), gcs or memory
//	S3_ENDPOINT, S3_ACCESS_KEY_ID, S3_SECRET_ACCESS_KEY, S3_BUCKET, S3_REGION, S3_USE_PATH_STYLE
//	GCS_BUCKET, GCS_SIGNING_EMAIL, GCS_SIGNING_PRIVATE_KEY
//
// Delivery:
//
//	IMGPROXY_URL, IMGPROXY_KEY, IMGPROXY_SALT (hex), STORAGE_PUBLIC_ENDPOINT, PLACEHOLDER_IMAGE
//
// Database:
//
//	DATABASE_URL - "memory" or "postgresql://..."
func WithEnv() Option {
	return func(c *ServerConfig) error {
		if err := cleanenv.ReadEnv(c); err != nil {
			return fmt.Errorf("read environment: %w", err)
		}
		return nil
	}
}

// LoadProxy reads only the image proxy settings from the environment. Tools
// that build delivery URLs use it without needing storage credentials.
func LoadProxy() (ProxyConfig, error) {
	var p ProxyConfig
	if err := cleanenv.ReadEnv(&p); err != nil {
		return ProxyConfig{}, fmt.Errorf("read environment: %w", err)
	}
	return p, nil
}

// WithStorageProvider selects the storage provider
func WithStorageProvider(provider string) Option {
	return func(c *ServerConfig) error {
		c.StorageProvider = provider
		return nil
	}
}

// WithS3 sets the S3 settings
func WithS3(s3 S3Config) Option {
	return func(c *ServerConfig) error {
		c.StorageProvider = ProviderS3
		c.S3 = s3
		return nil
	}
}

// WithProxy sets the image proxy settings
func WithProxy(p ProxyConfig) Option {
	return func(c *ServerConfig) error {
		c.Proxy = p
		return nil
	}
}

// WithJWTSecret sets the HS256 secret used to verify bearer tokens
func WithJWTSecret(secret string) Option {
	return func(c *ServerConfig) error {
		c.JWTSecret = secret
		return nil
	}
}

// WithDatabaseURL sets the database URL
func WithDatabaseURL(url string) Option {
	return func(c *ServerConfig) error {
		c.DatabaseURL = url
		return nil
	}
}

// LoadS3 reads only the S3 settings from the environment
func LoadS3() (S3Config, error) {
	var s S3Config
	if err := cleanenv.ReadEnv(&s); err != nil {
		return S3Config{}, fmt.Errorf("read environment: %w", err)
	}
	return s, nil
}
