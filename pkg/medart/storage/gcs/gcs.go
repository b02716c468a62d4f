// Package gcs issues upload grants against Google Cloud Storage using V4
// signed URLs.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/tendant/medical-artists/pkg/medart"
)

// Config holds the service account used to sign URLs
type Config struct {
	Bucket              string
	ServiceAccountEmail string
	// PrivateKey is the PEM encoded service account key. Literal "\n"
	// sequences, as found in env files, are converted to newlines.
	PrivateKey string
}

// Backend implements medart.Presigner, and with a client also
// medart.ObjectInspector and medart.Pinger
type Backend struct {
	bucket     string
	accessID   string
	privateKey []byte
	client     *storage.Client
	now        func() time.Time
}

var (
	_ medart.Presigner       = (*Backend)(nil)
	_ medart.ObjectInspector = (*Backend)(nil)
	_ medart.Pinger          = (*Backend)(nil)
)

// New creates a signing-only backend. Use NewWithClient to enable
// HeadObject and Ping.
func New(cfg Config) (*Backend, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required: %w", medart.ErrStorageConfig)
	}
	if cfg.ServiceAccountEmail == "" || cfg.PrivateKey == "" {
		return nil, fmt.Errorf("service account email and private key are required: %w", medart.ErrStorageConfig)
	}
	return &Backend{
		bucket:     cfg.Bucket,
		accessID:   cfg.ServiceAccountEmail,
		privateKey: []byte(strings.ReplaceAll(cfg.PrivateKey, `\n`, "\n")),
		now:        time.Now,
	}, nil
}

// NewWithClient creates a backend that can also read object metadata
func NewWithClient(cfg Config, client *storage.Client) (*Backend, error) {
	b, err := New(cfg)
	if err != nil {
		return nil, err
	}
	b.client = client
	return b, nil
}

// PresignPut returns a V4 signed PUT URL. No headers are signed besides host.
func (b *Backend) PresignPut(ctx context.Context, in medart.PresignPutInput) (string, error) {
	expires := in.Expires
	if expires <= 0 {
		expires = medart.DefaultGrantTTL
	}

	url, err := storage.SignedURL(b.bucket, in.Key, &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "PUT",
		Expires:        b.now().Add(expires),
		GoogleAccessID: b.accessID,
		PrivateKey:     b.privateKey,
	})
	if err != nil {
		// Signing is local; failures mean the key material is unusable.
		return "", fmt.Errorf("failed to sign upload URL: %w: %w", medart.ErrStorageConfig, err)
	}
	return url, nil
}

// HeadObject reads object attributes
func (b *Backend) HeadObject(ctx context.Context, key string) (*medart.ObjectInfo, error) {
	if b.client == nil {
		return nil, fmt.Errorf("gcs client not configured: %w", medart.ErrStorageConfig)
	}

	attrs, err := b.client.Bucket(b.bucket).Object(key).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, medart.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to get object attributes: %w", classifyError(err))
	}

	return &medart.ObjectInfo{
		Key:         key,
		Size:        attrs.Size,
		ContentType: attrs.ContentType,
		ETag:        attrs.Etag,
		UpdatedAt:   attrs.Updated.UTC(),
	}, nil
}

// Ping checks the bucket is reachable. A signing-only backend cannot check
// anything and reports a configuration error.
func (b *Backend) Ping(ctx context.Context) error {
	if b.client == nil {
		return fmt.Errorf("no GCS client for bucket %s: %w", b.bucket, medart.ErrStorageConfig)
	}
	if _, err := b.client.Bucket(b.bucket).Attrs(ctx); err != nil {
		return fmt.Errorf("bucket %s: %w", b.bucket, classifyError(err))
	}
	return nil
}

func classifyError(err error) error {
	switch {
	case errors.Is(err, storage.ErrBucketNotExist):
		return fmt.Errorf("%w: %w", medart.ErrStorageConfig, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", medart.ErrStorageUnavailable, err)
	default:
		return err
	}
}
