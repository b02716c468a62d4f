package config

import (
	"context"
	"fmt"
	"log/slog"

	gcsclient "cloud.google.com/go/storage"
	"github.com/go-chi/jwtauth"
	"github.com/jackc/pgx/v5/pgxpool"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/tendant/medical-artists/pkg/medart"
	"github.com/tendant/medical-artists/pkg/medart/delivery"
	"github.com/tendant/medical-artists/pkg/medart/metrics"
	repomemory "github.com/tendant/medical-artists/pkg/medart/repo/memory"
	repopg "github.com/tendant/medical-artists/pkg/medart/repo/postgres"
	gcsstorage "github.com/tendant/medical-artists/pkg/medart/storage/gcs"
	memorystorage "github.com/tendant/medical-artists/pkg/medart/storage/memory"
	s3storage "github.com/tendant/medical-artists/pkg/medart/storage/s3"
	"github.com/tendant/medical-artists/pkg/medart/sweeper"
)

// Runtime holds the components built from a ServerConfig
type Runtime struct {
	Service    medart.Service
	URLs       medart.URLBuilder
	Repository medart.ImageRepository
	Storage    medart.Pinger
	Sweeper    *sweeper.Sweeper
	Observer   *metrics.PrometheusObserver
	Auth       *jwtauth.JWTAuth

	closers []func()
}

// Close releases pools and clients
func (r *Runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// storageBackend is what every provider offers
type storageBackend interface {
	medart.Presigner
	medart.ObjectInspector
	medart.Pinger
}

// BuildService creates the service and its collaborators from the server
// configuration. Metrics are registered with reg.
func (c *ServerConfig) BuildService(ctx context.Context, reg promclient.Registerer, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rt := &Runtime{}

	observer, err := metrics.NewPrometheusObserver(metrics.DefaultNamespace, reg)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	rt.Observer = observer

	store, err := c.buildStorage(ctx, rt, logger)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to build storage: %w", err)
	}
	rt.Storage = store

	transformer := delivery.New(c.Proxy.Delivery(), delivery.WithObserver(observer), delivery.WithLogger(logger))
	urls, err := delivery.NewCached(transformer, c.DeliveryCacheSize)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to build delivery cache: %w", err)
	}
	rt.URLs = urls

	options := []medart.Option{
		medart.WithPresigner(store),
		medart.WithObjectInspector(store),
		medart.WithURLBuilder(urls),
		medart.WithObserver(observer),
		medart.WithLogger(logger),
		medart.WithMaxFileSize(c.MaxUploadBytes),
		medart.WithGrantTTL(c.GrantTTL),
		medart.WithMetadataRecording(c.RecordMetadata),
	}

	if c.RecordMetadata {
		repo, err := c.buildRepository(ctx, rt)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to build repository: %w", err)
		}
		rt.Repository = repo
		options = append(options, medart.WithRepository(repo))

		sw, err := sweeper.New(repo, store, sweeper.Config{
			Schedule:    c.SweepSchedule,
			Grace:       c.GrantTTL + sweeper.GraceMargin,
			MaxFileSize: c.MaxUploadBytes,
		}, sweeper.WithObserver(observer), sweeper.WithLogger(logger))
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to build sweeper: %w", err)
		}
		rt.Sweeper = sw
	}

	svc, err := medart.New(options...)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Service = svc
	rt.Auth = jwtauth.New("HS256", []byte(c.JWTSecret), nil)

	return rt, nil
}

func (c *ServerConfig) buildStorage(ctx context.Context, rt *Runtime, logger *slog.Logger) (storageBackend, error) {
	switch c.StorageProvider {
	case ProviderS3:
		return s3storage.New(s3storage.Config{
			Region:                 c.S3.Region,
			Bucket:                 c.S3.Bucket,
			AccessKeyID:            c.S3.AccessKeyID,
			SecretAccessKey:        c.S3.SecretAccessKey,
			Endpoint:               c.S3.Endpoint,
			UsePathStyle:           c.S3.UsePathStyle,
			CreateBucketIfNotExist: c.S3.CreateBucket,
		})
	case ProviderGCS:
		cfg := gcsstorage.Config{
			Bucket:              c.GCS.Bucket,
			ServiceAccountEmail: c.GCS.SigningEmail,
			PrivateKey:          c.GCS.PrivateKey,
		}
		client, err := gcsclient.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create GCS client: %w: %w", medart.ErrStorageConfig, err)
		}
		rt.closers = append(rt.closers, func() { client.Close() })
		return gcsstorage.NewWithClient(cfg, client)
	case ProviderMemory:
		logger.Warn("Using in-memory storage; upload URLs are not usable by clients")
		return memorystorage.New(), nil
	default:
		return nil, fmt.Errorf("unsupported storage provider %q: %w", c.StorageProvider, medart.ErrStorageConfig)
	}
}

func (c *ServerConfig) buildRepository(ctx context.Context, rt *Runtime) (medart.ImageRepository, error) {
	switch c.DatabaseType() {
	case "memory":
		return repomemory.New(), nil
	case "postgres":
		if c.AutoMigrate {
			if err := repopg.Migrate(ctx, c.DatabaseURL); err != nil {
				return nil, err
			}
		}
		pool, err := pgxpool.New(ctx, c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		rt.closers = append(rt.closers, pool.Close)
		return repopg.NewWithPool(pool), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType())
	}
}
