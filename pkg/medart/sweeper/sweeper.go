// Package sweeper resolves pending image records whose upload window has
// passed. Each record is checked against storage and marked uploaded,
// rejected or expired.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/tendant/medical-artists/pkg/medart"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultSchedule    = "@every 5m"
	DefaultBatchSize   = 100
	DefaultConcurrency = 4
	// GraceMargin is added to the grant TTL before a pending record is swept.
	GraceMargin  = 10 * time.Minute
	DefaultGrace = medart.DefaultGrantTTL + GraceMargin

	OutcomeError = "error"
)

// Observer receives one call per processed record
type Observer interface {
	RecordSwept(outcome string)
}

type noopObserver struct{}

func (noopObserver) RecordSwept(string) {}

// Config controls sweep frequency and batch shape
type Config struct {
	Schedule    string
	Grace       time.Duration
	BatchSize   int
	Concurrency int
	MaxFileSize int64
	RunTimeout  time.Duration
}

// Result summarizes one sweep
type Result struct {
	Uploaded int `json:"uploaded"`
	Rejected int `json:"rejected"`
	Expired  int `json:"expired"`
	Failed   int `json:"failed"`
}

// Total returns the number of records examined
func (r Result) Total() int {
	return r.Uploaded + r.Rejected + r.Expired + r.Failed
}

// Sweeper periodically resolves stale pending records
type Sweeper struct {
	repo      medart.ImageRepository
	inspector medart.ObjectInspector
	observer  Observer
	logger    *slog.Logger
	cfg       Config
	now       func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

// Option configures a Sweeper
type Option func(*Sweeper)

// WithObserver sets the metrics observer
func WithObserver(o Observer) Option {
	return func(s *Sweeper) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Sweeper) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) {
		s.now = now
	}
}

// New creates a Sweeper. Zero config fields take their defaults.
func New(repo medart.ImageRepository, inspector medart.ObjectInspector, cfg Config, opts ...Option) (*Sweeper, error) {
	if repo == nil {
		return nil, errors.New("sweeper: repository is required")
	}
	if inspector == nil {
		return nil, errors.New("sweeper: object inspector is required")
	}

	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if cfg.Grace <= 0 {
		cfg.Grace = DefaultGrace
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = medart.DefaultMaxFileSize
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = time.Minute
	}

	s := &Sweeper{
		repo:      repo,
		inspector: inspector,
		observer:  noopObserver{},
		logger:    slog.Default(),
		cfg:       cfg,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RunOnce processes a single batch of stale pending records. Per-record
// storage failures are counted and logged; the record stays pending for the
// next run.
func (s *Sweeper) RunOnce(ctx context.Context) (Result, error) {
	cutoff := s.now().Add(-s.cfg.Grace)
	images, err := s.repo.ListPendingBefore(ctx, cutoff, s.cfg.BatchSize)
	if err != nil {
		return Result{}, fmt.Errorf("list pending images: %w", err)
	}

	var (
		mu     sync.Mutex
		result Result
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for _, image := range images {
		g.Go(func() error {
			outcome := s.resolve(gctx, image)
			s.observer.RecordSwept(outcome)

			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case string(medart.ImageStatusUploaded):
				result.Uploaded++
			case string(medart.ImageStatusRejected):
				result.Rejected++
			case string(medart.ImageStatusExpired):
				result.Expired++
			default:
				result.Failed++
			}
			return nil
		})
	}
	_ = g.Wait()

	if result.Total() > 0 {
		s.logger.InfoContext(ctx, "Sweep completed",
			"uploaded", result.Uploaded, "rejected", result.Rejected,
			"expired", result.Expired, "failed", result.Failed)
	}
	return result, ctx.Err()
}

func (s *Sweeper) resolve(ctx context.Context, image *medart.Image) string {
	var status medart.ImageStatus

	info, err := s.inspector.HeadObject(ctx, image.Key)
	switch {
	case errors.Is(err, medart.ErrObjectNotFound):
		status = medart.ImageStatusExpired
	case err != nil:
		s.logger.WarnContext(ctx, "Failed to inspect pending object", "image_id", image.ID, "key", image.Key, "error", err)
		return OutcomeError
	default:
		status = medart.ClassifyUpload(image, info, s.cfg.MaxFileSize)
	}

	if err := s.repo.UpdateImageStatus(ctx, image.ID, status); err != nil {
		s.logger.WarnContext(ctx, "Failed to update image status", "image_id", image.ID, "status", status, "error", err)
		return OutcomeError
	}
	return string(status)
}

// Start schedules RunOnce on the configured cron schedule
func (s *Sweeper) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return errors.New("sweeper: already started")
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	if _, err := c.AddFunc(s.cfg.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RunTimeout)
		defer cancel()
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error("Sweep failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("sweeper: invalid schedule %q: %w", s.cfg.Schedule, err)
	}

	c.Start()
	s.cron = c
	s.logger.Info("Sweeper started", "schedule", s.cfg.Schedule, "grace", s.cfg.Grace)
	return nil
}

// Stop halts scheduling and waits for a running sweep or ctx, whichever ends first
func (s *Sweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c == nil {
		return nil
	}
	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
