package medart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/medical-artists/pkg/medart/objectkey"
)

// service implements the Service interface
type service struct {
	repository     ImageRepository
	presigner      Presigner
	inspector      ObjectInspector
	urls           URLBuilder
	keys           KeyGenerator
	observer       Observer
	logger         *slog.Logger
	maxFileSize    int64
	grantTTL       time.Duration
	recordMetadata bool
	now            func() time.Time
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the metadata repository
func WithRepository(repo ImageRepository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithPresigner sets the storage presigner used for upload grants
func WithPresigner(p Presigner) Option {
	return func(s *service) {
		s.presigner = p
	}
}

// WithObjectInspector sets the storage inspector used by ConfirmUpload
func WithObjectInspector(i ObjectInspector) Option {
	return func(s *service) {
		s.inspector = i
	}
}

// WithURLBuilder sets the delivery URL builder
func WithURLBuilder(b URLBuilder) Option {
	return func(s *service) {
		s.urls = b
	}
}

// WithKeyGenerator overrides the object key layout
func WithKeyGenerator(g KeyGenerator) Option {
	return func(s *service) {
		s.keys = g
	}
}

// WithObserver sets the metrics observer
func WithObserver(o Observer) Option {
	return func(s *service) {
		s.observer = o
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *service) {
		s.logger = l
	}
}

// WithMaxFileSize sets the upload size ceiling in bytes
func WithMaxFileSize(n int64) Option {
	return func(s *service) {
		s.maxFileSize = n
	}
}

// WithGrantTTL sets the validity window of pre-signed upload URLs
func WithGrantTTL(d time.Duration) Option {
	return func(s *service) {
		s.grantTTL = d
	}
}

// WithMetadataRecording toggles the pending record written per grant.
// Disabling it gives the bare direct-to-storage behaviour.
func WithMetadataRecording(enabled bool) Option {
	return func(s *service) {
		s.recordMetadata = enabled
	}
}

// WithClock overrides time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		urls:           keyURLBuilder{},
		keys:           objectkey.NewOriginalGenerator(),
		observer:       NoopObserver{},
		maxFileSize:    DefaultMaxFileSize,
		grantTTL:       DefaultGrantTTL,
		recordMetadata: true,
		now:            time.Now,
	}

	for _, option := range options {
		option(s)
	}

	if s.presigner == nil {
		return nil, fmt.Errorf("presigner is required: %w", ErrStorageConfig)
	}
	if s.recordMetadata && s.repository == nil {
		return nil, fmt.Errorf("repository is required when metadata recording is enabled")
	}
	if s.maxFileSize <= 0 {
		return nil, fmt.Errorf("max file size must be positive, got %d", s.maxFileSize)
	}
	if s.grantTTL <= 0 {
		return nil, fmt.Errorf("grant ttl must be positive, got %s", s.grantTTL)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}

func (s *service) validateGrantRequest(req CreateUploadGrantRequest) error {
	if strings.TrimSpace(req.OwnerID) == "" {
		return ErrMissingOwner
	}
	if strings.TrimSpace(req.Filename) == "" {
		return ErrMissingFilename
	}
	if !IsImageContentType(req.ContentType) {
		return ErrInvalidContentType
	}
	if req.FileSize <= 0 {
		return ErrInvalidFileSize
	}
	if req.FileSize > s.maxFileSize {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrPayloadTooLarge, req.FileSize, s.maxFileSize)
	}
	return nil
}

func (s *service) CreateUploadGrant(ctx context.Context, req CreateUploadGrantRequest) (*UploadGrant, error) {
	start := s.now()
	grant, err := s.createUploadGrant(ctx, req)
	s.observer.RecordGrant(s.now().Sub(start), err)
	return grant, err
}

func (s *service) createUploadGrant(ctx context.Context, req CreateUploadGrantRequest) (*UploadGrant, error) {
	if err := s.validateGrantRequest(req); err != nil {
		return nil, err
	}

	imageID := uuid.New()
	key := s.keys.GenerateKey(req.OwnerID, imageID, req.Filename)

	uploadURL, err := s.presigner.PresignPut(ctx, PresignPutInput{
		Key:         key,
		ContentType: req.ContentType,
		Expires:     s.grantTTL,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to presign upload",
			"key", key, "owner_id", req.OwnerID, "kind", KindOf(err).String(), "error", err)
		return nil, &GrantError{Op: "presign", Key: key, Err: err}
	}

	now := s.now().UTC()
	if s.recordMetadata {
		image := &Image{
			ID:          imageID,
			OwnerID:     req.OwnerID,
			Key:         key,
			Filename:    req.Filename,
			ContentType: req.ContentType,
			Size:        req.FileSize,
			Width:       req.Width,
			Height:      req.Height,
			Status:      ImageStatusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repository.CreateImage(ctx, image); err != nil {
			s.logger.ErrorContext(ctx, "Failed to record image metadata", "image_id", imageID, "key", key, "error", err)
			return nil, &GrantError{Op: "record", Key: key, Err: err}
		}
	}

	s.logger.InfoContext(ctx, "Upload grant issued", "image_id", imageID, "key", key, "owner_id", req.OwnerID)

	return &UploadGrant{
		ImageID:   imageID,
		Key:       key,
		UploadURL: uploadURL,
		ExpiresAt: now.Add(s.grantTTL),
	}, nil
}

func (s *service) GetImage(ctx context.Context, ownerID string, id uuid.UUID) (*Image, error) {
	if s.repository == nil {
		return nil, ErrImageNotFound
	}
	image, err := s.repository.GetImage(ctx, id)
	if err != nil {
		return nil, err
	}
	// Other owners' images are reported as missing rather than forbidden.
	if image.OwnerID != ownerID {
		return nil, ErrImageNotFound
	}
	return image, nil
}

func (s *service) ConfirmUpload(ctx context.Context, ownerID string, id uuid.UUID) (*Image, error) {
	image, err := s.confirmUpload(ctx, ownerID, id)
	status := ImageStatus("")
	if image != nil {
		status = image.Status
	}
	s.observer.RecordConfirm(status, err)
	return image, err
}

func (s *service) confirmUpload(ctx context.Context, ownerID string, id uuid.UUID) (*Image, error) {
	image, err := s.GetImage(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if image.Status != ImageStatusPending {
		return image, nil
	}
	if s.inspector == nil {
		return nil, fmt.Errorf("object inspection not configured: %w", ErrStorageConfig)
	}

	info, err := s.inspector.HeadObject(ctx, image.Key)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, ErrObjectNotUploaded
		}
		s.logger.ErrorContext(ctx, "Failed to inspect uploaded object", "image_id", id, "key", image.Key, "error", err)
		return nil, &GrantError{Op: "confirm", Key: image.Key, Err: err}
	}

	status := ClassifyUpload(image, info, s.maxFileSize)
	if err := s.repository.UpdateImageStatus(ctx, id, status); err != nil {
		return nil, &GrantError{Op: "confirm", Key: image.Key, Err: err}
	}
	image.Status = status
	image.UpdatedAt = s.now().UTC()

	s.logger.InfoContext(ctx, "Upload confirmed", "image_id", id, "status", status, "size", info.Size)
	return image, nil
}

// ClassifyUpload decides the status of an object found in storage. The
// content type is not part of the upload signature, so it is checked here.
func ClassifyUpload(image *Image, info *ObjectInfo, maxFileSize int64) ImageStatus {
	if info.Size <= 0 || info.Size > maxFileSize {
		return ImageStatusRejected
	}
	contentType := info.ContentType
	if contentType == "" {
		contentType = image.ContentType
	}
	if !IsImageContentType(contentType) {
		return ImageStatusRejected
	}
	return ImageStatusUploaded
}

func (s *service) DeliveryURL(key string, spec TransformSpec) string {
	return s.urls.BuildURL(key, spec)
}
