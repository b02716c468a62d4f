package medart

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Presigner produces pre-signed PUT URLs. Signing is local; no request is
// made to the provider.
type Presigner interface {
	PresignPut(ctx context.Context, in PresignPutInput) (string, error)
}

// ObjectInspector reads object metadata back from storage.
type ObjectInspector interface {
	// HeadObject returns ErrObjectNotFound when nothing is stored under key
	HeadObject(ctx context.Context, key string) (*ObjectInfo, error)
}

// Pinger verifies storage is reachable and correctly configured.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ImageRepository persists image metadata records
type ImageRepository interface {
	CreateImage(ctx context.Context, image *Image) error
	GetImage(ctx context.Context, id uuid.UUID) (*Image, error)
	UpdateImageStatus(ctx context.Context, id uuid.UUID, status ImageStatus) error
	// ListPendingBefore returns pending records created before cutoff, oldest first
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]*Image, error)
}

// URLBuilder turns an object key into a delivery URL. Implementations never
// fail; misconfiguration degrades to a less capable URL.
type URLBuilder interface {
	BuildURL(key string, spec TransformSpec) string
}

// KeyGenerator derives the storage key for a new upload.
type KeyGenerator interface {
	GenerateKey(ownerID string, imageID uuid.UUID, filename string) string
}

// Observer receives service-level measurements.
type Observer interface {
	RecordGrant(duration time.Duration, err error)
	RecordConfirm(status ImageStatus, err error)
}
