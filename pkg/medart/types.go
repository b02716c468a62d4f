package medart

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ImageStatus is the lifecycle state of an image metadata record.
type ImageStatus string

const (
	// ImageStatusPending is set when the upload grant is issued.
	ImageStatusPending ImageStatus = "pending"
	// ImageStatusUploaded is set once the object is confirmed in storage.
	ImageStatusUploaded ImageStatus = "uploaded"
	// ImageStatusRejected marks an uploaded object that violates size or type limits.
	ImageStatusRejected ImageStatus = "rejected"
	// ImageStatusExpired marks a grant that was never used.
	ImageStatusExpired ImageStatus = "expired"
)

const (
	// DefaultMaxFileSize is the largest upload a grant is issued for.
	DefaultMaxFileSize int64 = 10 * 1024 * 1024
	// DefaultGrantTTL is how long a pre-signed upload URL stays valid.
	DefaultGrantTTL = 300 * time.Second
	// DefaultPlaceholder is served in place of an empty object key.
	DefaultPlaceholder = "/images/placeholder.png"
)

// Image is the metadata record kept for every issued upload grant.
type Image struct {
	ID          uuid.UUID   `json:"id"`
	OwnerID     string      `json:"owner_id"`
	Key         string      `json:"key"`
	Filename    string      `json:"filename"`
	ContentType string      `json:"content_type"`
	Size        int64       `json:"size"`
	Width       *int        `json:"width,omitempty"`
	Height      *int        `json:"height,omitempty"`
	Status      ImageStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// UploadGrant is the ephemeral capability returned to the uploader. It is
// never persisted; storage enforces ExpiresAt through the URL signature.
type UploadGrant struct {
	ImageID   uuid.UUID `json:"id"`
	Key       string    `json:"key"`
	UploadURL string    `json:"uploadUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// TransformSpec describes the derivative requested from the image proxy.
// Zero values mean "not requested".
type TransformSpec struct {
	Width   int
	Height  int
	Quality int
	Format  string
}

// IsZero reports whether no transformation was requested.
func (t TransformSpec) IsZero() bool {
	return t == TransformSpec{}
}

// ObjectInfo is what storage reports about an uploaded object.
type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
	ETag        string
	UpdatedAt   time.Time
}

// PresignPutInput describes a single pre-signed PUT.
type PresignPutInput struct {
	Key         string
	ContentType string
	Expires     time.Duration
}

// IsImageContentType reports whether contentType is an image MIME type.
func IsImageContentType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/")
}
