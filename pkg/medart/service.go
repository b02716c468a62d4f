package medart

import (
	"context"

	"github.com/google/uuid"
)

// CreateUploadGrantRequest is the input to Service.CreateUploadGrant
type CreateUploadGrantRequest struct {
	OwnerID     string
	Filename    string
	ContentType string
	FileSize    int64
	Width       *int
	Height      *int
}

// Service defines the main interface for image upload and delivery
type Service interface {
	// CreateUploadGrant validates the request, pre-signs a PUT for a fresh
	// key and records pending metadata for it.
	CreateUploadGrant(ctx context.Context, req CreateUploadGrantRequest) (*UploadGrant, error)

	// ConfirmUpload checks storage for the object behind a pending record
	// and moves the record to uploaded or rejected.
	ConfirmUpload(ctx context.Context, ownerID string, id uuid.UUID) (*Image, error)

	// GetImage returns the record if it belongs to ownerID.
	GetImage(ctx context.Context, ownerID string, id uuid.UUID) (*Image, error)

	// DeliveryURL builds the URL used to display key. It never fails.
	DeliveryURL(key string, spec TransformSpec) string
}
