package medart

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrMissingOwner indicates the caller identity was not supplied
	ErrMissingOwner = errors.New("owner id is required")

	// ErrMissingFilename indicates the upload request carried no filename
	ErrMissingFilename = errors.New("filename is required")

	// ErrInvalidContentType indicates a non-image MIME type
	ErrInvalidContentType = errors.New("content type must be an image")

	// ErrInvalidFileSize indicates a zero or negative file size
	ErrInvalidFileSize = errors.New("file size must be positive")

	// ErrPayloadTooLarge indicates the file exceeds the configured maximum
	ErrPayloadTooLarge = errors.New("file exceeds maximum upload size")

	// ErrImageNotFound indicates no metadata record matched
	ErrImageNotFound = errors.New("image not found")

	// ErrImageExists indicates a record with the same id is already stored
	ErrImageExists = errors.New("image already exists")

	// ErrObjectNotFound is returned by storage when the key holds no object
	ErrObjectNotFound = errors.New("object not found")

	// ErrObjectNotUploaded indicates a confirm call before the client finished uploading
	ErrObjectNotUploaded = errors.New("object has not been uploaded")

	// ErrStorageAuth indicates the storage provider rejected our credentials
	ErrStorageAuth = errors.New("storage authentication failed")

	// ErrStorageConfig indicates a missing bucket or incomplete storage configuration
	ErrStorageConfig = errors.New("storage configuration error")

	// ErrStorageUnavailable indicates a transient failure reaching the storage provider
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ErrorKind groups errors by who can fix them.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindTooLarge
	KindNotFound
	KindConflict
	KindAuth
	KindConfig
	KindUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindTooLarge:
		return "too_large"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindAuth:
		return "authentication"
	case KindConfig:
		return "configuration"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// KindOf classifies err. Unknown errors are KindInternal.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrMissingOwner),
		errors.Is(err, ErrMissingFilename),
		errors.Is(err, ErrInvalidContentType),
		errors.Is(err, ErrInvalidFileSize):
		return KindValidation
	case errors.Is(err, ErrPayloadTooLarge):
		return KindTooLarge
	case errors.Is(err, ErrImageNotFound), errors.Is(err, ErrObjectNotFound):
		return KindNotFound
	case errors.Is(err, ErrObjectNotUploaded), errors.Is(err, ErrImageExists):
		return KindConflict
	case errors.Is(err, ErrStorageAuth):
		return KindAuth
	case errors.Is(err, ErrStorageConfig):
		return KindConfig
	case errors.Is(err, ErrStorageUnavailable):
		return KindUnavailable
	default:
		return KindInternal
	}
}

// GrantError represents a failure while issuing or confirming an upload grant
type GrantError struct {
	Op  string
	Key string
	Err error
}

func (e *GrantError) Error() string {
	return fmt.Sprintf("grant operation %s failed for key %s: %v", e.Op, e.Key, e.Err)
}

func (e *GrantError) Unwrap() error {
	return e.Err
}
