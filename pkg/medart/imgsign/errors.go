package imgsign

import "errors"

// Signing errors
var (
	// ErrNoKey is returned when signing without a configured key
	ErrNoKey = errors.New("imgsign: no key configured")

	// ErrNoSalt is returned when signing without a configured salt
	ErrNoSalt = errors.New("imgsign: no salt configured")

	// ErrInvalidHexKey is returned when the key is not valid hex
	ErrInvalidHexKey = errors.New("imgsign: key is not valid hex")

	// ErrInvalidHexSalt is returned when the salt is not valid hex
	ErrInvalidHexSalt = errors.New("imgsign: salt is not valid hex")

	// ErrInvalidSignature is returned when a signature does not match its path
	ErrInvalidSignature = errors.New("imgsign: invalid signature")
)
