package imgsign

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// Sign computes the image proxy signature of path.
//
// The digest is HMAC-SHA256 keyed by key over salt followed by path, encoded
// as unpadded base64url. The proxy recomputes it the same way, so the order
// and encoding are fixed.
func Sign(key, salt []byte, path string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write(salt)
	mac.Write([]byte(path))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Signer holds proxy signing material
type Signer struct {
	key  []byte
	salt []byte
	err  error
}

// New creates a new Signer with the given options. Decoding problems in the
// options are reported by Err.
func New(opts ...Option) *Signer {
	s := &Signer{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Err returns the first error raised while applying options
func (s *Signer) Err() error {
	return s.err
}

// IsEnabled returns true when both key and salt are usable
func (s *Signer) IsEnabled() bool {
	return s.err == nil && len(s.key) > 0 && len(s.salt) > 0
}

// SignPath signs a canonical path such as "/rs:fit:400:300/plain/...".
func (s *Signer) SignPath(path string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if len(s.key) == 0 {
		return "", ErrNoKey
	}
	if len(s.salt) == 0 {
		return "", ErrNoSalt
	}
	return Sign(s.key, s.salt, path), nil
}

// Verify checks signature against path using constant-time comparison
func (s *Signer) Verify(path, signature string) error {
	expected, err := s.SignPath(path)
	if err != nil {
		return err
	}
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}
