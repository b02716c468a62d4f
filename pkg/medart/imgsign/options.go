package imgsign

import (
	"encoding/hex"
	"fmt"
)

// Option is a functional option for configuring a Signer
type Option func(*Signer)

// WithKey sets the raw HMAC key
func WithKey(key []byte) Option {
	return func(s *Signer) {
		s.key = key
	}
}

// WithSalt sets the raw salt prepended to every signed path
func WithSalt(salt []byte) Option {
	return func(s *Signer) {
		s.salt = salt
	}
}

// WithHexKey sets the HMAC key from its hex form, as the proxy is configured
func WithHexKey(key string) Option {
	return func(s *Signer) {
		decoded, err := hex.DecodeString(key)
		if err != nil {
			s.setErr(fmt.Errorf("%w: %v", ErrInvalidHexKey, err))
			return
		}
		s.key = decoded
	}
}

// WithHexSalt sets the salt from its hex form
func WithHexSalt(salt string) Option {
	return func(s *Signer) {
		decoded, err := hex.DecodeString(salt)
		if err != nil {
			s.setErr(fmt.Errorf("%w: %v", ErrInvalidHexSalt, err))
			return
		}
		s.salt = decoded
	}
}

func (s *Signer) setErr(err error) {
	if s.err == nil {
		s.err = err
	}
}
