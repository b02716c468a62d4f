package medart

import (
	"strings"
	"time"
)

// NoopObserver discards all measurements
type NoopObserver struct{}

// NewNoopObserver creates a new no-operation observer
func NewNoopObserver() Observer {
	return NoopObserver{}
}

// RecordGrant does nothing
func (NoopObserver) RecordGrant(time.Duration, error) {}

// RecordConfirm does nothing
func (NoopObserver) RecordConfirm(ImageStatus, error) {}

// keyURLBuilder serves keys as root-relative paths. Used when no delivery
// transformer is configured.
type keyURLBuilder struct{}

func (keyURLBuilder) BuildURL(key string, _ TransformSpec) string {
	key = strings.TrimPrefix(strings.TrimSpace(key), "/")
	if key == "" {
		return DefaultPlaceholder
	}
	return "/" + key
}
