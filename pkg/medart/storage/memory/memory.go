// Package memory provides an in-memory object store that can hand out fake
// pre-signed URLs. It is used in tests and in the "memory" storage provider.
package memory

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/tendant/medical-artists/pkg/medart"
)

// Backend is an in-memory implementation of medart.Presigner,
// medart.ObjectInspector and medart.Pinger
type Backend struct {
	mu       sync.RWMutex
	baseURL  string
	objects  map[string]*medart.ObjectInfo
	presigns []medart.PresignPutInput
	heads    int

	presignErr error
	headErr    error
	pingErr    error
}

// Option configures a Backend
type Option func(*Backend)

// WithBaseURL sets the host used for fake upload URLs
func WithBaseURL(base string) Option {
	return func(b *Backend) {
		b.baseURL = base
	}
}

// WithPresignError makes every PresignPut call fail with err
func WithPresignError(err error) Option {
	return func(b *Backend) {
		b.presignErr = err
	}
}

// WithHeadError makes every HeadObject call fail with err
func WithHeadError(err error) Option {
	return func(b *Backend) {
		b.headErr = err
	}
}

// WithPingError makes Ping fail with err
func WithPingError(err error) Option {
	return func(b *Backend) {
		b.pingErr = err
	}
}

// New creates a new in-memory backend
func New(opts ...Option) *Backend {
	b := &Backend{
		baseURL: "http://memory.local/upload",
		objects: make(map[string]*medart.ObjectInfo),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// PresignPut returns a fake upload URL and records the request
func (b *Backend) PresignPut(ctx context.Context, in medart.PresignPutInput) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.presigns = append(b.presigns, in)
	if b.presignErr != nil {
		return "", b.presignErr
	}

	q := url.Values{}
	q.Set("expires", fmt.Sprintf("%d", int(in.Expires/time.Second)))
	return fmt.Sprintf("%s/%s?%s", b.baseURL, in.Key, q.Encode()), nil
}

// HeadObject returns metadata for a stored object
func (b *Backend) HeadObject(ctx context.Context, key string) (*medart.ObjectInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.heads++
	if b.headErr != nil {
		return nil, b.headErr
	}
	info, ok := b.objects[key]
	if !ok {
		return nil, medart.ErrObjectNotFound
	}
	out := *info
	return &out, nil
}

// Ping reports the configured ping error, if any
func (b *Backend) Ping(ctx context.Context) error {
	return b.pingErr
}

// Put simulates a client completing an upload
func (b *Backend) Put(key, contentType string, size int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[key] = &medart.ObjectInfo{
		Key:         key,
		Size:        size,
		ContentType: contentType,
		ETag:        fmt.Sprintf("%x", size),
		UpdatedAt:   time.Now().UTC(),
	}
}

// Presigns returns a copy of every PresignPut request seen so far
func (b *Backend) Presigns() []medart.PresignPutInput {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]medart.PresignPutInput, len(b.presigns))
	copy(out, b.presigns)
	return out
}

// HeadCalls returns the number of HeadObject calls
func (b *Backend) HeadCalls() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.heads
}
