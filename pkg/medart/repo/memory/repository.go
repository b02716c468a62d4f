package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/medical-artists/pkg/medart"
)

// Repository is an in-memory implementation of medart.ImageRepository
type Repository struct {
	mu     sync.RWMutex
	images map[uuid.UUID]*medart.Image
	now    func() time.Time
}

// New creates a new in-memory image repository
func New() *Repository {
	return &Repository{
		images: make(map[uuid.UUID]*medart.Image),
		now:    time.Now,
	}
}

// CreateImage stores a copy of image
func (r *Repository) CreateImage(ctx context.Context, image *medart.Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.images[image.ID]; exists {
		return medart.ErrImageExists
	}

	stored := *image
	r.images[image.ID] = &stored
	return nil
}

// GetImage retrieves an image by ID
func (r *Repository) GetImage(ctx context.Context, id uuid.UUID) (*medart.Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	image, exists := r.images[id]
	if !exists {
		return nil, medart.ErrImageNotFound
	}

	out := *image
	return &out, nil
}

// UpdateImageStatus changes the status of an existing image
func (r *Repository) UpdateImageStatus(ctx context.Context, id uuid.UUID, status medart.ImageStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	image, exists := r.images[id]
	if !exists {
		return medart.ErrImageNotFound
	}

	image.Status = status
	image.UpdatedAt = r.now().UTC()
	return nil
}

// ListPendingBefore returns pending images created before cutoff, oldest first
func (r *Repository) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]*medart.Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*medart.Image
	for _, image := range r.images {
		if image.Status == medart.ImageStatusPending && image.CreatedAt.Before(cutoff) {
			out := *image
			result = append(result, &out)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
