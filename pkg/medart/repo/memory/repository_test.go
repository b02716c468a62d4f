package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/medical-artists/pkg/medart"
	repoMemory "github.com/tendant/medical-artists/pkg/medart/repo/memory"
)

func newImage(createdAt time.Time) *medart.Image {
	return &medart.Image{
		ID:          uuid.New(),
		OwnerID:     "u1",
		Key:         "users/u1/images/x/original.png",
		Filename:    "x.png",
		ContentType: "image/png",
		Size:        100,
		Status:      medart.ImageStatusPending,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

func TestRepository_CreateImage(t *testing.T) {
	repo := repoMemory.New()
	ctx := context.Background()

	image := newImage(time.Now())
	require.NoError(t, repo.CreateImage(ctx, image))

	// Same id again should fail
	err := repo.CreateImage(ctx, image)
	assert.ErrorIs(t, err, medart.ErrImageExists)
}

func TestRepository_GetImage(t *testing.T) {
	repo := repoMemory.New()
	ctx := context.Background()

	image := newImage(time.Now())
	require.NoError(t, repo.CreateImage(ctx, image))

	retrieved, err := repo.GetImage(ctx, image.ID)
	require.NoError(t, err)
	assert.Equal(t, image.Key, retrieved.Key)
	assert.Equal(t, medart.ImageStatusPending, retrieved.Status)

	// Mutating the returned copy must not change the stored record
	retrieved.Status = medart.ImageStatusRejected
	again, err := repo.GetImage(ctx, image.ID)
	require.NoError(t, err)
	assert.Equal(t, medart.ImageStatusPending, again.Status)

	_, err = repo.GetImage(ctx, uuid.New())
	assert.ErrorIs(t, err, medart.ErrImageNotFound)
}

func TestRepository_UpdateImageStatus(t *testing.T) {
	repo := repoMemory.New()
	ctx := context.Background()

	image := newImage(time.Now())
	require.NoError(t, repo.CreateImage(ctx, image))

	require.NoError(t, repo.UpdateImageStatus(ctx, image.ID, medart.ImageStatusUploaded))
	retrieved, err := repo.GetImage(ctx, image.ID)
	require.NoError(t, err)
	assert.Equal(t, medart.ImageStatusUploaded, retrieved.Status)

	err = repo.UpdateImageStatus(ctx, uuid.New(), medart.ImageStatusUploaded)
	assert.ErrorIs(t, err, medart.ErrImageNotFound)
}

func TestRepository_ListPendingBefore(t *testing.T) {
	repo := repoMemory.New()
	ctx := context.Background()
	now := time.Now()

	oldest := newImage(now.Add(-3 * time.Hour))
	older := newImage(now.Add(-2 * time.Hour))
	recent := newImage(now.Add(-1 * time.Minute))
	done := newImage(now.Add(-4 * time.Hour))
	done.Status = medart.ImageStatusUploaded

	for _, img := range []*medart.Image{recent, older, done, oldest} {
		require.NoError(t, repo.CreateImage(ctx, img))
	}

	pending, err := repo.ListPendingBefore(ctx, now.Add(-time.Hour), 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, oldest.ID, pending[0].ID)
	assert.Equal(t, older.ID, pending[1].ID)

	limited, err := repo.ListPendingBefore(ctx, now, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, oldest.ID, limited[0].ID)
}
