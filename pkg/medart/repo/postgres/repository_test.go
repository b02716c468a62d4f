package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/medical-artists/pkg/medart"
)

func TestHandlePostgresError(t *testing.T) {
	r := &Repository{}

	err := r.handlePostgresError("create image", &pgconn.PgError{Code: "23505", ConstraintName: "images_pkey"})
	assert.ErrorIs(t, err, medart.ErrImageExists)

	err = r.handlePostgresError("get image", &pgconn.PgError{Code: "42P01"})
	assert.Contains(t, err.Error(), "migration required")

	err = r.handlePostgresError("create image", &pgconn.PgError{Code: "23502", ColumnName: "owner_id"})
	assert.Contains(t, err.Error(), "owner_id")
}

// setupTestRepo connects to MEDART_TEST_DATABASE_URL and applies migrations
func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	dsn := os.Getenv("MEDART_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("MEDART_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, dsn))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return NewWithPool(pool)
}

func TestRepository_Integration(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	width := 800
	created := time.Now().UTC().Add(-2 * time.Hour).Truncate(time.Microsecond)
	id := uuid.New()
	image := &medart.Image{
		ID:          id,
		OwnerID:     "u-" + id.String()[:8],
		Key:         "users/test/images/" + id.String() + "/original.png",
		Filename:    "photo.png",
		ContentType: "image/png",
		Size:        2048,
		Width:       &width,
		Status:      medart.ImageStatusPending,
		CreatedAt:   created,
		UpdatedAt:   created,
	}

	require.NoError(t, repo.CreateImage(ctx, image))
	assert.ErrorIs(t, repo.CreateImage(ctx, image), medart.ErrImageExists)

	got, err := repo.GetImage(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, image.Key, got.Key)
	require.NotNil(t, got.Width)
	assert.Equal(t, 800, *got.Width)
	assert.Nil(t, got.Height)
	assert.Equal(t, medart.ImageStatusPending, got.Status)

	pending, err := repo.ListPendingBefore(ctx, time.Now().Add(-time.Hour), 1000)
	require.NoError(t, err)
	found := false
	for _, p := range pending {
		if p.ID == id {
			found = true
		}
	}
	assert.True(t, found)

	require.NoError(t, repo.UpdateImageStatus(ctx, id, medart.ImageStatusUploaded))
	got, err = repo.GetImage(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, medart.ImageStatusUploaded, got.Status)

	_, err = repo.GetImage(ctx, uuid.New())
	assert.ErrorIs(t, err, medart.ErrImageNotFound)
	assert.ErrorIs(t, repo.UpdateImageStatus(ctx, uuid.New(), medart.ImageStatusExpired), medart.ErrImageNotFound)
}
