package sweeper_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/medical-artists/pkg/medart"
	repoMemory "github.com/tendant/medical-artists/pkg/medart/repo/memory"
	storageMemory "github.com/tendant/medical-artists/pkg/medart/storage/memory"
	"github.com/tendant/medical-artists/pkg/medart/sweeper"
)

type outcomeRecorder struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (o *outcomeRecorder) RecordSwept(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.outcomes == nil {
		o.outcomes = map[string]int{}
	}
	o.outcomes[outcome]++
}

func seed(t *testing.T, repo *repoMemory.Repository, key string, age time.Duration, now time.Time) uuid.UUID {
	t.Helper()
	image := &medart.Image{
		ID:          uuid.New(),
		OwnerID:     "u1",
		Key:         key,
		Filename:    "a.png",
		ContentType: "image/png",
		Size:        100,
		Status:      medart.ImageStatusPending,
		CreatedAt:   now.Add(-age),
		UpdatedAt:   now.Add(-age),
	}
	require.NoError(t, repo.CreateImage(context.Background(), image))
	return image.ID
}

func status(t *testing.T, repo *repoMemory.Repository, id uuid.UUID) medart.ImageStatus {
	t.Helper()
	image, err := repo.GetImage(context.Background(), id)
	require.NoError(t, err)
	return image.Status
}

func TestSweeper_RunOnce(t *testing.T) {
	now := time.Now()
	repo := repoMemory.New()
	store := storageMemory.New()
	obs := &outcomeRecorder{}

	uploaded := seed(t, repo, "k/uploaded.png", time.Hour, now)
	rejected := seed(t, repo, "k/rejected.png", time.Hour, now)
	expired := seed(t, repo, "k/expired.png", time.Hour, now)
	fresh := seed(t, repo, "k/fresh.png", time.Minute, now)

	store.Put("k/uploaded.png", "image/png", 2048)
	store.Put("k/rejected.png", "application/zip", 2048)
	store.Put("k/fresh.png", "image/png", 2048)

	s, err := sweeper.New(repo, store, sweeper.Config{}, sweeper.WithObserver(obs), sweeper.WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	result, err := s.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, sweeper.Result{Uploaded: 1, Rejected: 1, Expired: 1}, result)
	assert.Equal(t, medart.ImageStatusUploaded, status(t, repo, uploaded))
	assert.Equal(t, medart.ImageStatusRejected, status(t, repo, rejected))
	assert.Equal(t, medart.ImageStatusExpired, status(t, repo, expired))
	assert.Equal(t, medart.ImageStatusPending, status(t, repo, fresh), "inside the grace period")

	assert.Equal(t, map[string]int{"uploaded": 1, "rejected": 1, "expired": 1}, obs.outcomes)

	// Nothing left to do on the second pass
	result, err = s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total())
}

func TestSweeper_StorageErrorLeavesPending(t *testing.T) {
	now := time.Now()
	repo := repoMemory.New()
	store := storageMemory.New(storageMemory.WithHeadError(medart.ErrStorageUnavailable))

	id := seed(t, repo, "k/a.png", time.Hour, now)

	s, err := sweeper.New(repo, store, sweeper.Config{Concurrency: 1})
	require.NoError(t, err)

	result, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, medart.ImageStatusPending, status(t, repo, id))
}

func TestSweeper_BatchSize(t *testing.T) {
	now := time.Now()
	repo := repoMemory.New()
	store := storageMemory.New()
	for i := 0; i < 5; i++ {
		seed(t, repo, uuid.NewString(), time.Hour+time.Duration(i)*time.Minute, now)
	}

	s, err := sweeper.New(repo, store, sweeper.Config{BatchSize: 2})
	require.NoError(t, err)

	result, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Expired)
}

func TestSweeper_New(t *testing.T) {
	_, err := sweeper.New(nil, storageMemory.New(), sweeper.Config{})
	assert.Error(t, err)

	_, err = sweeper.New(repoMemory.New(), nil, sweeper.Config{})
	assert.Error(t, err)
}

func TestSweeper_StartStop(t *testing.T) {
	s, err := sweeper.New(repoMemory.New(), storageMemory.New(), sweeper.Config{Schedule: "@every 1h"})
	require.NoError(t, err)

	require.NoError(t, s.Start())
	assert.Error(t, s.Start(), "second start is rejected")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
	assert.NoError(t, s.Stop(ctx), "stop is idempotent")
}

func TestSweeper_InvalidSchedule(t *testing.T) {
	s, err := sweeper.New(repoMemory.New(), storageMemory.New(), sweeper.Config{Schedule: "every tuesday"})
	require.NoError(t, err)
	assert.Error(t, s.Start())
}
