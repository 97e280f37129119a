package repository

import (
	"context"
	"testing"
	"time"

	"marifkon/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStateRepository(t *testing.T) {
	repo := NewMemoryStateRepository(time.Hour)
	ctx := context.Background()

	state := &models.UserState{UserID: 1, CurrentStep: models.StateChoosingLanguage}
	require.NoError(t, repo.SetState(ctx, state))

	got, err := repo.GetState(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.StateChoosingLanguage, got.CurrentStep)

	require.NoError(t, repo.ClearState(ctx, 1))
	got, err = repo.GetState(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryRateLimit(t *testing.T) {
	repo := NewMemoryStateRepository(time.Hour)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := repo.CheckRateLimit(ctx, 5, 2, 50*time.Millisecond)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := repo.CheckRateLimit(ctx, 5, 2, 50*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, allowed)

	// Окно истекло — счётчик сбрасывается
	time.Sleep(60 * time.Millisecond)
	allowed, err = repo.CheckRateLimit(ctx, 5, 2, 50*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestMemoryMarkSweepDone(t *testing.T) {
	repo := NewMemoryStateRepository(time.Hour)
	ctx := context.Background()

	ok, err := repo.MarkSweepDone(ctx, "2026-09-01")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkSweepDone(ctx, "2026-09-01")
	require.NoError(t, err)
	assert.False(t, ok)
}
