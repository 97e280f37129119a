package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"marifkon/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStateRepository struct {
	err error
}

func (f *failingStateRepository) GetState(context.Context, int64) (*models.UserState, error) {
	return nil, f.err
}

func (f *failingStateRepository) SetState(context.Context, *models.UserState) error {
	return f.err
}

func (f *failingStateRepository) ClearState(context.Context, int64) error {
	return f.err
}

func (f *failingStateRepository) CheckRateLimit(context.Context, int64, int, time.Duration) (bool, error) {
	return false, f.err
}

func (f *failingStateRepository) MarkSweepDone(context.Context, string) (bool, error) {
	return false, f.err
}

func TestFailoverFallsBackToMemory(t *testing.T) {
	logger := zerolog.Nop()
	primary := &failingStateRepository{err: errors.New("redis down")}
	fallback := NewMemoryStateRepository(time.Hour)

	repo := NewFailoverStateRepository(primary, fallback, &logger)
	ctx := context.Background()

	state := &models.UserState{UserID: 7, CurrentStep: models.StateMainMenu}
	require.NoError(t, repo.SetState(ctx, state))

	// Повторное чтение идет уже в fallback без попытки primary
	got, err := repo.GetState(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.StateMainMenu, got.CurrentStep)

	allowed, err := repo.CheckRateLimit(ctx, 7, 10, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	ok, err := repo.MarkSweepDone(ctx, "2026-09-01")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFailoverUsesPrimaryWhenHealthy(t *testing.T) {
	logger := zerolog.Nop()
	primary := NewMemoryStateRepository(time.Hour)
	fallback := NewMemoryStateRepository(time.Hour)

	repo := NewFailoverStateRepository(primary, fallback, &logger)
	ctx := context.Background()

	require.NoError(t, repo.SetState(ctx, &models.UserState{UserID: 9, CurrentStep: "x"}))

	// Состояние лежит в primary, не в fallback
	got, err := primary.GetState(ctx, 9)
	require.NoError(t, err)
	assert.NotNil(t, got)

	got, err = fallback.GetState(ctx, 9)
	require.NoError(t, err)
	assert.Nil(t, got)
}
