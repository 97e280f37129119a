package database

import (
	"context"
	"testing"
	"time"

	"marifkon/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestDB_ErrorPaths(t *testing.T) {
	logger := zerolog.Nop()
	db, err := NewDB(":memory:", &logger)
	assert.NoError(t, err)
	db.Close() // закрываем, чтобы спровоцировать ошибки

	ctx := context.Background()

	t.Run("UpsertUser_Error", func(t *testing.T) {
		_, err := db.UpsertUser(ctx, &models.User{TelegramID: 1, LastActivity: time.Now()})
		assert.Error(t, err)
	})

	t.Run("GetUserByTelegramID_Error", func(t *testing.T) {
		_, err := db.GetUserByTelegramID(ctx, 1)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("CountReferrals_Error", func(t *testing.T) {
		_, err := db.CountReferrals(ctx, 1)
		assert.Error(t, err)
	})

	t.Run("LatchReward_Error", func(t *testing.T) {
		_, err := db.LatchReward(ctx, 1)
		assert.Error(t, err)
	})

	t.Run("ResetReward_Error", func(t *testing.T) {
		err := db.ResetReward(ctx, 1)
		assert.Error(t, err)
	})

	t.Run("SetLanguage_Error", func(t *testing.T) {
		err := db.SetLanguage(ctx, 1, models.LanguageUzbek)
		assert.Error(t, err)
	})

	t.Run("Leaderboard_Error", func(t *testing.T) {
		_, err := db.Leaderboard(ctx, 10)
		assert.Error(t, err)
	})

	t.Run("GetAllUsers_Error", func(t *testing.T) {
		_, err := db.GetAllUsers(ctx)
		assert.Error(t, err)
	})

	t.Run("CreateSyncTask_Error", func(t *testing.T) {
		err := db.CreateSyncTask(ctx, &models.SyncTask{TaskType: "ledger"})
		assert.Error(t, err)
	})
}
