package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"marifkon/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertUserCreateAndUpdate(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	user := &models.User{
		TelegramID:   12345,
		Username:     "testuser",
		FirstName:    "Test",
		LastName:     "User",
		Language:     models.LanguageEnglish,
		LastActivity: time.Now(),
	}

	created, err := db.UpsertUser(ctx, user)
	require.NoError(t, err)
	assert.True(t, created)

	found, err := db.GetUserByTelegramID(ctx, 12345)
	require.NoError(t, err)
	assert.Equal(t, "testuser", found.Username)
	assert.Equal(t, "en", found.Language)
	assert.False(t, found.Rewarded)
	assert.False(t, found.ReferredBy.Valid)
	assert.Zero(t, found.Referrals)

	// Повторный вызов обновляет профиль, created = false
	user.FirstName = "Renamed"
	created, err = db.UpsertUser(ctx, user)
	require.NoError(t, err)
	assert.False(t, created)

	found, err = db.GetUserByTelegramID(ctx, 12345)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", found.FirstName)
}

func TestUpsertUserFirstReferrerWins(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	// register(Y), затем register(Y, Z), затем register(Y, W) → referredBy = Z
	registerUser(t, db, 1, 0)

	found, err := db.GetUserByTelegramID(ctx, 1)
	require.NoError(t, err)
	assert.False(t, found.ReferredBy.Valid)

	registerUser(t, db, 1, 100)
	found, err = db.GetUserByTelegramID(ctx, 1)
	require.NoError(t, err)
	require.True(t, found.ReferredBy.Valid)
	assert.Equal(t, int64(100), found.ReferredBy.Int64)

	registerUser(t, db, 1, 200)
	found, err = db.GetUserByTelegramID(ctx, 1)
	require.NoError(t, err)
	require.True(t, found.ReferredBy.Valid)
	assert.Equal(t, int64(100), found.ReferredBy.Int64, "существующий реферер не перезаписывается")
}

func TestUpsertUserReferrerSetOnInsert(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	registerUser(t, db, 2, 500)

	found, err := db.GetUserByTelegramID(ctx, 2)
	require.NoError(t, err)
	require.True(t, found.ReferredBy.Valid)
	assert.Equal(t, int64(500), found.ReferredBy.Int64)

	// Повторная регистрация без реферера не затирает referred_by
	registerUser(t, db, 2, 0)
	found, err = db.GetUserByTelegramID(ctx, 2)
	require.NoError(t, err)
	require.True(t, found.ReferredBy.Valid)
	assert.Equal(t, int64(500), found.ReferredBy.Int64)
}

func TestUpsertUserDoesNotTouchRewardState(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	registerUser(t, db, 3, 0)

	latched, err := db.LatchReward(ctx, 3)
	require.NoError(t, err)
	assert.True(t, latched)

	// Повторная регистрация не сбрасывает rewarded
	registerUser(t, db, 3, 0)

	found, err := db.GetUserByTelegramID(ctx, 3)
	require.NoError(t, err)
	assert.True(t, found.Rewarded)
}

func TestGetUserNotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, err := db.GetUserByTelegramID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCountReferralsLiveCount(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	registerUser(t, db, 10, 0)
	registerUser(t, db, 11, 10)
	registerUser(t, db, 12, 10)

	count, err := db.CountReferrals(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// Кэшированный счётчик отстает — live count остается источником правды
	found, err := db.GetUserByTelegramID(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, found.Referrals)

	registerUser(t, db, 13, 10)
	count, err = db.CountReferrals(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestLatchRewardOneWay(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	registerUser(t, db, 20, 0)

	latched, err := db.LatchReward(ctx, 20)
	require.NoError(t, err)
	assert.True(t, latched, "первый вызов взводит флаг")

	latched, err = db.LatchReward(ctx, 20)
	require.NoError(t, err)
	assert.False(t, latched, "повторный вызов — no-op")

	found, err := db.GetUserByTelegramID(ctx, 20)
	require.NoError(t, err)
	assert.True(t, found.Rewarded)
}

func TestResetRewardKeepsChildren(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	registerUser(t, db, 30, 0)
	registerUser(t, db, 31, 30)
	registerUser(t, db, 32, 30)
	registerUser(t, db, 33, 30)

	_, err := db.LatchReward(ctx, 30)
	require.NoError(t, err)

	require.NoError(t, db.ResetReward(ctx, 30))

	found, err := db.GetUserByTelegramID(ctx, 30)
	require.NoError(t, err)
	assert.False(t, found.Rewarded)

	// Дети не трогаются — живой счётчик остается 3
	count, err := db.CountReferrals(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestResetRewardNotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	err := db.ResetReward(context.Background(), 404)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSetLanguageUpsertsMinimalRecord(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	// Выбор языка до регистрации создает запись
	require.NoError(t, db.SetLanguage(ctx, 40, models.LanguageEnglish))

	found, err := db.GetUserByTelegramID(ctx, 40)
	require.NoError(t, err)
	assert.Equal(t, "en", found.Language)

	// Повторная смена языка
	require.NoError(t, db.SetLanguage(ctx, 40, models.LanguageUzbek))
	found, err = db.GetUserByTelegramID(ctx, 40)
	require.NoError(t, err)
	assert.Equal(t, "uz", found.Language)

	// Последующая регистрация не теряет связку
	registerUser(t, db, 40, 77)
	found, err = db.GetUserByTelegramID(ctx, 40)
	require.NoError(t, err)
	require.True(t, found.ReferredBy.Valid)
	assert.Equal(t, int64(77), found.ReferredBy.Int64)
}

func TestUpdateCachedReferrals(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	registerUser(t, db, 50, 0)

	require.NoError(t, db.UpdateCachedReferrals(ctx, 50, 7))

	found, err := db.GetUserByTelegramID(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(7), found.Referrals)
}

func TestLeaderboardOrderingAndTieBreak(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	// Реферер B регистрируется раньше A, оба наберут по 2; C наберет 3
	registerUser(t, db, 2000, 0) // B
	registerUser(t, db, 1000, 0) // A
	registerUser(t, db, 3000, 0) // C

	registerUser(t, db, 1, 3000)
	registerUser(t, db, 2, 3000)
	registerUser(t, db, 3, 3000)
	registerUser(t, db, 4, 1000)
	registerUser(t, db, 5, 1000)
	registerUser(t, db, 6, 2000)
	registerUser(t, db, 7, 2000)

	entries, err := db.Leaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, int64(3000), entries[0].ReferrerID)
	assert.Equal(t, int64(3), entries[0].Count)

	// Ничья 2:2 — раньше зарегистрированный реферер выше
	assert.Equal(t, int64(2000), entries[1].ReferrerID)
	assert.Equal(t, int64(1000), entries[2].ReferrerID)
}

func TestLeaderboardDisplayNameFallback(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	named := &models.User{TelegramID: 100, FirstName: "Aziza", LastActivity: time.Now()}
	_, err := db.UpsertUser(ctx, named)
	require.NoError(t, err)

	nicknamed := &models.User{TelegramID: 200, Username: "bobur", LastActivity: time.Now()}
	_, err = db.UpsertUser(ctx, nicknamed)
	require.NoError(t, err)

	registerUser(t, db, 1, 100)
	registerUser(t, db, 2, 100)
	registerUser(t, db, 3, 200)
	// Реферер 300 вообще не зарегистрирован
	registerUser(t, db, 4, 300)

	entries, err := db.Leaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	byID := map[int64]models.LeaderboardEntry{}
	for _, e := range entries {
		byID[e.ReferrerID] = e
	}
	assert.Equal(t, "Aziza", byID[100].DisplayName)
	assert.Equal(t, "bobur", byID[200].DisplayName)
	assert.Equal(t, "Unknown", byID[300].DisplayName)
}

func TestLeaderboardLimit(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	for r := int64(100); r < 105; r++ {
		registerUser(t, db, r, 0)
		registerUser(t, db, r+1000, r)
	}

	entries, err := db.Leaderboard(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestGetUnrewardedUsers(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	registerUser(t, db, 60, 0)
	registerUser(t, db, 61, 0)
	_, err := db.LatchReward(ctx, 60)
	require.NoError(t, err)

	users, err := db.GetUnrewardedUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, int64(61), users[0].TelegramID)
}

func TestCountUsers(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	registerUser(t, db, 70, 0)
	registerUser(t, db, 71, 0)
	registerUser(t, db, 72, 0)
	_, err := db.LatchReward(ctx, 71)
	require.NoError(t, err)

	total, rewarded, err := db.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, int64(1), rewarded)
}

func TestUpsertUserNullInt64Referrer(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	user := &models.User{
		TelegramID:   80,
		ReferredBy:   sql.NullInt64{},
		LastActivity: time.Now(),
	}
	_, err := db.UpsertUser(ctx, user)
	require.NoError(t, err)

	found, err := db.GetUserByTelegramID(ctx, 80)
	require.NoError(t, err)
	assert.False(t, found.ReferredBy.Valid)
}
