package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"marifkon/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	return db
}

// registerUser вставляет пользователя с опциональным реферером (0 — без)
func registerUser(t *testing.T, db *DB, telegramID, referredBy int64) {
	t.Helper()
	user := &models.User{
		TelegramID:   telegramID,
		LastActivity: time.Now(),
	}
	if referredBy != 0 {
		user.ReferredBy = sql.NullInt64{Int64: referredBy, Valid: true}
	}
	_, err := db.UpsertUser(context.Background(), user)
	require.NoError(t, err)
}

func TestNewDBCreatesSchema(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	// users и sync_queue должны существовать
	var name string
	err := db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'users'`,
	).Scan(&name)
	require.NoError(t, err)

	err = db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'sync_queue'`,
	).Scan(&name)
	require.NoError(t, err)

	// Индекс на referred_by обязателен: читается на каждом refresh
	err = db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'index' AND name = 'idx_users_referred_by'`,
	).Scan(&name)
	require.NoError(t, err)
}
