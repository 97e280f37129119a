package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"marifkon/internal/models"
)

// UpsertUser создает или обновляет пользователя. Возвращает true, если запись
// была создана. Профиль и язык перезаписываются, referred_by выставляется
// только если был NULL (first-referrer-wins), referrals и rewarded при
// конфликте не трогаются.
func (db *DB) UpsertUser(ctx context.Context, user *models.User) (bool, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE telegram_id = ?)`,
		user.TelegramID,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}

	query := `INSERT INTO users (
				telegram_id, username, first_name, last_name, referred_by,
				referrals, rewarded, language, last_activity, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, 0, 0, ?, ?, ?, ?)
              ON CONFLICT(telegram_id) DO UPDATE SET
                username = excluded.username,
                first_name = excluded.first_name,
                last_name = excluded.last_name,
                language = excluded.language,
                referred_by = COALESCE(users.referred_by, excluded.referred_by),
                last_activity = excluded.last_activity,
                updated_at = excluded.updated_at`

	lastActivity := user.LastActivity
	if lastActivity.IsZero() {
		lastActivity = time.Now()
	}
	language := user.Language
	if !models.KnownLanguage(language) {
		language = models.DefaultLanguage
	}
	now := time.Now()

	if _, err := tx.ExecContext(ctx, query,
		user.TelegramID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.ReferredBy,
		language,
		lastActivity,
		now,
		now,
	); err != nil {
		return false, fmt.Errorf("failed to upsert user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit upsert: %w", err)
	}
	return !exists, nil
}

func (db *DB) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	query := `SELECT id, telegram_id, username, first_name, last_name,
	                 referred_by, referrals, rewarded, language,
	                 last_activity, created_at, updated_at
              FROM users WHERE telegram_id = ?`
	return db.queryUser(ctx, query, telegramID)
}

func (db *DB) queryUser(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	err := db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID, &user.TelegramID, &user.Username, &user.FirstName, &user.LastName,
		&user.ReferredBy, &user.Referrals, &user.Rewarded, &user.Language,
		&user.LastActivity, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

// CountReferrals возвращает живое количество приглашённых (по referred_by),
// а не кэшированный счётчик.
func (db *DB) CountReferrals(ctx context.Context, telegramID int64) (int64, error) {
	var count int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE referred_by = ?`, telegramID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count referrals: %w", err)
	}
	return count, nil
}

// LatchReward атомарно взводит флаг rewarded. Возвращает true, если флаг
// был взведён именно этим вызовом. Условный UPDATE защищает от гонки при
// двойном нажатии кнопки.
func (db *DB) LatchReward(ctx context.Context, telegramID int64) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE users SET rewarded = 1, updated_at = ? WHERE telegram_id = ? AND rewarded = 0`,
		time.Now(), telegramID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to latch reward: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected > 0, nil
}

// ResetReward снимает флаг rewarded (ручной сброс). Живой счётчик приглашённых
// при этом не меняется.
func (db *DB) ResetReward(ctx context.Context, telegramID int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE users SET rewarded = 0, updated_at = ? WHERE telegram_id = ?`,
		time.Now(), telegramID,
	)
	if err != nil {
		return fmt.Errorf("failed to reset reward: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetLanguage сохраняет язык; создает минимальную запись, если её нет,
// чтобы выбор языка до регистрации не потерялся.
func (db *DB) SetLanguage(ctx context.Context, telegramID int64, language string) error {
	now := time.Now()
	query := `INSERT INTO users (telegram_id, language, last_activity, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?)
              ON CONFLICT(telegram_id) DO UPDATE SET
                language = excluded.language,
                updated_at = excluded.updated_at`
	_, err := db.ExecContext(ctx, query, telegramID, language, now, now, now)
	if err != nil {
		return fmt.Errorf("failed to set language: %w", err)
	}
	return nil
}

// UpdateCachedReferrals обновляет кэшированный счётчик. Значение справочное,
// источником правды остается CountReferrals.
func (db *DB) UpdateCachedReferrals(ctx context.Context, telegramID int64, count int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET referrals = ? WHERE telegram_id = ?`,
		count, telegramID,
	)
	if err != nil {
		return fmt.Errorf("failed to update cached referrals: %w", err)
	}
	return nil
}

func (db *DB) UpdateUserActivity(ctx context.Context, telegramID int64) error {
	now := time.Now()
	_, err := db.ExecContext(ctx,
		`UPDATE users SET last_activity = ?, updated_at = ? WHERE telegram_id = ?`,
		now, now, telegramID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user activity: %w", err)
	}
	return nil
}

// Leaderboard группирует пользователей по referred_by, считает детей и
// возвращает топ limit. Сортировка: по количеству по убыванию, при равенстве —
// кто раньше зарегистрировался. Имя подтягивается из профиля реферера.
func (db *DB) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	query := `SELECT c.referred_by, COUNT(*) AS cnt,
                     COALESCE(NULLIF(r.first_name, ''), NULLIF(r.username, ''), 'Unknown') AS display_name
              FROM users c
              LEFT JOIN users r ON r.telegram_id = c.referred_by
              WHERE c.referred_by IS NOT NULL
              GROUP BY c.referred_by
              ORDER BY cnt DESC, r.id IS NULL, r.id ASC
              LIMIT ?`

	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []models.LeaderboardEntry
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.ReferrerID, &e.Count, &e.DisplayName); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leaderboard: %w", err)
	}
	return entries, nil
}

func (db *DB) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	query := `SELECT id, telegram_id, username, first_name, last_name,
	                 referred_by, referrals, rewarded, language,
	                 last_activity, created_at, updated_at
              FROM users ORDER BY id ASC`
	return db.queryUsers(ctx, query)
}

// GetUnrewardedUsers возвращает получателей ежедневного напоминания.
func (db *DB) GetUnrewardedUsers(ctx context.Context) ([]*models.User, error) {
	query := `SELECT id, telegram_id, username, first_name, last_name,
	                 referred_by, referrals, rewarded, language,
	                 last_activity, created_at, updated_at
              FROM users WHERE rewarded = 0 ORDER BY id ASC`
	return db.queryUsers(ctx, query)
}

func (db *DB) queryUsers(ctx context.Context, query string, args ...interface{}) ([]*models.User, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u := &models.User{}
		err := rows.Scan(
			&u.ID, &u.TelegramID, &u.Username, &u.FirstName, &u.LastName,
			&u.ReferredBy, &u.Referrals, &u.Rewarded, &u.Language,
			&u.LastActivity, &u.CreatedAt, &u.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// CountUsers возвращает общее число записей и число получивших награду.
func (db *DB) CountUsers(ctx context.Context) (total int64, rewarded int64, err error) {
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(rewarded), 0) FROM users`,
	).Scan(&total, &rewarded)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count users: %w", err)
	}
	return total, rewarded, nil
}
