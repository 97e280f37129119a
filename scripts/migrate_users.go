package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"marifkon/internal/database"
	"marifkon/internal/models"

	"github.com/rs/zerolog"
)

// exportedUser соответствует документу из JSON-выгрузки старого бота
// (mongoexport --jsonArray).
type exportedUser struct {
	TelegramID int64  `json:"telegramId"`
	Username   string `json:"username"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	ReferredBy int64  `json:"referredBy"`
	Rewarded   bool   `json:"rewarded"`
	Language   string `json:"language"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		exportPath = flag.String("export", "users.json", "path to the JSON export of the old bot")
		dbPath     = flag.String("db", "./data/marifkon.db", "path to sqlite db")
	)
	flag.Parse()

	data, err := os.ReadFile(*exportPath)
	if err != nil {
		return fmt.Errorf("read export: %w", err)
	}
	var exported []exportedUser
	if err = json.Unmarshal(data, &exported); err != nil {
		return fmt.Errorf("parse export: %w", err)
	}
	if len(exported) == 0 {
		return fmt.Errorf("no users in export")
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	created := 0
	skipped := 0
	rewarded := 0
	for _, doc := range exported {
		if doc.TelegramID <= 0 {
			skipped++
			continue
		}

		user := &models.User{
			TelegramID: doc.TelegramID,
			Username:   doc.Username,
			FirstName:  doc.FirstName,
			LastName:   doc.LastName,
			Language:   doc.Language,
		}
		// Самоприглашения из старой базы отбрасываются
		if doc.ReferredBy > 0 && doc.ReferredBy != doc.TelegramID {
			user.ReferredBy = sql.NullInt64{Int64: doc.ReferredBy, Valid: true}
		}

		isNew, err := db.UpsertUser(ctx, user)
		if err != nil {
			return fmt.Errorf("upsert %d: %w", doc.TelegramID, err)
		}
		if isNew {
			created++
		}

		if doc.Rewarded {
			if _, err := db.LatchReward(ctx, doc.TelegramID); err != nil {
				return fmt.Errorf("latch reward %d: %w", doc.TelegramID, err)
			}
			rewarded++
		}
	}

	// Кэшированные счётчики пересчитываются по живым связям
	for _, doc := range exported {
		if doc.TelegramID <= 0 {
			continue
		}
		count, err := db.CountReferrals(ctx, doc.TelegramID)
		if err != nil {
			return fmt.Errorf("count referrals %d: %w", doc.TelegramID, err)
		}
		if err := db.UpdateCachedReferrals(ctx, doc.TelegramID, count); err != nil {
			return fmt.Errorf("update cached referrals %d: %w", doc.TelegramID, err)
		}
	}

	fmt.Printf("done: created=%d rewarded=%d skipped=%d\n", created, rewarded, skipped)
	return nil
}
