package domain

import (
	"context"
	"time"

	"marifkon/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Repository interface {
	UpsertUser(ctx context.Context, user *models.User) (bool, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	CountReferrals(ctx context.Context, telegramID int64) (int64, error)
	LatchReward(ctx context.Context, telegramID int64) (bool, error)
	ResetReward(ctx context.Context, telegramID int64) error
	SetLanguage(ctx context.Context, telegramID int64, language string) error
	UpdateCachedReferrals(ctx context.Context, telegramID int64, count int64) error
	UpdateUserActivity(ctx context.Context, telegramID int64) error
	Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	GetUnrewardedUsers(ctx context.Context) ([]*models.User, error)
	CountUsers(ctx context.Context) (total int64, rewarded int64, err error)
}

// Ledger is the referral accounting surface consumed by the handler layer.
// It returns plain data only, no Telegram types.
type Ledger interface {
	Register(ctx context.Context, params RegisterParams) error
	RefreshStatus(ctx context.Context, telegramID int64) (models.ReferralStatus, error)
	GetLanguage(ctx context.Context, telegramID int64) string
	SetLanguage(ctx context.Context, telegramID int64, language string) error
	ResetReferrals(ctx context.Context, telegramID int64) error
	Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

// RegisterParams carries one registration attempt. ReferrerID == 0 means no
// referrer. A self-referral is downgraded to no referrer, never an error.
type RegisterParams struct {
	TelegramID int64
	ReferrerID int64
	Username   string
	FirstName  string
	LastName   string
	Language   string
}

type StateRepository interface {
	GetState(ctx context.Context, userID int64) (*models.UserState, error)
	SetState(ctx context.Context, state *models.UserState) error
	ClearState(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
	MarkSweepDone(ctx context.Context, day string) (bool, error)
}

type StateManager interface {
	GetUserState(ctx context.Context, userID int64) (*models.UserState, error)
	SetUserState(ctx context.Context, userID int64, step string, data map[string]interface{}) error
	ClearUserState(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
	MarkSweepDone(ctx context.Context, day string) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

type TelegramService interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	SendMessage(chatID int64, text string) (tgbotapi.Message, error)
	SendMarkdown(chatID int64, text string) (tgbotapi.Message, error)
	SendWithInlineKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	SendPhoto(chatID int64, photoPath, caption string) (tgbotapi.Message, error)
	SendDocument(chatID int64, filePath string) (tgbotapi.Message, error)
	EditMessage(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	AnswerCallback(callbackID string, text string) error
	GetChatMember(chatName string, userID int64) (tgbotapi.ChatMember, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

// SheetsWriter mirrors the ledger into the organizers' spreadsheet.
type SheetsWriter interface {
	UpdateLedgerSheet(ctx context.Context, users []*models.User) error
	UpdateLeaderboardSheet(ctx context.Context, entries []models.LeaderboardEntry) error
	TestConnection(ctx context.Context) error
}

type SyncWorker interface {
	EnqueueLedgerSync(ctx context.Context) error
	EnqueueLeaderboardSync(ctx context.Context) error
}
