package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"marifkon/internal/database"
	"marifkon/internal/domain"
	"marifkon/internal/events"
	"marifkon/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

func (b *Bot) handleMessage(ctx context.Context, update tgbotapi.Update) {
	userID := update.Message.From.ID
	text := update.Message.Text
	l := zerolog.Ctx(ctx)

	if b.metrics != nil {
		b.metrics.MessagesProcessed.Inc()
		if strings.HasPrefix(text, "/") {
			b.metrics.CommandsProcessed.Inc()
		}
	}

	l.Debug().
		Int64("user_id", userID).
		Str("username", update.Message.From.UserName).
		Str("text", text).
		Msg("Handling message")

	if b.isAdmin(userID) && b.handleAdminCommand(ctx, update) {
		return
	}

	if update.Message.IsCommand() {
		b.handleUserCommand(ctx, update)
		return
	}

	lang := b.ledger.GetLanguage(ctx, userID)
	b.sendMessage(update.Message.Chat.ID, b.messages.T(lang, MsgHelp))
}

func (b *Bot) handleUserCommand(ctx context.Context, update tgbotapi.Update) {
	switch update.Message.Command() {
	case "start":
		b.handleStart(ctx, update)
	case "myreferrals":
		b.handleMyReferrals(ctx, update)
	case "leaderboard":
		b.handleLeaderboard(ctx, update)
	case "language":
		b.handleLanguageCommand(ctx, update)
	default:
		lang := b.ledger.GetLanguage(ctx, update.Message.From.ID)
		b.sendMessage(update.Message.Chat.ID, b.messages.T(lang, MsgHelp))
	}
}

// handleStart разбирает реферальный payload и прогоняет пользователя через
// ворота подписки на канал. Регистрация происходит только после подписки.
func (b *Bot) handleStart(ctx context.Context, update tgbotapi.Update) {
	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	referrerID := parseReferralPayload(update.Message.CommandArguments())
	lang := b.ledger.GetLanguage(ctx, userID)

	if !b.isSubscribed(userID) {
		// Реферер сохраняется в состоянии, чтобы не потерять его до
		// нажатия кнопки "я подписался"
		b.setUserState(ctx, userID, models.StateAwaitingJoin, map[string]interface{}{
			"referrer_id": referrerID,
		})
		text := b.messages.T(lang, MsgJoinPrompt, b.config.Telegram.ChannelUsername)
		if _, err := b.tgService.SendWithInlineKeyboard(chatID, text, b.joinKeyboard(lang)); err != nil {
			b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send join prompt")
		}
		return
	}

	b.completeRegistration(ctx, chatID, update.Message.From, referrerID, lang)
}

// parseReferralPayload достает telegram_id реферера из /start payload.
// Мусорный payload молча игнорируется.
func parseReferralPayload(payload string) int64 {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return 0
	}
	id, err := strconv.ParseInt(payload, 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

func (b *Bot) completeRegistration(ctx context.Context, chatID int64, from *tgbotapi.User, referrerID int64, lang string) {
	userID := from.ID

	_, err := b.repo.GetUserByTelegramID(ctx, userID)
	firstContact := errors.Is(err, database.ErrUserNotFound)

	if err := b.ledger.Register(ctx, domain.RegisterParams{
		TelegramID: userID,
		ReferrerID: referrerID,
		Username:   from.UserName,
		FirstName:  from.FirstName,
		LastName:   from.LastName,
		Language:   lang,
	}); err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Registration failed")
		b.sendMessage(chatID, b.getErrorMessage(lang, err))
		return
	}

	b.clearUserState(ctx, userID)

	if firstContact {
		if b.metrics != nil {
			b.metrics.RegistrationsTotal.Inc()
		}
		b.sendWelcome(chatID, lang)
		// Клавиатура выбора языка при первом контакте; статус придет
		// после выбора
		text := b.messages.T(lang, MsgLanguageAsk)
		if _, err := b.tgService.SendWithInlineKeyboard(chatID, text, b.languageKeyboard()); err != nil {
			b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send language keyboard")
		}
		return
	}

	b.sendStatus(ctx, chatID, userID, lang, true)
}

func (b *Bot) sendWelcome(chatID int64, lang string) {
	welcome := b.messages.T(lang, MsgWelcome)
	if b.config.Telegram.PromoPhotoPath != "" {
		_, err := b.tgService.SendPhoto(chatID, b.config.Telegram.PromoPhotoPath, welcome)
		if err == nil {
			return
		}
		b.logger.Warn().Err(err).Str("path", b.config.Telegram.PromoPhotoPath).Msg("Failed to send promo photo, falling back to text")
	}
	b.sendMarkdown(chatID, welcome)
}

// sendStatus пересчитывает счётчик и показывает ссылку, прогресс и доступ.
func (b *Bot) sendStatus(ctx context.Context, chatID, userID int64, lang string, withWelcome bool) {
	status, err := b.ledger.RefreshStatus(ctx, userID)
	if err != nil {
		b.sendMessage(chatID, b.getErrorMessage(lang, err))
		return
	}

	threshold := b.config.Bot.ReferralThreshold
	link := b.referralLink(userID)

	var sb strings.Builder
	if withWelcome {
		sb.WriteString(b.messages.T(lang, MsgWelcome))
		sb.WriteString("\n\n")
	}
	sb.WriteString(b.messages.T(lang, MsgStatus, link, status.ReferralCount, remaining(status.ReferralCount, threshold)))
	if status.Rewarded {
		sb.WriteString("\n\n")
		sb.WriteString(b.messages.T(lang, MsgAlreadyAccess, b.config.Telegram.GroupLink))
	}

	b.sendMarkdown(chatID, sb.String())
}

func (b *Bot) handleMyReferrals(ctx context.Context, update tgbotapi.Update) {
	userID := update.Message.From.ID
	lang := b.ledger.GetLanguage(ctx, userID)
	b.sendStatus(ctx, update.Message.Chat.ID, userID, lang, false)
}

func (b *Bot) handleLeaderboard(ctx context.Context, update tgbotapi.Update) {
	userID := update.Message.From.ID
	lang := b.ledger.GetLanguage(ctx, userID)

	entries, err := b.ledger.Leaderboard(ctx, b.config.Bot.LeaderboardSize)
	if err != nil {
		b.logger.Error().Err(err).Msg("Leaderboard query failed")
		b.sendMessage(update.Message.Chat.ID, b.getErrorMessage(lang, err))
		return
	}

	if len(entries) == 0 {
		b.sendMessage(update.Message.Chat.ID, b.messages.T(lang, MsgLeaderboardNil))
		return
	}

	var sb strings.Builder
	sb.WriteString(b.messages.T(lang, MsgLeaderboard))
	for i, entry := range entries {
		sb.WriteString(b.messages.T(lang, MsgLeaderboardRow, i+1, entry.DisplayName, entry.Count))
	}

	b.sendMarkdown(update.Message.Chat.ID, sb.String())
}

func (b *Bot) handleLanguageCommand(ctx context.Context, update tgbotapi.Update) {
	lang := b.ledger.GetLanguage(ctx, update.Message.From.ID)
	text := b.messages.T(lang, MsgLanguageAsk)
	if _, err := b.tgService.SendWithInlineKeyboard(update.Message.Chat.ID, text, b.languageKeyboard()); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", update.Message.Chat.ID).Msg("Failed to send language keyboard")
	}
}

// notifyRewardUnlocked поздравляет реферера сразу после взведения награды.
func (b *Bot) notifyRewardUnlocked(payload events.ReferralEventPayload) {
	if b.metrics != nil {
		b.metrics.RewardsUnlocked.Inc()
	}

	lang := payload.Language
	text := b.messages.T(lang, MsgUnlocked, b.config.Telegram.GroupLink)
	b.sendMarkdown(payload.UserID, text)
}
