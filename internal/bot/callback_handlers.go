package bot

import (
	"context"
	"strings"

	"marifkon/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleCallbackQuery(ctx context.Context, update tgbotapi.Update) {
	callback := update.CallbackQuery
	data := callback.Data
	userID := callback.From.ID

	switch {
	case strings.HasPrefix(data, "lang:"):
		b.handleLanguageSelected(ctx, update, strings.TrimPrefix(data, "lang:"))

	case data == "join_check":
		b.handleJoinCheck(ctx, update)

	default:
		// Неизвестный callback: снимаем "часики" и больше ничего
		if err := b.tgService.AnswerCallback(callback.ID, ""); err != nil {
			b.logger.Debug().Err(err).Int64("user_id", userID).Msg("AnswerCallback failed")
		}
	}
}

func (b *Bot) handleLanguageSelected(ctx context.Context, update tgbotapi.Update, lang string) {
	callback := update.CallbackQuery
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID

	if !models.KnownLanguage(lang) {
		lang = models.DefaultLanguage
	}

	if err := b.ledger.SetLanguage(ctx, userID, lang); err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("SetLanguage failed")
	}

	if err := b.tgService.AnswerCallback(callback.ID, b.messages.T(lang, MsgLanguageSet)); err != nil {
		b.logger.Debug().Err(err).Int64("user_id", userID).Msg("AnswerCallback failed")
	}

	// Если пользователь ещё стоит перед воротами канала, повторяем
	// приглашение уже на выбранном языке; иначе показываем статус
	state := b.getUserState(ctx, userID)
	if state != nil && state.CurrentStep == models.StateAwaitingJoin {
		text := b.messages.T(lang, MsgJoinPrompt, b.config.Telegram.ChannelUsername)
		if _, err := b.tgService.SendWithInlineKeyboard(chatID, text, b.joinKeyboard(lang)); err != nil {
			b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send join prompt")
		}
		return
	}

	b.sendStatus(ctx, chatID, userID, lang, false)
}

// handleJoinCheck перепроверяет подписку по кнопке "я подписался".
func (b *Bot) handleJoinCheck(ctx context.Context, update tgbotapi.Update) {
	callback := update.CallbackQuery
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID
	lang := b.ledger.GetLanguage(ctx, userID)

	if !b.isSubscribed(userID) {
		if err := b.tgService.AnswerCallback(callback.ID, b.messages.T(lang, MsgJoinNotYet)); err != nil {
			b.logger.Debug().Err(err).Int64("user_id", userID).Msg("AnswerCallback failed")
		}
		return
	}

	if err := b.tgService.AnswerCallback(callback.ID, ""); err != nil {
		b.logger.Debug().Err(err).Int64("user_id", userID).Msg("AnswerCallback failed")
	}

	var referrerID int64
	if state := b.getUserState(ctx, userID); state != nil {
		referrerID = state.GetInt64("referrer_id")
	}

	b.completeRegistration(ctx, chatID, callback.From, referrerID, lang)
}
