package bot

import (
	"context"
	"fmt"
	"strings"

	"marifkon/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.tgService.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

func (b *Bot) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = models.ParseModeMarkdown
	if _, err := b.tgService.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

// referralLink строит персональную ссылку https://t.me/<bot>?start=<id>.
func (b *Bot) referralLink(userID int64) string {
	return fmt.Sprintf("https://t.me/%s?start=%d", b.tgService.GetSelf().UserName, userID)
}

// channelLink превращает @username канала в кликабельную ссылку.
func (b *Bot) channelLink() string {
	username := strings.TrimPrefix(b.config.Telegram.ChannelUsername, "@")
	return "https://t.me/" + username
}

// isSubscribed проверяет членство в канале. Ошибка API трактуется как
// отсутствие подписки, как в исходном боте.
func (b *Bot) isSubscribed(userID int64) bool {
	member, err := b.tgService.GetChatMember(b.config.Telegram.ChannelUsername, userID)
	if err != nil {
		b.logger.Debug().Err(err).Int64("user_id", userID).Msg("GetChatMember failed")
		return false
	}
	switch member.Status {
	case "member", "administrator", "creator":
		return true
	default:
		return false
	}
}

func (b *Bot) getUserState(ctx context.Context, userID int64) *models.UserState {
	state, err := b.stateService.GetUserState(ctx, userID)
	if err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to get user state")
		return nil
	}
	return state
}

func (b *Bot) setUserState(ctx context.Context, userID int64, step string, data map[string]interface{}) {
	if err := b.stateService.SetUserState(ctx, userID, step, data); err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to set user state")
	}
}

func (b *Bot) clearUserState(ctx context.Context, userID int64) {
	if err := b.stateService.ClearUserState(ctx, userID); err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to clear user state")
	}
}

// remaining считает, сколько приглашений осталось до порога.
func remaining(count, threshold int64) int64 {
	if count >= threshold {
		return 0
	}
	return threshold - count
}

func (b *Bot) languageKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🇺🇿 O'zbekcha", "lang:uz"),
			tgbotapi.NewInlineKeyboardButtonData("🇬🇧 English", "lang:en"),
		),
	)
}

func (b *Bot) joinKeyboard(lang string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(b.messages.T(lang, MsgBtnChannel), b.channelLink()),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(b.messages.T(lang, MsgBtnJoined), "join_check"),
		),
	)
}
