package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"marifkon/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// handleAdminCommand обрабатывает команды организаторов. Возвращает true,
// если сообщение было административным и обработано.
func (b *Bot) handleAdminCommand(ctx context.Context, update tgbotapi.Update) bool {
	msg := update.Message
	userID := msg.From.ID
	chatID := msg.Chat.ID

	// Ожидание текста рассылки
	if !msg.IsCommand() {
		state := b.getUserState(ctx, userID)
		if state != nil && state.CurrentStep == models.StateBroadcastText {
			b.clearUserState(ctx, userID)
			b.runBroadcast(ctx, chatID, msg.Text)
			return true
		}
		return false
	}

	switch msg.Command() {
	case "stats":
		b.handleStats(ctx, chatID)
	case "broadcast":
		b.setUserState(ctx, userID, models.StateBroadcastText, nil)
		b.sendMessage(chatID, "Send the broadcast text as the next message, or /cancel.")
	case "cancel":
		b.clearUserState(ctx, userID)
		b.sendMessage(chatID, "Cancelled.")
	case "reset":
		b.handleReset(ctx, chatID, msg.CommandArguments())
	case "export":
		b.handleExport(ctx, chatID)
	case "sync":
		b.handleSync(ctx, chatID)
	default:
		return false
	}
	return true
}

func (b *Bot) handleStats(ctx context.Context, chatID int64) {
	total, rewarded, err := b.repo.CountUsers(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("Stats query failed")
		b.sendMessage(chatID, "Stats query failed: "+err.Error())
		return
	}

	entries, err := b.ledger.Leaderboard(ctx, 3)
	if err != nil {
		b.logger.Error().Err(err).Msg("Leaderboard query failed")
		entries = nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 *Marathon stats*\n\nUsers: *%d*\nUnlocked access: *%d*\n", total, rewarded)
	if len(entries) > 0 {
		sb.WriteString("\nTop inviters:\n")
		for i, e := range entries {
			fmt.Fprintf(&sb, "%d. %s — %d\n", i+1, e.DisplayName, e.Count)
		}
	}

	b.sendMarkdown(chatID, sb.String())
}

// runBroadcast рассылает текст всем пользователям. Каждый получатель
// независим: ошибка отправки логируется и пропускается.
func (b *Bot) runBroadcast(ctx context.Context, adminChatID int64, text string) {
	users, err := b.repo.GetAllUsers(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("Broadcast: load users failed")
		b.sendMessage(adminChatID, "Broadcast failed: "+err.Error())
		return
	}

	sent, failed := 0, 0
	for _, user := range users {
		if _, err := b.tgService.SendMessage(user.TelegramID, text); err != nil {
			failed++
			b.logger.Warn().Err(err).Int64("telegram_id", user.TelegramID).Msg("Broadcast: send failed")
			continue
		}
		sent++
	}

	b.sendMessage(adminChatID, fmt.Sprintf("Broadcast done: %d sent, %d failed.", sent, failed))
}

func (b *Bot) handleReset(ctx context.Context, chatID int64, args string) {
	targetID, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil || targetID <= 0 {
		b.sendMessage(chatID, "Usage: /reset <telegram_id>")
		return
	}

	if err := b.ledger.ResetReferrals(ctx, targetID); err != nil {
		b.logger.Error().Err(err).Int64("target_id", targetID).Msg("Reset failed")
		b.sendMessage(chatID, "Reset failed: "+err.Error())
		return
	}

	// Связи с приглашёнными не трогаются: при живом счёте выше порога
	// следующий пересчёт снова откроет доступ
	b.sendMessage(chatID, fmt.Sprintf(
		"Reward flag cleared for %d. Note: the user re-qualifies on the next refresh while their invite count stays at or above the threshold.", targetID))
}

func (b *Bot) handleExport(ctx context.Context, chatID int64) {
	filePath, err := b.exportToExcel(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("Export failed")
		b.sendMessage(chatID, "Export failed: "+err.Error())
		return
	}

	if _, err := b.tgService.SendDocument(chatID, filePath); err != nil {
		b.logger.Error().Err(err).Str("file_path", filePath).Msg("Failed to send export file")
		b.sendMessage(chatID, "Export file could not be sent: "+err.Error())
	}
}

func (b *Bot) handleSync(ctx context.Context, chatID int64) {
	if b.syncWorker == nil {
		b.sendMessage(chatID, "Google Sheets sync is not configured.")
		return
	}

	if err := b.syncWorker.EnqueueLedgerSync(ctx); err != nil {
		b.sendMessage(chatID, "Sync enqueue failed: "+err.Error())
		return
	}
	if err := b.syncWorker.EnqueueLeaderboardSync(ctx); err != nil {
		b.sendMessage(chatID, "Leaderboard sync enqueue failed: "+err.Error())
		return
	}

	b.sendMessage(chatID, "Sheets sync queued.")
}
