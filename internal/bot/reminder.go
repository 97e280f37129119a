package bot

import (
	"context"
	"fmt"
	"time"
)

// StartReminders запускает ежедневную рассылку напоминаний пользователям,
// ещё не открывшим доступ.
func (b *Bot) StartReminders(ctx context.Context) {
	if b == nil || b.tgService == nil {
		return
	}

	go func() {
		hour := 9
		if b.config.Bot.ReminderTime != "" {
			var m int
			_, err := fmt.Sscanf(b.config.Bot.ReminderTime, "%d:%d", &hour, &m)
			if err != nil {
				b.logger.Error().Err(err).Str("reminder_time", b.config.Bot.ReminderTime).Msg("Invalid reminder time format")
				return
			}
		}

		// Ждем ближайшего часа рассылки, дальше тикаем раз в сутки
		wait := timeUntilNextHour(hour)
		timer := time.NewTimer(wait)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				b.runReminderSweep(ctx)
				timer.Reset(24 * time.Hour)
			}
		}
	}()
}

// runReminderSweep обходит пользователей без награды. Чекпоинт дня в Redis
// страхует от двойной рассылки при перезапуске; он best effort, повтор
// отдельных сообщений допустим.
func (b *Bot) runReminderSweep(ctx context.Context) {
	day := time.Now().Format("2006-01-02")
	first, err := b.stateService.MarkSweepDone(ctx, day)
	if err != nil {
		b.logger.Warn().Err(err).Str("day", day).Msg("reminder: sweep checkpoint unavailable, proceeding")
	} else if !first {
		b.logger.Info().Str("day", day).Msg("reminder: sweep already done today")
		return
	}

	users, err := b.repo.GetUnrewardedUsers(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("reminder: load users error")
		return
	}

	sent := 0
	for _, user := range users {
		// Пересчёт перед напоминанием заодно взводит награду тем, кто
		// успел набрать порог с прошлого визита
		status, err := b.ledger.RefreshStatus(ctx, user.TelegramID)
		if err != nil {
			b.logger.Warn().Err(err).Int64("telegram_id", user.TelegramID).Msg("reminder: refresh error")
			continue
		}
		if status.Rewarded {
			continue
		}

		lang := user.LanguageOrDefault()
		need := remaining(status.ReferralCount, b.config.Bot.ReferralThreshold)
		text := b.messages.T(lang, MsgReminder, need, b.referralLink(user.TelegramID))

		if _, err := b.tgService.SendMarkdown(user.TelegramID, text); err != nil {
			if b.metrics != nil {
				b.metrics.RemindersFailed.Inc()
			}
			b.logger.Warn().Err(err).Int64("telegram_id", user.TelegramID).Msg("reminder: send error")
			continue
		}
		if b.metrics != nil {
			b.metrics.RemindersSent.Inc()
		}
		sent++
	}

	b.logger.Info().Int("sent", sent).Int("candidates", len(users)).Msg("reminder: sweep finished")
}

func timeUntilNextHour(hour int) time.Duration {
	now := time.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}
