package service

import (
	"context"
	"errors"

	"marifkon/internal/database"
	"marifkon/internal/domain"
	"marifkon/internal/events"
	"marifkon/internal/models"

	"github.com/rs/zerolog"
)

// LedgerService ведет учёт рефералов: регистрация, подсчёт приглашённых,
// выдача награды. Источник правды по счётчику — живой COUNT по referred_by.
type LedgerService struct {
	repo       domain.Repository
	eventBus   domain.EventPublisher
	syncWorker domain.SyncWorker
	threshold  int64
	logger     *zerolog.Logger
}

func NewLedgerService(repo domain.Repository, eventBus domain.EventPublisher, syncWorker domain.SyncWorker, threshold int, logger *zerolog.Logger) *LedgerService {
	if threshold <= 0 {
		threshold = models.ReferralThreshold
	}
	return &LedgerService{
		repo:       repo,
		eventBus:   eventBus,
		syncWorker: syncWorker,
		threshold:  int64(threshold),
		logger:     logger,
	}
}

// Threshold возвращает порог приглашений для награды.
func (s *LedgerService) Threshold() int64 {
	return s.threshold
}

// Register создает или обновляет пользователя. Самоприглашение понижается до
// регистрации без реферера. Повторный /start с другим реферером профиль
// обновляет, а referred_by не трогает.
func (s *LedgerService) Register(ctx context.Context, params domain.RegisterParams) error {
	referrerID := params.ReferrerID
	if referrerID == params.TelegramID {
		s.logger.Debug().Int64("user_id", params.TelegramID).Msg("self-referral dropped")
		referrerID = 0
	}

	user := &models.User{
		TelegramID: params.TelegramID,
		Username:   params.Username,
		FirstName:  params.FirstName,
		LastName:   params.LastName,
		Language:   params.Language,
	}
	if referrerID != 0 {
		user.ReferredBy.Int64 = referrerID
		user.ReferredBy.Valid = true
	}

	created, err := s.repo.UpsertUser(ctx, user)
	if err != nil {
		return err
	}

	if created {
		s.publishEvent(events.EventUserRegistered, events.ReferralEventPayload{
			UserID:      params.TelegramID,
			ReferrerID:  referrerID,
			DisplayName: user.DisplayName(),
			Language:    user.LanguageOrDefault(),
		})

		// Новый ребёнок у реферера: пересчитываем его статус и, возможно,
		// взводим награду.
		if referrerID != 0 {
			s.creditReferrer(ctx, referrerID)
		}
	}

	s.enqueueLedgerSync(ctx)
	return nil
}

// creditReferrer пересчитывает статус реферера после новой регистрации.
func (s *LedgerService) creditReferrer(ctx context.Context, referrerID int64) {
	status, err := s.RefreshStatus(ctx, referrerID)
	if err != nil {
		// Реферер мог ещё не зарегистрироваться сам; его счёт догонит
		// первый же RefreshStatus после регистрации.
		if !errors.Is(err, database.ErrUserNotFound) {
			s.logger.Error().Err(err).Int64("referrer_id", referrerID).Msg("failed to credit referrer")
		}
		return
	}

	s.publishEvent(events.EventReferralRecorded, events.ReferralEventPayload{
		UserID:        referrerID,
		ReferralCount: status.ReferralCount,
	})
}

// RefreshStatus пересчитывает живой счётчик приглашённых и при достижении
// порога атомарно взводит флаг награды. Флаг односторонний: однажды выданная
// награда не отзывается падением счётчика.
func (s *LedgerService) RefreshStatus(ctx context.Context, telegramID int64) (models.ReferralStatus, error) {
	user, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return models.ReferralStatus{}, err
	}

	count, err := s.repo.CountReferrals(ctx, telegramID)
	if err != nil {
		return models.ReferralStatus{}, err
	}

	rewarded := user.Rewarded
	if !rewarded && count >= s.threshold {
		latched, err := s.repo.LatchReward(ctx, telegramID)
		if err != nil {
			return models.ReferralStatus{}, err
		}
		rewarded = true
		if latched {
			s.logger.Info().Int64("user_id", telegramID).Int64("referrals", count).Msg("reward unlocked")
			s.publishEvent(events.EventRewardUnlocked, events.ReferralEventPayload{
				UserID:        telegramID,
				ReferralCount: count,
				DisplayName:   user.DisplayName(),
				Language:      user.LanguageOrDefault(),
			})
			s.enqueueLedgerSync(ctx)
		}
	}

	// Кэшированный счётчик только справочный, его потеря не критична
	if err := s.repo.UpdateCachedReferrals(ctx, telegramID, count); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", telegramID).Msg("failed to update cached referrals")
	}

	return models.ReferralStatus{ReferralCount: count, Rewarded: rewarded}, nil
}

// GetLanguage возвращает язык пользователя; для незнакомого пользователя или
// при ошибке чтения — язык по умолчанию. Ошибок не возвращает: выбор текста
// сообщения не должен падать.
func (s *LedgerService) GetLanguage(ctx context.Context, telegramID int64) string {
	user, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if !errors.Is(err, database.ErrUserNotFound) {
			s.logger.Warn().Err(err).Int64("user_id", telegramID).Msg("failed to read language")
		}
		return models.DefaultLanguage
	}
	return user.LanguageOrDefault()
}

func (s *LedgerService) SetLanguage(ctx context.Context, telegramID int64, language string) error {
	if !models.KnownLanguage(language) {
		language = models.DefaultLanguage
	}
	return s.repo.SetLanguage(ctx, telegramID, language)
}

// ResetReferrals снимает флаг награды (ручной сброс администратором). Связи
// referred_by не трогаются, поэтому следующий пересчёт при счёте выше порога
// взведёт флаг заново.
func (s *LedgerService) ResetReferrals(ctx context.Context, telegramID int64) error {
	if err := s.repo.ResetReward(ctx, telegramID); err != nil {
		return err
	}

	s.publishEvent(events.EventRewardReset, events.ReferralEventPayload{UserID: telegramID})
	s.enqueueLedgerSync(ctx)
	return nil
}

func (s *LedgerService) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = models.DefaultLeaderboardSize
	}
	return s.repo.Leaderboard(ctx, limit)
}

func (s *LedgerService) publishEvent(eventType string, payload events.ReferralEventPayload) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("user_id", payload.UserID).Msg("publish event error")
	}
}

func (s *LedgerService) enqueueLedgerSync(ctx context.Context) {
	if s.syncWorker == nil {
		return
	}
	if err := s.syncWorker.EnqueueLedgerSync(ctx); err != nil {
		s.logger.Error().Err(err).Msg("ledger sync enqueue error")
	}
}
