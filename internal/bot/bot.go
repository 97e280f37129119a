package bot

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"marifkon/internal/config"
	"marifkon/internal/domain"
	"marifkon/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Bot struct {
	tgService     domain.TelegramService
	config        *config.Config
	ledger        domain.Ledger
	repo          domain.Repository
	stateService  domain.StateManager
	sheetsService domain.SheetsWriter
	syncWorker    domain.SyncWorker
	eventBus      *events.EventBus
	messages      *Catalog
	metrics       *Metrics
	logger        *zerolog.Logger
}

func NewBot(
	tgService domain.TelegramService,
	cfg *config.Config,
	ledger domain.Ledger,
	repo domain.Repository,
	stateService domain.StateManager,
	sheetsService domain.SheetsWriter,
	syncWorker domain.SyncWorker,
	eventBus *events.EventBus,
	messages *Catalog,
	metrics *Metrics,
	logger *zerolog.Logger,
) (*Bot, error) {
	if eventBus == nil {
		eventBus = events.NewEventBus()
	}

	if logger == nil {
		l := zerolog.New(os.Stdout).With().Timestamp().Logger()
		logger = &l
	}

	if messages == nil {
		messages = DefaultCatalog()
	}

	b := &Bot{
		tgService:     tgService,
		config:        cfg,
		ledger:        ledger,
		repo:          repo,
		stateService:  stateService,
		sheetsService: sheetsService,
		syncWorker:    syncWorker,
		eventBus:      eventBus,
		messages:      messages,
		metrics:       metrics,
		logger:        logger,
	}

	b.subscribeEvents()
	return b, nil
}

// subscribeEvents вешает обработчик на событие открытия награды: поздравление
// уходит сразу, не дожидаясь следующего /start реферера.
func (b *Bot) subscribeEvents() {
	b.eventBus.Subscribe(events.EventRewardUnlocked, func(event *events.Event) error {
		var payload events.ReferralEventPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return err
		}
		b.notifyRewardUnlocked(payload)
		return nil
	})
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.tgService.GetUpdatesChan(u)

	b.logger.Info().Str("username", b.tgService.GetSelf().UserName).Msg("Authorized on account")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Bot stopping...")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.processUpdate(ctx, update)
		}
	}
}

func (b *Bot) processUpdate(ctx context.Context, update tgbotapi.Update) {
	start := time.Now()
	defer func() {
		if b.metrics != nil {
			b.metrics.UpdateProcessingTime.Observe(time.Since(start).Seconds())
		}
	}()

	// Контекст на обработку одного обновления
	updateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	requestID := uuid.New().String()
	l := b.logger.With().Str("request_id", requestID).Logger()
	updateCtx = l.WithContext(updateCtx)

	b.withRecovery(func() {
		var userID int64
		if update.Message != nil {
			userID = update.Message.From.ID
		} else if update.CallbackQuery != nil {
			userID = update.CallbackQuery.From.ID
		}

		if userID == 0 {
			return
		}

		b.trackActivity(userID)

		if !b.isAdmin(userID) {
			allowed, err := b.stateService.CheckRateLimit(updateCtx, userID, b.config.Bot.RateLimitMessages, time.Duration(b.config.Bot.RateLimitWindow)*time.Second)
			if err != nil {
				b.logger.Error().Err(err).Int64("user_id", userID).Msg("Rate limit check failed")
			} else if !allowed {
				b.logger.Warn().Int64("user_id", userID).Msg("Rate limit exceeded")
				if update.Message != nil {
					lang := b.ledger.GetLanguage(updateCtx, userID)
					b.sendMessage(update.Message.Chat.ID, b.messages.T(lang, MsgRateLimited))
				}
				return
			}
		}

		if update.CallbackQuery != nil {
			b.handleCallbackQuery(updateCtx, update)
			return
		}

		if update.Message == nil {
			return
		}

		b.handleMessage(updateCtx, update)
	})
}

func (b *Bot) isAdmin(userID int64) bool {
	return b.config.IsAdmin(userID)
}
