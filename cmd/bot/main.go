package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"marifkon/internal/api"
	"marifkon/internal/bot"
	"marifkon/internal/config"
	"marifkon/internal/database"
	"marifkon/internal/domain"
	"marifkon/internal/events"
	"marifkon/internal/google"
	"marifkon/internal/logging"
	"marifkon/internal/models"
	"marifkon/internal/repository"
	"marifkon/internal/service"
	"marifkon/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	yamlv2 "gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if err := prepareDirectories(cfg, logger); err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка инициализации базы данных")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, stateService := initStateService(ctx, cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	sheetsService := initGoogleSheets(ctx, cfg, logger)

	// Воркер зеркалирования реестра в Google Sheets поднимается только при
	// настроенных учетных данных
	var syncWorker domain.SyncWorker
	var sheetsWriter domain.SheetsWriter
	if sheetsService != nil {
		sheetsWriter = sheetsService
		retryPolicy := worker.RetryPolicy{MaxRetries: 5, InitialDelay: 2 * time.Second, MaxDelay: time.Minute, BackoffFactor: 2}
		w := worker.NewSyncWorker(db, db, sheetsService, redisClient, retryPolicy, logger)
		go w.Start(ctx)
		syncWorker = w
	}

	eventBus := events.NewEventBus()

	ledger := service.NewLedgerService(db, eventBus, syncWorker, int(cfg.Bot.ReferralThreshold), logger)
	metrics := bot.NewMetrics()
	catalog := loadMessageCatalog(cfg, logger)

	if cfg.API.Enabled {
		apiServer := api.NewHTTPServer(cfg.API, db, ledger, logger)
		go func() {
			if err := apiServer.Start(); err != nil {
				logger.Error().Err(err).Msg("API server error")
			}
		}()
		defer func() {
			_ = apiServer.Shutdown(context.Background())
		}()
	}

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, logger)
		go backupService.Start(ctx)
	}

	return startBot(ctx, cfg, ledger, db, stateService, sheetsWriter, syncWorker, eventBus, catalog, metrics, logger)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, err
	}
	logger := baseLogger.With().Str("component", "bot-main").Logger()

	return cfg, &logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if cfg == nil {
		return os.ErrInvalid
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для базы данных")
		return err
	}
	if cfg.Exports.Path != "" {
		if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
			logger.Error().Err(err).Msg("Ошибка создания директории для экспорта")
			return err
		}
	}
	return nil
}

func initStateService(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, *service.StateService) {
	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = repository.NewRedisClient(cfg.Redis)
		if errPing := repository.Ping(ctx, redisClient); errPing != nil {
			logger.Warn().Err(errPing).Msg("Redis unavailable")
		}
	}

	ttl := time.Duration(models.DefaultRedisTTL) * time.Second
	primaryRepo := repository.NewRedisStateRepository(redisClient, ttl)
	fallbackRepo := repository.NewMemoryStateRepository(ttl)
	stateRepo := repository.NewFailoverStateRepository(primaryRepo, fallbackRepo, logger)
	return redisClient, service.NewStateService(stateRepo, logger)
}

func initGoogleSheets(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *google.SheetsService {
	if cfg.Google.CredentialsFile == "" || cfg.Google.LedgerSpreadsheetID == "" {
		logger.Info().Msg("Google Sheets не настроен, зеркалирование реестра отключено")
		return nil
	}

	sheetsSvc, err := google.NewSheetsService(cfg.Google.CredentialsFile, cfg.Google.LedgerSpreadsheetID)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize Google Sheets service")
		return nil
	}

	if err := sheetsSvc.TestConnection(ctx); err != nil {
		logger.Error().Err(err).Msg("Google Sheets connection test failed")
		return nil
	}

	logger.Info().Msg("Google Sheets service initialized successfully")
	return sheetsSvc
}

// loadMessageCatalog накладывает тексты из messages.yaml на встроенные.
// Отсутствие файла не ошибка, бот работает на встроенных текстах.
func loadMessageCatalog(cfg *config.Config, logger *zerolog.Logger) *bot.Catalog {
	catalog := bot.DefaultCatalog()

	data, err := os.ReadFile(cfg.Bot.MessagesPath)
	if err != nil {
		logger.Info().Str("path", cfg.Bot.MessagesPath).Msg("messages.yaml не найден, используются встроенные тексты")
		return catalog
	}

	var overrides map[string]map[string]string
	if err := yamlv2.Unmarshal(data, &overrides); err != nil {
		logger.Error().Err(err).Str("path", cfg.Bot.MessagesPath).Msg("Ошибка парсинга messages.yaml")
		return catalog
	}

	catalog.ApplyOverrides(overrides)
	return catalog
}

func startBot(
	ctx context.Context,
	cfg *config.Config,
	ledger domain.Ledger,
	repo domain.Repository,
	stateService *service.StateService,
	sheetsWriter domain.SheetsWriter,
	syncWorker domain.SyncWorker,
	eventBus *events.EventBus,
	catalog *bot.Catalog,
	metrics *bot.Metrics,
	logger *zerolog.Logger,
) error {
	if cfg.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		logger.Error().Msg("Задайте токен бота в config.yaml")
		return os.ErrInvalid
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания BotAPI")
		return err
	}
	botAPI.Debug = cfg.Telegram.Debug

	botWrapper := bot.NewBotWrapper(botAPI)
	tgService := service.NewTelegramService(botWrapper)

	telegramBot, err := bot.NewBot(
		tgService, cfg, ledger, repo, stateService,
		sheetsWriter, syncWorker, eventBus, catalog, metrics, logger,
	)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания бота")
		return err
	}

	logger.Info().Msg("Бот запущен...")
	telegramBot.StartReminders(ctx)
	telegramBot.Start(ctx)

	logger.Info().Msg("Shutdown complete.")
	return nil
}
