package models

const (
	// ReferralThreshold количество приглашённых для открытия доступа
	ReferralThreshold = 3

	// DefaultRedisTTL время жизни состояния пользователя в Redis
	DefaultRedisTTL = 24 * 60 * 60 // 24 часа в секундах

	// ReminderHour час, в который отправляется ежедневная рассылка
	ReminderHour = 9

	// WorkerQueueSize размер in-memory очереди воркера синхронизации
	WorkerQueueSize = 128

	// RateLimitMessages количество сообщений в окне
	RateLimitMessages = 20

	// RateLimitWindow окно ограничения частоты сообщений
	RateLimitWindow = 60 // 1 минута в секундах

	// DefaultLeaderboardSize сколько строк рейтинга показывать по умолчанию
	DefaultLeaderboardSize = 10
)

const (
	ParseModeMarkdown = "Markdown"
	ParseModeHTML     = "HTML"
)

const (
	StateChoosingLanguage = "choosing_language"
	StateAwaitingJoin     = "awaiting_join"
	StateMainMenu         = "main_menu"
	StateBroadcastText    = "broadcast_text"
)
