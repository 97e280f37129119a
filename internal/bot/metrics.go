package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics структура для метрик Prometheus
type Metrics struct {
	MessagesProcessed    prometheus.Counter
	CommandsProcessed    prometheus.Counter
	ErrorsTotal          prometheus.Counter
	UpdateProcessingTime prometheus.Histogram
	RegistrationsTotal   prometheus.Counter
	ReferralsRecorded    prometheus.Counter
	RewardsUnlocked      prometheus.Counter
	RemindersSent        prometheus.Counter
	RemindersFailed      prometheus.Counter
}

// NewMetrics создает новые метрики
func NewMetrics() *Metrics {
	return &Metrics{
		MessagesProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_messages_processed_total",
			Help: "Total number of processed messages",
		}),
		CommandsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_commands_processed_total",
			Help: "Total number of processed commands",
		}),
		ErrorsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_errors_total",
			Help: "Total number of handler errors and panics",
		}),
		UpdateProcessingTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "telegram_bot_update_processing_time_seconds",
			Help:    "Time spent processing updates",
			Buckets: prometheus.DefBuckets,
		}),
		RegistrationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_registrations_total",
			Help: "Total number of user registrations",
		}),
		ReferralsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_referrals_recorded_total",
			Help: "Total number of recorded referrals",
		}),
		RewardsUnlocked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_rewards_unlocked_total",
			Help: "Total number of unlocked rewards",
		}),
		RemindersSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_reminders_sent_total",
			Help: "Total number of reminder messages sent",
		}),
		RemindersFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_reminders_failed_total",
			Help: "Total number of reminder messages that failed to send",
		}),
	}
}
