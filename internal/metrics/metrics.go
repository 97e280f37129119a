package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marifkon",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	commands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marifkon",
			Name:      "bot_commands_total",
			Help:      "Bot commands by name.",
		},
		[]string{"command"},
	)

	registrations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "marifkon",
			Name:      "registrations_total",
			Help:      "New user registrations.",
		},
	)

	rewardsUnlocked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "marifkon",
			Name:      "rewards_unlocked_total",
			Help:      "Referral rewards unlocked.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, commands, registrations, rewardsUnlocked)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncCommand increments the counter for a bot command.
func IncCommand(command string) {
	commands.WithLabelValues(command).Inc()
}

// IncRegistration counts a new user registration.
func IncRegistration() {
	registrations.Inc()
}

// IncRewardUnlocked counts an unlocked referral reward.
func IncRewardUnlocked() {
	rewardsUnlocked.Inc()
}
