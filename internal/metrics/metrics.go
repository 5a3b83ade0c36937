package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tourbooking"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status class.",
		},
		[]string{"route", "code"},
	)

	checkoutSessions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_sessions_total",
			Help:      "Checkout session attempts by payment method and outcome.",
		},
		[]string{"method", "outcome"},
	)

	webhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Processor webhook events by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	inquiriesStored = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inquiries_stored_total",
			Help:      "Inquiries written to the store.",
		},
	)

	sheetsTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sheets_tasks_total",
			Help:      "Spreadsheet sync task results by type.",
		},
		[]string{"type", "result"},
	)

	botCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bot_commands_total",
			Help:      "Operator bot commands by name and result.",
		},
		[]string{"command", "result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, checkoutSessions, webhookEvents, inquiriesStored, sheetsTasks, botCommands)
	})
}

// IncHTTP counts a finished request; code is the status class such as "2xx".
func IncHTTP(route, code string) {
	httpRequests.WithLabelValues(route, code).Inc()
}

func IncCheckout(method, outcome string) {
	checkoutSessions.WithLabelValues(method, outcome).Inc()
}

func IncWebhook(kind, outcome string) {
	webhookEvents.WithLabelValues(kind, outcome).Inc()
}

func IncInquiry() {
	inquiriesStored.Inc()
}

func IncSheetsTask(taskType, result string) {
	sheetsTasks.WithLabelValues(taskType, result).Inc()
}

func IncBotCommand(command, result string) {
	botCommands.WithLabelValues(command, result).Inc()
}
