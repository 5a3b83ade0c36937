package models

const ParseModeMarkdown = "Markdown"

const (
	// DefaultDraftTTL время жизни черновика бронирования в Redis
	DefaultDraftTTL = 24 * 60 * 60 // 24 часа в секундах

	// WorkerQueueSize размер очереди воркера
	WorkerQueueSize = 128

	// DefaultRateLimitRPS запросов в секунду на клиента для публичных POST
	DefaultRateLimitRPS = 2

	// DefaultRateLimitBurst всплеск запросов на клиента
	DefaultRateLimitBurst = 5

	// MaxWebhookBodyBytes предел тела вебхука
	MaxWebhookBodyBytes = 64 << 10

	// MaxRequestBodyBytes предел тела JSON-запроса
	MaxRequestBodyBytes = 1 << 20
)
