package domain

import (
	"context"
	"errors"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tourbooking/internal/models"
)

// ErrDraftNotFound is returned for unknown or expired drafts.
var ErrDraftNotFound = errors.New("booking draft not found")

// DraftRepository keeps in-progress wizard drafts.
type DraftRepository interface {
	GetDraft(ctx context.Context, id string) (*models.BookingDraft, error)
	SaveDraft(ctx context.Context, draft *models.BookingDraft) error
	DeleteDraft(ctx context.Context, id string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// BookingStore persists bookings reconstructed from processor events.
type BookingStore interface {
	SaveBooking(ctx context.Context, b *models.BookingRecord) (bool, error)
	GetBooking(ctx context.Context, sessionID string) (*models.BookingRecord, error)
	UpdatePaymentStatusByIntent(ctx context.Context, intentID, status string) (*models.BookingRecord, error)
}

type InquiryStore interface {
	Save(ctx context.Context, inq *models.InquiryRecord) (string, error)
	List(ctx context.Context) ([]models.InquiryRecord, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type SyncWorker interface {
	EnqueueInquiry(ctx context.Context, inq *models.InquiryRecord) error
	EnqueueBooking(ctx context.Context, b *models.BookingRecord) error
	EnqueueStatus(ctx context.Context, sessionID, status string) error
}
