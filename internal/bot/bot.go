package bot

import (
	"context"
	"os"
	"time"

	"tourbooking/internal/config"
	"tourbooking/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TelegramService is the part of the Bot API the operator bot relies on.
type TelegramService interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

// BookingReader reads paid bookings recorded by the webhook.
type BookingReader interface {
	ListBookings(ctx context.Context, limit int) ([]models.BookingRecord, error)
	GetBooking(ctx context.Context, sessionID string) (*models.BookingRecord, error)
}

// InquiryReader lists stored inquiries, newest first.
type InquiryReader interface {
	List(ctx context.Context) ([]models.InquiryRecord, error)
}

// SyncTaskReader exposes sheet sync tasks that ran out of retries.
type SyncTaskReader interface {
	GetFailedSyncTasks(ctx context.Context) ([]models.SyncTask, error)
}

// Bot answers operator commands about bookings and inquiries. Only chats
// listed in telegram.operator_chats are served.
type Bot struct {
	tg        TelegramService
	operators map[int64]bool
	bookings  BookingReader
	inquiries InquiryReader
	syncTasks SyncTaskReader
	exportDir string
	logger    *zerolog.Logger
	now       func() time.Time
}

func NewBot(
	tg TelegramService,
	cfg *config.Config,
	bookings BookingReader,
	inquiries InquiryReader,
	syncTasks SyncTaskReader,
	logger *zerolog.Logger,
) *Bot {
	if logger == nil {
		l := zerolog.New(os.Stdout).With().Timestamp().Logger()
		logger = &l
	}

	operators := make(map[int64]bool, len(cfg.Telegram.OperatorChats))
	for _, id := range cfg.Telegram.OperatorChats {
		operators[id] = true
	}

	return &Bot{
		tg:        tg,
		operators: operators,
		bookings:  bookings,
		inquiries: inquiries,
		syncTasks: syncTasks,
		exportDir: cfg.Exports.Path,
		logger:    logger,
		now:       time.Now,
	}
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.tg.GetUpdatesChan(u)

	b.logger.Info().Str("username", b.tg.GetSelf().UserName).Msg("Authorized on account")

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

// Stop stops receiving Telegram updates (best-effort).
func (b *Bot) Stop() {
	if b == nil || b.tg == nil {
		return
	}
	b.tg.StopReceivingUpdates()
}

func (b *Bot) processUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || update.Message.Chat == nil {
		return
	}

	// каждому обновлению свой таймаут
	updateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	l := b.logger.With().
		Str("request_id", uuid.New().String()).
		Int64("chat_id", update.Message.Chat.ID).
		Logger()

	b.withRecovery(&l, func() {
		if !b.operators[update.Message.Chat.ID] {
			l.Warn().Msg("Update from unknown chat ignored")
			b.reply(update.Message.Chat.ID, "⛔ This bot is for tour operators only.")
			return
		}
		if !update.Message.IsCommand() {
			b.reply(update.Message.Chat.ID, helpText)
			return
		}
		b.handleCommand(updateCtx, &l, update.Message)
	})
}

func (b *Bot) withRecovery(l *zerolog.Logger, handler func()) {
	defer func() {
		if r := recover(); r != nil {
			l.Error().Interface("panic", r).Msg("Recovered from panic in update handler")
		}
	}()
	handler()
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.tg.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send reply")
	}
}
