package service

import (
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"tourbooking/internal/domain"
	"tourbooking/internal/events"
	"tourbooking/internal/models"
	"tourbooking/internal/pricing"
)

// TelegramService sends operator alerts to a fixed set of chats.
type TelegramService struct {
	bot    domain.TelegramSender
	chats  []int64
	logger *zerolog.Logger
}

func NewTelegramService(bot domain.TelegramSender, chats []int64, logger *zerolog.Logger) *TelegramService {
	return &TelegramService{
		bot:    bot,
		chats:  chats,
		logger: logger,
	}
}

func (s *TelegramService) SendMessage(chatID int64, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	return s.bot.Send(msg)
}

func (s *TelegramService) SendMarkdown(chatID int64, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = models.ParseModeMarkdown
	msg.DisableWebPagePreview = true
	return s.bot.Send(msg)
}

func (s *TelegramService) NotifyBookingPaid(b *models.BookingRecord) error {
	var sb strings.Builder
	sb.WriteString("💳 *Deposit paid*\n\n")
	fmt.Fprintf(&sb, "*Package:* %s\n", esc(b.PackageName))
	fmt.Fprintf(&sb, "*Buyer:* %s (%s, %s)\n", esc(b.BuyerInfo.FullName()), esc(b.BuyerInfo.Email), esc(b.BuyerInfo.Phone))
	fmt.Fprintf(&sb, "*Spots:* %d dual, %d triple, %d quad\n", b.Spots.Dual, b.Spots.Triple, b.Spots.Quad)
	if len(b.Participants) > 0 {
		fmt.Fprintf(&sb, "*Travelers:* %s\n", esc(strings.Join(b.Participants, ", ")))
	}
	fmt.Fprintf(&sb, "*Deposit:* %s (+%s fee)\n", pricing.Cents(b.DepositAmount), pricing.Cents(b.ProcessingFee))
	fmt.Fprintf(&sb, "*Balance:* %s\n", pricing.Cents(b.RemainingAmount))
	if len(b.InstallmentDates) > 0 {
		fmt.Fprintf(&sb, "*Installments:* %s\n", esc(strings.Join(b.InstallmentDates, ", ")))
	}
	fmt.Fprintf(&sb, "\nSession: `%s`", b.SessionID)
	return s.broadcast(sb.String())
}

func (s *TelegramService) NotifyPaymentFailed(p *events.PaymentEventPayload) error {
	var sb strings.Builder
	sb.WriteString("⚠️ *Payment failed*\n\n")
	fmt.Fprintf(&sb, "*Amount:* %s\n", pricing.Cents(p.Amount))
	if p.FailureMessage != "" {
		fmt.Fprintf(&sb, "*Reason:* %s\n", esc(p.FailureMessage))
	}
	if p.Booking != nil {
		fmt.Fprintf(&sb, "*Buyer:* %s (%s)\n", esc(p.Booking.BuyerInfo.FullName()), esc(p.Booking.BuyerInfo.Email))
		fmt.Fprintf(&sb, "*Package:* %s\n", esc(p.Booking.PackageName))
	}
	fmt.Fprintf(&sb, "\nIntent: `%s`", p.PaymentIntentID)
	return s.broadcast(sb.String())
}

func (s *TelegramService) NotifyInquiry(inq *models.InquiryRecord) error {
	var sb strings.Builder
	sb.WriteString("📩 *New inquiry*\n\n")
	fmt.Fprintf(&sb, "*Package:* %s\n", esc(inq.Package.Name))
	fmt.Fprintf(&sb, "*From:* %s\n", esc(inq.Customer.FullName))
	fmt.Fprintf(&sb, "*Contact:* %s, %s (prefers %s)\n",
		esc(inq.Customer.Email), esc(inq.Customer.Phone), esc(inq.Travel.PreferredContactMethod))
	fmt.Fprintf(&sb, "*People:* %s\n", esc(inq.Travel.NumberOfPeople))
	fmt.Fprintf(&sb, "\n%s", esc(inq.Inquiry.Message))
	return s.broadcast(sb.String())
}

// broadcast sends text to every operator chat and joins the failures.
func (s *TelegramService) broadcast(text string) error {
	var errs []error
	for _, chatID := range s.chats {
		if _, err := s.SendMarkdown(chatID, text); err != nil {
			s.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send operator notification")
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}
	return errors.Join(errs...)
}

func esc(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}
