package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"tourbooking/internal/database"
	"tourbooking/internal/documents"
	"tourbooking/internal/metrics"
	"tourbooking/internal/models"
	"tourbooking/internal/pricing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const (
	defaultListLimit = 10
	maxListLimit     = 50
)

const helpText = `Commands:
/bookings [n] - latest paid bookings
/booking <session id> - booking details and deposit receipt
/inquiries [n] - latest inquiries
/export - inquiries as an Excel workbook
/failed [n] - sheet sync tasks that gave up`

func (b *Bot) handleCommand(ctx context.Context, l *zerolog.Logger, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	command := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())

	var err error
	switch command {
	case "start", "help":
		b.reply(chatID, helpText)
	case "bookings":
		err = b.sendBookings(ctx, chatID, parseLimit(args))
	case "booking":
		err = b.sendBooking(ctx, chatID, args)
	case "inquiries":
		err = b.sendInquiries(ctx, chatID, parseLimit(args))
	case "export":
		err = b.sendExport(ctx, chatID)
	case "failed":
		err = b.sendFailedTasks(ctx, chatID, parseLimit(args))
	default:
		command = "unknown"
		b.reply(chatID, "Unknown command.\n\n"+helpText)
	}

	if err != nil {
		metrics.IncBotCommand(command, "error")
		l.Error().Err(err).Str("command", command).Msg("Command failed")
		b.reply(chatID, errorText(err))
		return
	}
	metrics.IncBotCommand(command, "ok")
}

func (b *Bot) sendBookings(ctx context.Context, chatID int64, limit int) error {
	list, err := b.bookings.ListBookings(ctx, limit)
	if err != nil {
		return fmt.Errorf("list bookings: %w", err)
	}
	if len(list) == 0 {
		b.reply(chatID, "No bookings yet.")
		return nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Latest %d bookings:\n", len(list))
	for i := range list {
		rec := &list[i]
		fmt.Fprintf(&sb, "\n%s | %s\n%s, %d spots, deposit %s, status %s\n%s\n",
			rec.CreatedAt.Format("2006-01-02"), rec.PackageName,
			rec.BuyerInfo.FullName(), rec.Spots.Total(), pricing.Cents(rec.DepositAmount), rec.PaymentStatus,
			rec.SessionID)
	}
	b.reply(chatID, sb.String())
	return nil
}

func (b *Bot) sendBooking(ctx context.Context, chatID int64, sessionID string) error {
	if sessionID == "" {
		b.reply(chatID, "Usage: /booking <session id>")
		return nil
	}

	rec, err := b.bookings.GetBooking(ctx, sessionID)
	if err != nil {
		return err
	}
	b.reply(chatID, bookingDetails(rec))

	var buf bytes.Buffer
	if err := documents.WriteDepositReceipt(&buf, rec, b.now()); err != nil {
		return fmt.Errorf("render receipt: %w", err)
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  "deposit-receipt-" + rec.SessionID + ".pdf",
		Bytes: buf.Bytes(),
	})
	if _, err := b.tg.Send(doc); err != nil {
		return fmt.Errorf("send receipt: %w", err)
	}
	return nil
}

func (b *Bot) sendInquiries(ctx context.Context, chatID int64, limit int) error {
	list, err := b.inquiries.List(ctx)
	if err != nil {
		return fmt.Errorf("list inquiries: %w", err)
	}
	if len(list) == 0 {
		b.reply(chatID, "No inquiries yet.")
		return nil
	}
	if len(list) > limit {
		list = list[:limit]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Latest %d inquiries:\n", len(list))
	for _, inq := range list {
		fmt.Fprintf(&sb, "\n%s | %s\n%s, %s, %s people\n%s\n",
			inq.Inquiry.SubmittedAt, inq.Package.Name,
			inq.Customer.FullName, inq.Customer.Email, inq.Travel.NumberOfPeople,
			inq.Inquiry.Message)
	}
	b.reply(chatID, sb.String())
	return nil
}

func (b *Bot) sendFailedTasks(ctx context.Context, chatID int64, limit int) error {
	tasks, err := b.syncTasks.GetFailedSyncTasks(ctx)
	if err != nil {
		return fmt.Errorf("list failed sync tasks: %w", err)
	}
	if len(tasks) == 0 {
		b.reply(chatID, "✅ No failed sync tasks.")
		return nil
	}
	total := len(tasks)
	if total > limit {
		tasks = tasks[:limit]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Failed sync tasks: %d\n", total)
	for _, t := range tasks {
		lastErr := ""
		if t.LastError != nil {
			lastErr = *t.LastError
		}
		fmt.Fprintf(&sb, "\n#%d %s %s (%d retries)\n%s\n", t.ID, t.TaskType, t.Reference, t.RetryCount, lastErr)
	}
	b.reply(chatID, sb.String())
	return nil
}

// sendExport writes the workbook under the exports path and uploads it.
func (b *Bot) sendExport(ctx context.Context, chatID int64) error {
	list, err := b.inquiries.List(ctx)
	if err != nil {
		return fmt.Errorf("list inquiries: %w", err)
	}

	if err := os.MkdirAll(b.exportDir, 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	path := filepath.Join(b.exportDir, fmt.Sprintf("inquiries_%s.xlsx", b.now().Format("2006-01-02_15-04-05")))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := documents.WriteInquiriesWorkbook(f, list); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = fmt.Sprintf("%d inquiries", len(list))
	if _, err := b.tg.Send(doc); err != nil {
		return fmt.Errorf("send export: %w", err)
	}
	return nil
}

func bookingDetails(rec *models.BookingRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", rec.PackageName)
	fmt.Fprintf(&sb, "Buyer: %s (%s, %s)\n", rec.BuyerInfo.FullName(), rec.BuyerInfo.Email, rec.BuyerInfo.Phone)
	fmt.Fprintf(&sb, "Spots: %d dual, %d triple, %d quad\n", rec.Spots.Dual, rec.Spots.Triple, rec.Spots.Quad)
	if len(rec.Participants) > 0 {
		fmt.Fprintf(&sb, "Travelers: %s\n", strings.Join(rec.Participants, ", "))
	}
	fmt.Fprintf(&sb, "Package total: %s\n", pricing.Cents(rec.TotalAmount))
	fmt.Fprintf(&sb, "Deposit: %s + %s fee\n", pricing.Cents(rec.DepositAmount), pricing.Cents(rec.ProcessingFee))
	fmt.Fprintf(&sb, "Balance: %s\n", pricing.Cents(rec.RemainingAmount))
	if len(rec.InstallmentDates) > 0 {
		fmt.Fprintf(&sb, "Installments due: %s\n", strings.Join(rec.InstallmentDates, ", "))
	}
	fmt.Fprintf(&sb, "Status: %s", rec.PaymentStatus)
	return sb.String()
}

func parseLimit(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultListLimit
	}
	if n > maxListLimit {
		return maxListLimit
	}
	return n
}

func errorText(err error) string {
	if errors.Is(err, database.ErrBookingNotFound) {
		return "Booking not found. The payment may still be processing."
	}
	return "❌ Something went wrong. Please try again later."
}
