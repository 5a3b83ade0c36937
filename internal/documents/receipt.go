package documents

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"

	"tourbooking/internal/models"
	"tourbooking/internal/pricing"
)

// WriteDepositReceipt renders a one-page PDF confirming the deposit for b.
func WriteDepositReceipt(w io.Writer, b *models.BookingRecord, issued time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Deposit Receipt", false)
	pdf.SetCreationDate(issued)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "DEPOSIT RECEIPT")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	line := func(label, value string) {
		pdf.Cell(0, 7, tr(fmt.Sprintf("%-18s %s", label+":", value)))
		pdf.Ln(7)
	}
	line("Reference", b.SessionID)
	line("Issued", issued.Format("2006-01-02 15:04"))
	line("Status", strings.ReplaceAll(b.PaymentStatus, "_", " "))
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Booked by")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	line("Name", safe(b.BuyerInfo.FullName()))
	line("Email", safe(b.BuyerInfo.Email))
	line("Phone", safe(b.BuyerInfo.Phone))
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, tr(safe(b.PackageName)))
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	line("Rooms", fmt.Sprintf("%d dual, %d triple, %d quad", b.Spots.Dual, b.Spots.Triple, b.Spots.Quad))
	if len(b.Participants) > 0 {
		pdf.MultiCell(0, 6, tr("Travelers: "+strings.Join(b.Participants, ", ")), "", "", false)
		pdf.Ln(2)
	}
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Payment")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	line("Package total", pricing.Cents(b.TotalAmount).String())
	line("Deposit", pricing.Cents(b.DepositAmount).String())
	line("Processing fee", pricing.Cents(b.ProcessingFee).String())
	pdf.SetFont("Helvetica", "B", 11)
	paid := b.ChargedAmount
	if paid == 0 {
		paid = b.DepositAmount + b.ProcessingFee
	}
	line("Paid today", pricing.Cents(paid).String())
	pdf.SetFont("Helvetica", "", 11)
	line("Balance", pricing.Cents(b.RemainingAmount).String())
	for i, date := range b.InstallmentDates {
		line("Installment "+strconv.Itoa(i+1), date)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, "Installment payment requests are sent separately before each due date.", "", "", false)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render receipt: %w", err)
	}
	return nil
}

func safe(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
