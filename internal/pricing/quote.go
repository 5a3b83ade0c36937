package pricing

import (
	"time"

	"tourbooking/internal/models"
)

// Installment is one scheduled balance payment.
type Installment struct {
	Amount  Cents     `json:"amount"`
	DueDate time.Time `json:"dueDate"`
}

// Quote is the full price breakdown for a selection of spots.
type Quote struct {
	Spots             models.Spots         `json:"spots"`
	Participants      int                  `json:"participants"`
	PaymentMethod     models.PaymentMethod `json:"paymentMethod"`
	TotalPackagePrice Cents                `json:"totalPackagePrice"`
	TotalDeposit      Cents                `json:"totalDeposit"`
	ProcessingFee     Cents                `json:"processingFee"`
	TotalDueToday     Cents                `json:"totalDueToday"`
	RemainingBalance  Cents                `json:"remainingBalance"`
	Installments      []Installment        `json:"installments"`
}

// Quote computes every amount the booking funnel displays or charges.
func (s Schedule) Quote(spots models.Spots, method models.PaymentMethod, now time.Time) Quote {
	total := s.PackageTotal(spots)
	deposit := s.Deposit(spots)
	fee := s.ProcessingFee(deposit, method)
	remaining := total - deposit

	amounts := Installments(remaining)
	dates := s.InstallmentDueDates(now)
	installments := make([]Installment, InstallmentCount)
	for i := range installments {
		installments[i] = Installment{Amount: amounts[i], DueDate: dates[i]}
	}

	return Quote{
		Spots:             spots,
		Participants:      spots.Total(),
		PaymentMethod:     method,
		TotalPackagePrice: total,
		TotalDeposit:      deposit,
		ProcessingFee:     fee,
		TotalDueToday:     deposit + fee,
		RemainingBalance:  remaining,
		Installments:      installments,
	}
}
