package pricing

import (
	"fmt"
	"time"

	"tourbooking/internal/config"
	"tourbooking/internal/models"
)

// InstallmentCount is the number of scheduled payments after the deposit.
const InstallmentCount = 3

// Schedule holds the fee and price constants; none of them come from user input.
type Schedule struct {
	RoomPrices       map[models.RoomCategory]Cents
	DepositPerPerson Cents
	CardFeeBPS       int64
	CardFixedFee     Cents
	ACHFeeBPS        int64
	ACHFeeCap        Cents
	Location         *time.Location
}

// DefaultSchedule mirrors the published room prices and processor fees.
func DefaultSchedule() Schedule {
	return Schedule{
		RoomPrices: map[models.RoomCategory]Cents{
			models.RoomDual:   Dollars(4200),
			models.RoomTriple: Dollars(3950),
			models.RoomQuad:   Dollars(3750),
		},
		DepositPerPerson: Dollars(750),
		CardFeeBPS:       290,
		CardFixedFee:     30,
		ACHFeeBPS:        80,
		ACHFeeCap:        500,
		Location:         time.UTC,
	}
}

// FromConfig builds a Schedule from the pricing section of the config.
func FromConfig(cfg config.PricingConfig) (Schedule, error) {
	s := DefaultSchedule()
	for cat, price := range cfg.RoomPrices {
		s.RoomPrices[models.RoomCategory(cat)] = Dollars(price)
	}
	if cfg.DepositPerPerson > 0 {
		s.DepositPerPerson = Dollars(cfg.DepositPerPerson)
	}
	if cfg.CardFeeBPS > 0 {
		s.CardFeeBPS = cfg.CardFeeBPS
	}
	if cfg.CardFixedFeeCents > 0 {
		s.CardFixedFee = Cents(cfg.CardFixedFeeCents)
	}
	if cfg.ACHFeeBPS > 0 {
		s.ACHFeeBPS = cfg.ACHFeeBPS
	}
	if cfg.ACHFeeCapCents > 0 {
		s.ACHFeeCap = Cents(cfg.ACHFeeCapCents)
	}
	if cfg.TimeZone != "" {
		loc, err := time.LoadLocation(cfg.TimeZone)
		if err != nil {
			return Schedule{}, fmt.Errorf("load time zone %q: %w", cfg.TimeZone, err)
		}
		s.Location = loc
	}
	return s, nil
}

// ForPackage returns a copy of s with the package's room price overrides applied.
func (s Schedule) ForPackage(pkg models.PackageOffering) Schedule {
	if len(pkg.RoomPrices) == 0 {
		return s
	}
	prices := make(map[models.RoomCategory]Cents, len(s.RoomPrices))
	for cat, price := range s.RoomPrices {
		prices[cat] = price
	}
	for cat, price := range pkg.RoomPrices {
		prices[cat] = Dollars(price)
	}
	s.RoomPrices = prices
	return s
}

// PackageTotal is the weighted sum of spots by per-spot room price.
func (s Schedule) PackageTotal(spots models.Spots) Cents {
	var total Cents
	for _, cat := range models.RoomCategories {
		total += Cents(spots.Count(cat)) * s.RoomPrices[cat]
	}
	return total
}

// Deposit is the fixed per-person deposit times the number of travelers.
func (s Schedule) Deposit(spots models.Spots) Cents {
	return Cents(spots.Total()) * s.DepositPerPerson
}

// ProcessingFee is the surcharge added to the deposit charge for the given method.
func (s Schedule) ProcessingFee(deposit Cents, method models.PaymentMethod) Cents {
	if method == models.PaymentBankTransfer {
		return min(roundHalfUp(deposit, s.ACHFeeBPS), s.ACHFeeCap)
	}
	return roundHalfUp(deposit, s.CardFeeBPS) + s.CardFixedFee
}

// Installments splits remaining into three payments; the last absorbs the rounding remainder.
func Installments(remaining Cents) [InstallmentCount]Cents {
	// round(remaining/3) to the nearest cent, half up
	part := (remaining + 1) / InstallmentCount
	if remaining < 0 {
		part = remaining / InstallmentCount
	}
	return [InstallmentCount]Cents{part, part, remaining - 2*part}
}

// InstallmentDueDates returns the three due dates for a booking made at now.
//
// Before December 1 the dates are Jan 1, Feb 1 and Mar 1 of next year. From December 1 on,
// they fall on the signup day of each of the next three months, clamped to the month's length.
func (s Schedule) InstallmentDueDates(now time.Time) [InstallmentCount]time.Time {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)
	nextYear := now.Year() + 1
	december := time.Date(now.Year(), time.December, 1, 0, 0, 0, 0, loc)

	var dates [InstallmentCount]time.Time
	for i := range dates {
		month := time.January + time.Month(i)
		day := 1
		if !now.Before(december) {
			day = min(now.Day(), daysIn(nextYear, month))
		}
		dates[i] = time.Date(nextYear, month, day, 0, 0, 0, 0, loc)
	}
	return dates
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
