package models

import "time"

// RoomCategory is the shared-room type a spot is reserved in.
type RoomCategory string

const (
	RoomDual   RoomCategory = "dual"
	RoomTriple RoomCategory = "triple"
	RoomQuad   RoomCategory = "quad"
)

// RoomCategories lists categories in display order.
var RoomCategories = []RoomCategory{RoomQuad, RoomTriple, RoomDual}

// Spots holds the number of reserved places per room category.
type Spots struct {
	Dual   int `json:"dual" yaml:"dual"`
	Triple int `json:"triple" yaml:"triple"`
	Quad   int `json:"quad" yaml:"quad"`
}

func (s Spots) Total() int {
	return s.Dual + s.Triple + s.Quad
}

// Count returns the spots reserved in category c.
func (s Spots) Count(c RoomCategory) int {
	switch c {
	case RoomDual:
		return s.Dual
	case RoomTriple:
		return s.Triple
	case RoomQuad:
		return s.Quad
	default:
		return 0
	}
}

// Valid reports whether no count is negative.
func (s Spots) Valid() bool {
	return s.Dual >= 0 && s.Triple >= 0 && s.Quad >= 0
}

// PaymentMethod selects how the deposit is processed.
type PaymentMethod string

const (
	PaymentCard         PaymentMethod = "stripe"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCard || m == PaymentBankTransfer
}

const (
	AnswerYes = "yes"
	AnswerNo  = "no"
)

// Participant is one traveler occupying one spot.
type Participant struct {
	FirstName           string `json:"firstName"`
	LastName            string `json:"lastName"`
	DateOfBirth         string `json:"dateOfBirth"`
	Phone               string `json:"phone"`
	Gender              string `json:"gender"`
	Nationality         string `json:"nationality"`
	HasPassport         string `json:"hasPassport"`
	PassportNationality string `json:"passportNationality"`
	WithGuardian        string `json:"withGuardian"`
	GuardianFirstName   string `json:"guardianFirstName"`
	GuardianLastName    string `json:"guardianLastName"`
}

func (p Participant) FullName() string {
	return joinName(p.FirstName, p.LastName)
}

// BuyerInfo is the purchaser's contact block; the buyer need not travel.
type BuyerInfo struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	ConfirmEmail string `json:"confirmEmail"`
	Phone        string `json:"phone"`
}

func (b BuyerInfo) FullName() string {
	return joinName(b.FirstName, b.LastName)
}

// Wizard steps.
const (
	StepParticipants = 1
	StepBuyerInfo    = 2
	StepPayment      = 3
	StepTerms        = 4
	StepCheckout     = 5
	StepSummary      = 6
)

// StepTitles are the labels shown for each wizard step.
var StepTitles = map[int]string{
	StepParticipants: "Package & Participants",
	StepBuyerInfo:    "Buyer Info",
	StepPayment:      "Payment Method",
	StepTerms:        "Terms & Contract",
	StepCheckout:     "Payment",
	StepSummary:      "Summary",
}

// BookingDraft is the accumulating wizard state for one booking attempt.
type BookingDraft struct {
	ID                string        `json:"id"`
	PackageID         string        `json:"packageId"`
	PackageName       string        `json:"packageName"`
	Spots             Spots         `json:"spots"`
	Participants      []Participant `json:"participants"`
	BuyerInfo         BuyerInfo     `json:"buyerInfo"`
	PaymentMethod     PaymentMethod `json:"paymentMethod"`
	TermsAccepted     bool          `json:"termsAccepted"`
	CurrentStep       int           `json:"currentStep"`
	CheckoutSessionID string        `json:"checkoutSessionId,omitempty"`
	CheckoutURL       string        `json:"checkoutUrl,omitempty"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
}

// NewBookingDraft returns a draft at step 1 with no spots and no participants.
func NewBookingDraft(id string, pkg PackageOffering, now time.Time) *BookingDraft {
	return &BookingDraft{
		ID:           id,
		PackageID:    pkg.ID,
		PackageName:  pkg.Name,
		Participants: []Participant{},
		CurrentStep:  StepParticipants,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}
