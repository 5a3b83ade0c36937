package models

import "time"

const (
	PaymentStatusDepositPaid   = "deposit_paid"
	PaymentStatusPaymentFailed = "payment_failed"
	PaymentTypeDepositOnly     = "deposit_only"
)

// BookingRecord is a paid booking reconstructed from checkout session metadata.
type BookingRecord struct {
	SessionID        string        `json:"sessionId"`
	PaymentIntentID  string        `json:"paymentIntentId,omitempty"`
	PackageID        string        `json:"packageId"`
	PackageName      string        `json:"packageName"`
	Spots            Spots         `json:"spots"`
	BuyerInfo        BuyerInfo     `json:"buyerInfo"`
	Participants     []string      `json:"participants"`
	PaymentStatus    string        `json:"paymentStatus"`
	PaymentType      string        `json:"paymentType"`
	PaymentMethod    PaymentMethod `json:"paymentMethod"`
	TotalAmount      int64         `json:"totalAmount"`
	ChargedAmount    int64         `json:"chargedAmount"`
	DepositAmount    int64         `json:"depositAmount"`
	ProcessingFee    int64         `json:"processingFee"`
	RemainingAmount  int64         `json:"remainingAmount"`
	InstallmentDates []string      `json:"installmentDates"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// CheckoutRequest is the body accepted by the checkout session endpoint.
type CheckoutRequest struct {
	PackageName      string        `json:"packageName"`
	PackageID        string        `json:"packageId"`
	Spots            Spots         `json:"spots"`
	BuyerInfo        BuyerInfo     `json:"buyerInfo"`
	Participants     []Participant `json:"participants"`
	TotalAmount      int64         `json:"totalAmount"`
	ParticipantCount int           `json:"participantCount"`
	PaymentMethod    PaymentMethod `json:"paymentMethod"`
}

// CheckoutResult is what the caller needs to redirect the buyer.
type CheckoutResult struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}
