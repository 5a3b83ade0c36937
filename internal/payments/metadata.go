package payments

import (
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"tourbooking/internal/models"
)

// Stripe rejects metadata values longer than this many characters.
const maxMetadataValue = 500

const installmentDateLayout = "2006-01-02"

// Metadata keys written on checkout sessions and their payment intents.
const (
	MetaPackageName        = "packageName"
	MetaPackageID          = "packageId"
	MetaDualSpots          = "dualSpots"
	MetaTripleSpots        = "tripleSpots"
	MetaQuadSpots          = "quadSpots"
	MetaTotalSpots         = "totalSpots"
	MetaParticipantCount   = "participantCount"
	MetaParticipantNames   = "participantNames"
	MetaBuyerName          = "buyerName"
	MetaBuyerEmail         = "buyerEmail"
	MetaBuyerPhone         = "buyerPhone"
	MetaInstallmentDates   = "installmentDates"
	MetaInstallmentAmounts = "installmentAmounts"
	MetaTotalAmount        = "totalAmount"
	MetaPackageTotal       = "packageTotal"
	MetaDepositAmount      = "depositAmount"
	MetaProcessingFee      = "processingFee"
	MetaRemainingAmount    = "remainingAmount"
	MetaPaymentType        = "paymentType"
	MetaPaymentMethod      = "paymentMethod"
)

// ErrNotBooking marks a completed session that was not created by the booking funnel.
var ErrNotBooking = errors.New("checkout session carries no booking metadata")

// BookingFacts is everything about a booking that travels with the checkout session.
// Amounts are cents.
type BookingFacts struct {
	PackageID          string
	PackageName        string
	Spots              models.Spots
	ParticipantNames   []string
	Buyer              models.BuyerInfo
	PaymentMethod      models.PaymentMethod
	ChargeTotal        int64
	PackageTotal       int64
	Deposit            int64
	ProcessingFee      int64
	Remaining          int64
	InstallmentDates   []time.Time
	InstallmentAmounts []int64
}

// Metadata flattens the facts to processor metadata strings.
func (f BookingFacts) Metadata() map[string]string {
	dates := make([]string, len(f.InstallmentDates))
	for i, d := range f.InstallmentDates {
		dates[i] = d.Format(installmentDateLayout)
	}
	amounts := make([]string, len(f.InstallmentAmounts))
	for i, a := range f.InstallmentAmounts {
		amounts[i] = strconv.FormatInt(a, 10)
	}

	md := map[string]string{
		MetaPackageName:        f.PackageName,
		MetaPackageID:          f.PackageID,
		MetaDualSpots:          strconv.Itoa(f.Spots.Dual),
		MetaTripleSpots:        strconv.Itoa(f.Spots.Triple),
		MetaQuadSpots:          strconv.Itoa(f.Spots.Quad),
		MetaTotalSpots:         strconv.Itoa(f.Spots.Total()),
		MetaParticipantCount:   strconv.Itoa(f.Spots.Total()),
		MetaParticipantNames:   strings.Join(f.ParticipantNames, ", "),
		MetaBuyerName:          f.Buyer.FullName(),
		MetaBuyerEmail:         f.Buyer.Email,
		MetaBuyerPhone:         f.Buyer.Phone,
		MetaInstallmentDates:   strings.Join(dates, ","),
		MetaInstallmentAmounts: strings.Join(amounts, ","),
		MetaTotalAmount:        strconv.FormatInt(f.ChargeTotal, 10),
		MetaPackageTotal:       strconv.FormatInt(f.PackageTotal, 10),
		MetaDepositAmount:      strconv.FormatInt(f.Deposit, 10),
		MetaProcessingFee:      strconv.FormatInt(f.ProcessingFee, 10),
		MetaRemainingAmount:    strconv.FormatInt(f.Remaining, 10),
		MetaPaymentType:        models.PaymentTypeDepositOnly,
		MetaPaymentMethod:      string(f.PaymentMethod),
	}
	for k, v := range md {
		md[k] = truncate(v, maxMetadataValue)
	}
	return md
}

// BookingFromMetadata rebuilds a booking record from checkout session metadata.
// Missing or malformed numbers read as zero.
func BookingFromMetadata(sessionID string, md map[string]string) (*models.BookingRecord, error) {
	if md[MetaPackageID] == "" && md[MetaPackageName] == "" {
		return nil, ErrNotBooking
	}

	first, last := splitName(md[MetaBuyerName])
	method := models.PaymentMethod(md[MetaPaymentMethod])
	if method == "" {
		method = models.PaymentCard
	}
	paymentType := md[MetaPaymentType]
	if paymentType == "" {
		paymentType = models.PaymentTypeDepositOnly
	}

	deposit := atoi64(md[MetaDepositAmount])
	fee := atoi64(md[MetaProcessingFee])
	remaining := atoi64(md[MetaRemainingAmount])

	// TotalAmount is always the package price; the charge lives in ChargedAmount.
	total := atoi64(md[MetaPackageTotal])
	if total == 0 {
		total = deposit + remaining
	}
	charged := atoi64(md[MetaTotalAmount])
	if charged == 0 {
		charged = deposit + fee
	}

	return &models.BookingRecord{
		SessionID:   sessionID,
		PackageID:   md[MetaPackageID],
		PackageName: md[MetaPackageName],
		Spots: models.Spots{
			Dual:   int(atoi64(md[MetaDualSpots])),
			Triple: int(atoi64(md[MetaTripleSpots])),
			Quad:   int(atoi64(md[MetaQuadSpots])),
		},
		BuyerInfo: models.BuyerInfo{
			FirstName: first,
			LastName:  last,
			Email:     md[MetaBuyerEmail],
			Phone:     md[MetaBuyerPhone],
		},
		Participants:     splitList(md[MetaParticipantNames], ", "),
		PaymentStatus:    models.PaymentStatusDepositPaid,
		PaymentType:      paymentType,
		PaymentMethod:    method,
		TotalAmount:      total,
		ChargedAmount:    charged,
		DepositAmount:    deposit,
		ProcessingFee:    fee,
		RemainingAmount:  remaining,
		InstallmentDates: splitList(md[MetaInstallmentDates], ","),
	}, nil
}

// splitName splits on the first space: the rest is the last name.
func splitName(full string) (string, string) {
	first, last, _ := strings.Cut(strings.TrimSpace(full), " ")
	return first, last
}

func splitList(s, sep string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, sep)
}

func atoi64(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// truncate keeps the first limit runes of s.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
