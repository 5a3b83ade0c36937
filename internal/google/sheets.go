package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"tourbooking/internal/models"
)

const (
	inquiriesRange  = "Inquiries!A:H"
	bookingsRange   = "Bookings!A:Q"
	sessionIDColumn = "Bookings!B:B"
	statusColumn    = "O"
)

// ErrRowNotFound is returned when no Bookings row carries the session id.
var ErrRowNotFound = errors.New("booking row not found")

var updatedRowPattern = regexp.MustCompile(`![A-Z]+(\d+)`)

// SheetsService appends inquiries and bookings to the operator spreadsheet.
type SheetsService struct {
	service       *sheets.Service
	spreadsheetID string
	rowCache      map[string]int
	cacheMu       sync.RWMutex
}

// NewSheetsService authenticates with a service-account JSON key file.
func NewSheetsService(ctx context.Context, credentialsFile, spreadsheetID string) (*SheetsService, error) {
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	jwtConfig, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}

	return NewSheetsServiceWithClient(srv, spreadsheetID), nil
}

func NewSheetsServiceWithClient(srv *sheets.Service, spreadsheetID string) *SheetsService {
	return &SheetsService{
		service:       srv,
		spreadsheetID: spreadsheetID,
		rowCache:      make(map[string]int),
	}
}

// TestConnection reads the header cell of the Bookings sheet.
func (s *SheetsService) TestConnection(ctx context.Context) error {
	if _, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, "Bookings!A1").Context(ctx).Do(); err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}

func (s *SheetsService) AppendInquiry(ctx context.Context, inq *models.InquiryRecord) error {
	if inq == nil {
		return errors.New("inquiry is nil")
	}
	_, err := s.appendRow(ctx, inquiriesRange, inquiryRowValues(inq))
	return err
}

// AppendBooking adds the booking row and remembers where it landed.
func (s *SheetsService) AppendBooking(ctx context.Context, b *models.BookingRecord) error {
	if b == nil {
		return errors.New("booking is nil")
	}
	resp, err := s.appendRow(ctx, bookingsRange, bookingRowValues(b))
	if err != nil {
		return err
	}
	if resp.Updates != nil {
		if row, ok := parseUpdatedRow(resp.Updates.UpdatedRange); ok {
			s.setCachedRow(b.SessionID, row)
		}
	}
	return nil
}

// UpdateBookingStatus rewrites the payment status cell of the session's row.
func (s *SheetsService) UpdateBookingStatus(ctx context.Context, sessionID, status string) error {
	row, err := s.FindBookingRow(ctx, sessionID)
	if err != nil {
		return err
	}

	cell := fmt.Sprintf("Bookings!%s%d", statusColumn, row)
	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, cell, &sheets.ValueRange{
		Values: [][]interface{}{{status}},
	}).ValueInputOption("RAW").Context(ctx).Do()
	return err
}

// FindBookingRow returns the 1-based row of sessionID in column B.
func (s *SheetsService) FindBookingRow(ctx context.Context, sessionID string) (int, error) {
	if sessionID == "" {
		return 0, errors.New("session id is required")
	}
	if row, ok := s.getCachedRow(sessionID); ok {
		return row, nil
	}
	if err := s.WarmUpCache(ctx); err != nil {
		return 0, err
	}
	if row, ok := s.getCachedRow(sessionID); ok {
		return row, nil
	}
	return 0, ErrRowNotFound
}

// WarmUpCache rebuilds the session id to row index from column B.
func (s *SheetsService) WarmUpCache(ctx context.Context) error {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, sessionIDColumn).Context(ctx).Do()
	if err != nil {
		return err
	}

	cache := make(map[string]int, len(resp.Values))
	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if id, ok := row[0].(string); ok && id != "" {
			cache[id] = i + 1
		}
	}

	s.cacheMu.Lock()
	s.rowCache = cache
	s.cacheMu.Unlock()
	return nil
}

func (s *SheetsService) appendRow(ctx context.Context, rng string, row []interface{}) (*sheets.AppendValuesResponse, error) {
	resp, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, rng, &sheets.ValueRange{
		Values: [][]interface{}{row},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("append to %s: %w", rng, err)
	}
	return resp, nil
}

func (s *SheetsService) getCachedRow(id string) (int, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	row, ok := s.rowCache[id]
	return row, ok
}

func (s *SheetsService) setCachedRow(id string, row int) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache[id] = row
}

func inquiryRowValues(inq *models.InquiryRecord) []interface{} {
	people, err := strconv.Atoi(strings.TrimSpace(inq.Travel.NumberOfPeople))
	var peopleCell interface{} = inq.Travel.NumberOfPeople
	if err == nil {
		peopleCell = people
	}
	return []interface{}{
		inq.Inquiry.SubmittedAt,
		inq.Customer.FullName,
		inq.Customer.Email,
		inq.Customer.Phone,
		peopleCell,
		inq.Package.Name,
		inq.Inquiry.Message,
		"website",
	}
}

func bookingRowValues(b *models.BookingRecord) []interface{} {
	return []interface{}{
		b.CreatedAt.Format(time.RFC3339),
		b.SessionID,
		b.PackageName,
		b.PackageID,
		b.Spots.Dual,
		b.Spots.Triple,
		b.Spots.Quad,
		b.BuyerInfo.FullName(),
		b.BuyerInfo.Email,
		b.BuyerInfo.Phone,
		strings.Join(b.Participants, ", "),
		major(b.TotalAmount),
		major(b.DepositAmount),
		major(b.RemainingAmount),
		b.PaymentStatus,
		b.PaymentType,
		strings.Join(b.InstallmentDates, ", "),
	}
}

func major(cents int64) float64 {
	return float64(cents) / 100
}

func parseUpdatedRow(updatedRange string) (int, bool) {
	m := updatedRowPattern.FindStringSubmatch(updatedRange)
	if len(m) != 2 {
		return 0, false
	}
	row, err := strconv.Atoi(m[1])
	return row, err == nil
}
