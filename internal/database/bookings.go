package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tourbooking/internal/models"
)

const bookingColumns = `session_id, payment_intent_id, package_id, package_name,
	dual_spots, triple_spots, quad_spots,
	buyer_first_name, buyer_last_name, buyer_email, buyer_phone,
	participants, payment_status, payment_type, payment_method,
	total_amount, deposit_amount, processing_fee, remaining_amount,
	installment_dates, created_at, updated_at, charged_amount`

// SaveBooking inserts the booking keyed by its checkout session id.
// It reports false when a booking for that session already exists.
func (db *DB) SaveBooking(ctx context.Context, b *models.BookingRecord) (bool, error) {
	participants, err := json.Marshal(nonNil(b.Participants))
	if err != nil {
		return false, fmt.Errorf("failed to encode participants: %w", err)
	}
	dates, err := json.Marshal(nonNil(b.InstallmentDates))
	if err != nil {
		return false, fmt.Errorf("failed to encode installment dates: %w", err)
	}

	now := time.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now

	query := `INSERT OR IGNORE INTO bookings (` + bookingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		b.SessionID,
		nullString(b.PaymentIntentID),
		b.PackageID,
		b.PackageName,
		b.Spots.Dual,
		b.Spots.Triple,
		b.Spots.Quad,
		b.BuyerInfo.FirstName,
		b.BuyerInfo.LastName,
		b.BuyerInfo.Email,
		b.BuyerInfo.Phone,
		string(participants),
		b.PaymentStatus,
		b.PaymentType,
		string(b.PaymentMethod),
		b.TotalAmount,
		b.DepositAmount,
		b.ProcessingFee,
		b.RemainingAmount,
		string(dates),
		b.CreatedAt,
		b.UpdatedAt,
		b.ChargedAmount,
	)
	if err != nil {
		return false, fmt.Errorf("failed to save booking: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}

func (db *DB) GetBooking(ctx context.Context, sessionID string) (*models.BookingRecord, error) {
	row := db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE session_id = ?`, sessionID)
	return scanBooking(row)
}

// UpdatePaymentStatusByIntent sets the payment status of the booking paid through intentID
// and returns the updated record.
func (db *DB) UpdatePaymentStatusByIntent(ctx context.Context, intentID, status string) (*models.BookingRecord, error) {
	if intentID == "" {
		return nil, ErrBookingNotFound
	}

	result, err := db.ExecContext(ctx,
		`UPDATE bookings SET payment_status = ?, updated_at = ? WHERE payment_intent_id = ?`,
		status, time.Now(), intentID)
	if err != nil {
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, ErrBookingNotFound
	}

	row := db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE payment_intent_id = ?`, intentID)
	return scanBooking(row)
}

// ListBookings returns bookings newest first.
func (db *DB) ListBookings(ctx context.Context, limit int) ([]models.BookingRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.QueryContext(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var out []models.BookingRecord
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*models.BookingRecord, error) {
	var (
		b            models.BookingRecord
		intentID     sql.NullString
		method       string
		participants string
		dates        string
	)
	err := row.Scan(
		&b.SessionID, &intentID, &b.PackageID, &b.PackageName,
		&b.Spots.Dual, &b.Spots.Triple, &b.Spots.Quad,
		&b.BuyerInfo.FirstName, &b.BuyerInfo.LastName, &b.BuyerInfo.Email, &b.BuyerInfo.Phone,
		&participants, &b.PaymentStatus, &b.PaymentType, &method,
		&b.TotalAmount, &b.DepositAmount, &b.ProcessingFee, &b.RemainingAmount,
		&dates, &b.CreatedAt, &b.UpdatedAt, &b.ChargedAmount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan booking: %w", err)
	}

	b.PaymentIntentID = intentID.String
	b.PaymentMethod = models.PaymentMethod(method)
	if err := json.Unmarshal([]byte(participants), &b.Participants); err != nil {
		return nil, fmt.Errorf("failed to decode participants: %w", err)
	}
	if err := json.Unmarshal([]byte(dates), &b.InstallmentDates); err != nil {
		return nil, fmt.Errorf("failed to decode installment dates: %w", err)
	}
	return &b, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
