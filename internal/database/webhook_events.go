package database

import (
	"context"
	"fmt"
	"time"
)

// EventClaimLease is how long an unfinished claim blocks redeliveries. A claim
// older than this is assumed abandoned by a crashed handler.
const EventClaimLease = 5 * time.Minute

// ClaimEvent records eventID in the webhook ledger. It reports false when the
// event was already processed or is still held by a claim younger than
// EventClaimLease.
func (db *DB) ClaimEvent(ctx context.Context, eventID, eventType string) (bool, error) {
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx,
		`INSERT INTO webhook_events (event_id, event_type, received_at) VALUES (?, ?, ?)
		ON CONFLICT(event_id) DO UPDATE SET event_type = excluded.event_type, received_at = excluded.received_at
		WHERE webhook_events.processed_at IS NULL AND webhook_events.received_at < ?`,
		eventID, eventType, now, now.Add(-EventClaimLease))
	if err != nil {
		return false, fmt.Errorf("failed to claim webhook event: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}

// ReleaseEvent drops a claim so a redelivery of the event is processed again.
func (db *DB) ReleaseEvent(ctx context.Context, eventID string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM webhook_events WHERE event_id = ? AND processed_at IS NULL`, eventID); err != nil {
		return fmt.Errorf("failed to release webhook event: %w", err)
	}
	return nil
}

func (db *DB) CompleteEvent(ctx context.Context, eventID string) error {
	if _, err := db.ExecContext(ctx, `UPDATE webhook_events SET processed_at = ? WHERE event_id = ?`, time.Now().UTC(), eventID); err != nil {
		return fmt.Errorf("failed to complete webhook event: %w", err)
	}
	return nil
}
