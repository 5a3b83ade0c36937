package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"tourbooking/internal/database"
	"tourbooking/internal/inquiries"
	"tourbooking/internal/worker"

	"github.com/rs/zerolog"
)

// Queues every stored booking and inquiry for the spreadsheet sync. The
// running API's sheets worker picks the tasks up from sync_queue.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		dbPath       = flag.String("db", "./data/tourbooking.db", "path to sqlite db")
		inquiriesDir = flag.String("inquiries", "./data/inquiries", "inquiry JSON directory")
		limit        = flag.Int("limit", 1000, "max bookings to queue")
		dryRun       = flag.Bool("dry-run", false, "count records without queueing")
	)
	flag.Parse()

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	bookings, err := db.ListBookings(ctx, *limit)
	if err != nil {
		return fmt.Errorf("list bookings: %w", err)
	}
	inqs, err := inquiries.NewFileStore(*inquiriesDir, &logger).List(ctx)
	if err != nil {
		return fmt.Errorf("list inquiries: %w", err)
	}

	if *dryRun {
		fmt.Printf("would queue: bookings=%d inquiries=%d\n", len(bookings), len(inqs))
		return nil
	}

	// sheets client не нужен: задачи только ставятся в очередь
	queue := worker.NewSheetsWorker(db, nil, nil, worker.RetryPolicy{}, &logger)

	queued := 0
	for i := range bookings {
		if err := queue.EnqueueBooking(ctx, &bookings[i]); err != nil {
			return fmt.Errorf("queue booking %s: %w", bookings[i].SessionID, err)
		}
		queued++
	}
	for i := range inqs {
		if err := queue.EnqueueInquiry(ctx, &inqs[i]); err != nil {
			return fmt.Errorf("queue inquiry %s: %w", inqs[i].ID, err)
		}
		queued++
	}

	fmt.Printf("done: bookings=%d inquiries=%d queued=%d\n", len(bookings), len(inqs), queued)
	return nil
}
