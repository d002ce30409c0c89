package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/futbolero/checkout-service/internal/application"
)

type processedEventStore struct {
	db *DB
}

func NewProcessedEventStore(db *DB) application.ProcessedEventStore {
	return &processedEventStore{db: db}
}

// MarkProcessed inserts the event id and reports whether the row was new.
// The ON CONFLICT clause makes the test-and-set a single atomic statement,
// so concurrent deliveries across instances resolve to one winner.
func (s *processedEventStore) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	query := `
		INSERT INTO processed_events (event_id, received_at)
		VALUES ($1, $2)
		ON CONFLICT (event_id) DO NOTHING
	`

	tag, err := s.db.Pool.Exec(ctx, query, eventID, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to record processed event: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}
