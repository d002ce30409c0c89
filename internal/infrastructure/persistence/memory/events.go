package memory

import (
	"context"
	"sync"

	"github.com/futbolero/checkout-service/internal/application"
)

// ProcessedEventStore is a mutex-guarded set of event ids. Entries are never
// evicted within the process lifetime.
type ProcessedEventStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewProcessedEventStore() *ProcessedEventStore {
	return &ProcessedEventStore{
		seen: make(map[string]struct{}),
	}
}

var _ application.ProcessedEventStore = (*ProcessedEventStore)(nil)

// MarkProcessed records eventID and reports whether this call was the first
// to do so. The check and the insert happen under one lock so concurrent
// deliveries of the same id cannot both observe "first".
func (s *ProcessedEventStore) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[eventID]; ok {
		return false, nil
	}
	s.seen[eventID] = struct{}{}
	return true, nil
}
