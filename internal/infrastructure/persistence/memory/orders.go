// Package memory provides in-process implementations of the storage ports.
// This is the default driver and mirrors the single-process scope: nothing
// survives a restart.
package memory

import (
	"context"
	"sync"

	"github.com/futbolero/checkout-service/internal/application"
	"github.com/futbolero/checkout-service/internal/domain"
)

type OrderStore struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders: make(map[string]*domain.Order),
	}
}

var _ application.OrderStore = (*OrderStore)(nil)

func (s *OrderStore) Put(ctx context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = order
	return nil
}

func (s *OrderStore) Get(ctx context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if order, ok := s.orders[id]; ok {
		return order, nil
	}
	return nil, domain.NewOrderNotFoundError(id)
}
