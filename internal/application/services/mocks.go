package services

import (
	"context"
	"sync"

	"github.com/futbolero/checkout-service/internal/application"
	"github.com/futbolero/checkout-service/internal/domain"
)

// Hand-rolled mocks with per-call overrides, used by the service tests.

type MockOrderStore struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order

	PutFn func(ctx context.Context, order *domain.Order) error
	GetFn func(ctx context.Context, id string) (*domain.Order, error)

	GetCalls int
}

func NewMockOrderStore() *MockOrderStore {
	return &MockOrderStore{orders: make(map[string]*domain.Order)}
}

func (m *MockOrderStore) Put(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutFn != nil {
		return m.PutFn(ctx, order)
	}
	m.orders[order.ID] = order
	return nil
}

func (m *MockOrderStore) Get(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	m.GetCalls++
	m.mu.Unlock()

	if m.GetFn != nil {
		return m.GetFn(ctx, id)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if order, ok := m.orders[id]; ok {
		return order, nil
	}
	return nil, domain.NewOrderNotFoundError(id)
}

type MockEventStore struct {
	mu   sync.Mutex
	seen map[string]struct{}

	MarkProcessedFn func(ctx context.Context, eventID string) (bool, error)
}

func NewMockEventStore() *MockEventStore {
	return &MockEventStore{seen: make(map[string]struct{})}
}

func (m *MockEventStore) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	if m.MarkProcessedFn != nil {
		return m.MarkProcessedFn(ctx, eventID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.seen[eventID]; ok {
		return false, nil
	}
	m.seen[eventID] = struct{}{}
	return true, nil
}

type MockSender struct {
	mu       sync.Mutex
	messages []application.Message

	SendFn func(ctx context.Context, msg application.Message) error
}

func NewMockSender() *MockSender {
	return &MockSender{}
}

func (m *MockSender) Send(ctx context.Context, msg application.Message) error {
	if m.SendFn != nil {
		return m.SendFn(ctx, msg)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *MockSender) Messages() []application.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]application.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

type MockProvider struct {
	CreateSessionFn func(ctx context.Context, req application.CheckoutSessionRequest) (*application.CheckoutSession, error)

	LastRequest *application.CheckoutSessionRequest
}

func (m *MockProvider) CreateSession(ctx context.Context, req application.CheckoutSessionRequest) (*application.CheckoutSession, error) {
	m.LastRequest = &req
	if m.CreateSessionFn != nil {
		return m.CreateSessionFn(ctx, req)
	}
	return &application.CheckoutSession{
		ID:  "cs_test_" + req.OrderID,
		URL: "https://checkout.stripe.com/c/pay/cs_test_" + req.OrderID,
	}, nil
}
