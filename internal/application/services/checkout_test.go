package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/futbolero/checkout-service/internal/application"
	"github.com/futbolero/checkout-service/internal/domain"
)

func newCheckoutFixture() (*CheckoutService, *MockOrderStore, *MockProvider) {
	orders := NewMockOrderStore()
	provider := &MockProvider{}
	service := NewCheckoutService(orders, provider, "http://localhost:3000", slog.New(slog.DiscardHandler))
	return service, orders, provider
}

func Test_CreateSession_Success(t *testing.T) {
	service, orders, provider := newCheckoutFixture()
	ctx := context.Background()

	result, err := service.CreateSession(ctx, CreateSessionCommand{
		Total:   49.9,
		Contact: domain.Contact{Email: "client@example.com"},
		Items: []domain.LineItem{
			{Name: "Maillot Ajax 1995", Quantity: 1, UnitPriceCents: 4990},
		},
	})

	require.NoError(t, err)
	assert.NotEmpty(t, result.SessionID)
	assert.NotEmpty(t, result.URL)
	assert.True(t, strings.HasPrefix(result.OrderID, "order_"))

	require.NotNil(t, provider.LastRequest)
	assert.Equal(t, int64(4990), provider.LastRequest.AmountCents)
	assert.Equal(t, "client@example.com", provider.LastRequest.CustomerEmail)
	assert.Equal(t, 1, provider.LastRequest.ItemCount)
	assert.Equal(t, "http://localhost:3000/payment-success.html", provider.LastRequest.SuccessURL)

	stored, err := orders.Get(ctx, result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, int64(4990), stored.TotalCents)
}

func Test_CreateSession_PersistsOrderBeforeProviderCall(t *testing.T) {
	service, _, provider := newCheckoutFixture()

	var sequence []string
	orders := NewMockOrderStore()
	orders.PutFn = func(ctx context.Context, order *domain.Order) error {
		sequence = append(sequence, "persist")
		return nil
	}
	provider.CreateSessionFn = func(ctx context.Context, req application.CheckoutSessionRequest) (*application.CheckoutSession, error) {
		sequence = append(sequence, "provider")
		return &application.CheckoutSession{ID: "cs_1", URL: "https://example.com"}, nil
	}
	service = NewCheckoutService(orders, provider, "http://localhost:3000", slog.New(slog.DiscardHandler))

	_, err := service.CreateSession(context.Background(), CreateSessionCommand{Total: 10})

	require.NoError(t, err)
	assert.Equal(t, []string{"persist", "provider"}, sequence)
}

func Test_CreateSession_InvalidTotals(t *testing.T) {
	service, orders, provider := newCheckoutFixture()

	for _, total := range []float64{-5, 0} {
		result, err := service.CreateSession(context.Background(), CreateSessionCommand{Total: total})

		require.Error(t, err, "total %v", total)
		assert.Nil(t, result)

		svcErr, ok := application.IsServiceError(err)
		require.True(t, ok)
		assert.Equal(t, application.ErrCodeInvalidInput, svcErr.Code)
		assert.Equal(t, "Invalid total", svcErr.Message)
	}

	// No side effect on rejection.
	assert.Nil(t, provider.LastRequest)
	assert.Empty(t, orders.orders)
}

func Test_CreateSession_ProviderFailure_OpaqueError(t *testing.T) {
	service, _, provider := newCheckoutFixture()
	provider.CreateSessionFn = func(ctx context.Context, req application.CheckoutSessionRequest) (*application.CheckoutSession, error) {
		return nil, errors.New("sk_live_leaked_key rejected upstream")
	}

	_, err := service.CreateSession(context.Background(), CreateSessionCommand{Total: 12.5})

	require.Error(t, err)
	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, application.ErrCodeDependency, svcErr.Code)
	assert.Equal(t, 500, svcErr.HTTPStatus)
	// The client-facing message must stay opaque.
	assert.Equal(t, "server_error", svcErr.Message)
}

func Test_CreateSession_StoreFailure(t *testing.T) {
	orders := NewMockOrderStore()
	orders.PutFn = func(ctx context.Context, order *domain.Order) error {
		return errors.New("disk full")
	}
	provider := &MockProvider{}
	service := NewCheckoutService(orders, provider, "http://localhost:3000", slog.New(slog.DiscardHandler))

	_, err := service.CreateSession(context.Background(), CreateSessionCommand{Total: 20})

	require.Error(t, err)
	// Provider must not be called when persistence fails.
	assert.Nil(t, provider.LastRequest)
}

func Test_CreateSession_OriginOverridesReturnBase(t *testing.T) {
	service, _, provider := newCheckoutFixture()

	_, err := service.CreateSession(context.Background(), CreateSessionCommand{
		Total:      10,
		ReturnBase: "https://futbolero.netlify.app",
	})

	require.NoError(t, err)
	assert.Equal(t, "https://futbolero.netlify.app/payment-success.html", provider.LastRequest.SuccessURL)
	assert.Equal(t, "https://futbolero.netlify.app/cart.html", provider.LastRequest.CancelURL)
}

func Test_CreateSession_RoundsToNearestCent(t *testing.T) {
	service, _, provider := newCheckoutFixture()

	_, err := service.CreateSession(context.Background(), CreateSessionCommand{Total: 49.999})

	require.NoError(t, err)
	assert.Equal(t, int64(5000), provider.LastRequest.AmountCents)
}
