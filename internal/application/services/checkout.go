package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/futbolero/checkout-service/internal/application"
	"github.com/futbolero/checkout-service/internal/domain"
)

// CheckoutService validates a cart total, persists the pending order and
// requests a hosted checkout session from the provider. The order is
// persisted BEFORE the provider call so a webhook arriving right after
// payment confirmation always finds the record.
type CheckoutService struct {
	orders     application.OrderStore
	provider   application.CheckoutProvider
	returnBase string
	logger     *slog.Logger
}

func NewCheckoutService(
	orders application.OrderStore,
	provider application.CheckoutProvider,
	returnBase string,
	logger *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		orders:     orders,
		provider:   provider,
		returnBase: returnBase,
		logger:     logger,
	}
}

type CreateSessionCommand struct {
	Total   float64
	Contact domain.Contact
	Items   []domain.LineItem

	// ReturnBase overrides the configured redirect base, taken from the
	// request Origin header when present.
	ReturnBase string
}

type CreateSessionResult struct {
	SessionID string
	URL       string
	OrderID   string
}

func (s *CheckoutService) CreateSession(ctx context.Context, cmd CreateSessionCommand) (*CreateSessionResult, error) {
	cents, err := domain.ToCents(cmd.Total)
	if err != nil {
		return nil, application.NewValidationError("Invalid total")
	}

	orderID := fmt.Sprintf("order_%d", time.Now().UnixMilli())

	order, err := domain.NewOrder(orderID, cents, cmd.Items, cmd.Contact)
	if err != nil {
		return nil, application.NewValidationError("Invalid total")
	}

	if err := s.orders.Put(ctx, order); err != nil {
		s.logger.Error("failed to persist pending order", "order_id", orderID, "error", err)
		return nil, application.NewDependencyError(err)
	}

	base := cmd.ReturnBase
	if base == "" {
		base = s.returnBase
	}

	session, err := s.provider.CreateSession(ctx, application.CheckoutSessionRequest{
		OrderID:       orderID,
		AmountCents:   cents,
		CustomerEmail: cmd.Contact.Email,
		ItemCount:     len(cmd.Items),
		SuccessURL:    base + "/payment-success.html",
		CancelURL:     base + "/cart.html",
	})
	if err != nil {
		s.logger.Error("provider session creation failed", "order_id", orderID, "error", err)
		return nil, application.NewDependencyError(err)
	}

	return &CreateSessionResult{
		SessionID: session.ID,
		URL:       session.URL,
		OrderID:   orderID,
	}, nil
}
