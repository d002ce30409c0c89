package application

import (
	"context"

	"github.com/futbolero/checkout-service/internal/domain"
)

// CheckoutSession is what the payment provider returns when a session is
// created: an opaque session id and the URL the customer is redirected to.
type CheckoutSession struct {
	ID  string
	URL string
}

// CheckoutSessionRequest is the provider-agnostic shape of a session request.
type CheckoutSessionRequest struct {
	OrderID       string
	AmountCents   int64
	CustomerEmail string
	ItemCount     int
	SuccessURL    string
	CancelURL     string
}

// CheckoutProvider is the port for the external payment provider.
type CheckoutProvider interface {
	CreateSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error)
}

// OrderStore is the port for pending-order persistence. Put is called once
// per order id before the provider session is requested; Get serves the
// webhook path's best-effort lookup.
type OrderStore interface {
	Put(ctx context.Context, order *domain.Order) error
	Get(ctx context.Context, id string) (*domain.Order, error)
}

// ProcessedEventStore tracks provider event ids that have already been
// dispatched. MarkProcessed is a single atomic test-and-set: it returns true
// exactly once per event id, no matter how many concurrent deliveries race.
type ProcessedEventStore interface {
	MarkProcessed(ctx context.Context, eventID string) (first bool, err error)
}

// Message is a rendered notification ready for delivery.
type Message struct {
	To      string
	Subject string
	Body    string
}

// NotificationSender delivers a rendered message. Failures on the webhook
// path are logged, never surfaced to the provider acknowledgment.
type NotificationSender interface {
	Send(ctx context.Context, msg Message) error
}
