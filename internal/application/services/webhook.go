package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"

	"github.com/futbolero/checkout-service/internal/application"
	"github.com/futbolero/checkout-service/internal/domain"
	"github.com/futbolero/checkout-service/internal/infrastructure/webhook"
)

const eventCheckoutCompleted = "checkout.session.completed"

// Ack is the acknowledgment body returned to the provider. Its only purpose
// is to confirm receipt; it says nothing about side-effect completion.
type Ack struct {
	Received   bool `json:"received"`
	Idempotent bool `json:"idempotent,omitempty"`
}

// EventHandler processes one verified, deduplicated event. Handlers run
// detached from the request; their failures are logged, never surfaced.
type EventHandler func(ctx context.Context, evt *stripe.Event)

// WebhookService owns the ingestion pipeline: verify the signature over the
// raw bytes, deduplicate by event id, then dispatch the handler for the event
// type without blocking the acknowledgment.
type WebhookService struct {
	verifier  *webhook.Verifier
	events    application.ProcessedEventStore
	orders    application.OrderStore
	sender    application.NotificationSender
	shopEmail string
	logger    *slog.Logger

	handlers        map[string]EventHandler
	dispatchTimeout time.Duration
}

func NewWebhookService(
	verifier *webhook.Verifier,
	events application.ProcessedEventStore,
	orders application.OrderStore,
	sender application.NotificationSender,
	shopEmail string,
	logger *slog.Logger,
) *WebhookService {
	s := &WebhookService{
		verifier:        verifier,
		events:          events,
		orders:          orders,
		sender:          sender,
		shopEmail:       shopEmail,
		logger:          logger,
		handlers:        make(map[string]EventHandler),
		dispatchTimeout: 30 * time.Second,
	}

	s.handlers[eventCheckoutCompleted] = s.handleCheckoutCompleted

	return s
}

// HandleEvent runs the full pipeline for one delivery. rawBody must be the
// request payload exactly as received from the network; any re-serialization
// breaks signature verification.
func (s *WebhookService) HandleEvent(ctx context.Context, rawBody []byte, sigHeader string) (Ack, error) {
	if err := s.verifier.Verify(rawBody, sigHeader); err != nil {
		s.logger.Warn("webhook signature rejected", "error", err)
		return Ack{}, application.NewSignatureInvalidError(err)
	}

	var evt stripe.Event
	if err := json.Unmarshal(rawBody, &evt); err != nil {
		return Ack{}, application.NewValidationError("unparsable event payload")
	}
	if evt.ID == "" {
		return Ack{}, application.NewValidationError("event id missing")
	}

	first, err := s.events.MarkProcessed(ctx, evt.ID)
	if err != nil {
		return Ack{}, application.NewDependencyError(err)
	}
	if !first {
		s.logger.Info("event already processed", "event_id", evt.ID)
		return Ack{Received: true, Idempotent: true}, nil
	}

	handler, ok := s.handlers[string(evt.Type)]
	if !ok {
		s.logger.Info("ignoring unhandled event type",
			"event_id", evt.ID,
			"type", evt.Type,
		)
		return Ack{Received: true}, nil
	}

	s.logger.Info("dispatching event", "event_id", evt.ID, "type", evt.Type)
	s.dispatch(evt.ID, &evt, handler)

	return Ack{Received: true}, nil
}

// dispatch runs the handler detached from the request with its own error
// boundary. The acknowledgment never waits on it, and the task keeps running
// after the client disconnects.
func (s *WebhookService) dispatch(eventID string, evt *stripe.Event, handler EventHandler) {
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("event handler panicked", "event_id", eventID, "panic", rec)
			}
		}()

		taskCtx, cancel := context.WithTimeout(context.Background(), s.dispatchTimeout)
		defer cancel()

		handler(taskCtx, evt)
	}()
}

func (s *WebhookService) handleCheckoutCompleted(ctx context.Context, evt *stripe.Event) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(evt.Data.Raw, &sess); err != nil {
		s.logger.Error("failed to parse checkout session from event",
			"event_id", evt.ID,
			"error", err,
		)
		return
	}

	orderID := sess.Metadata["orderId"]

	// Best-effort lookup: the session always carries enough to notify even
	// when the pending order is gone (e.g. after a restart).
	var order *domain.Order
	if orderID != "" {
		found, err := s.orders.Get(ctx, orderID)
		if err != nil {
			s.logger.Warn("pending order not found for completed session",
				"order_id", orderID,
				"session_id", sess.ID,
			)
		} else {
			order = found
		}
	}
	if orderID == "" {
		orderID = sess.ID
	}

	msg := buildOrderNotification(s.shopEmail, orderID, order, &sess)

	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Error("order notification failed",
			"event_id", evt.ID,
			"order_id", orderID,
			"error", err,
		)
		return
	}

	s.logger.Info("order notification sent", "event_id", evt.ID, "order_id", orderID)
}

func buildOrderNotification(shopEmail, orderID string, order *domain.Order, sess *stripe.CheckoutSession) application.Message {
	var total string
	switch {
	case order != nil:
		total = order.TotalAmount()
	default:
		total = domain.FormatCents(sess.AmountTotal)
	}

	customerEmail := sess.CustomerEmail
	if customerEmail == "" && order != nil {
		customerEmail = order.Contact.Email
	}
	if customerEmail == "" {
		customerEmail = "Non fourni"
	}

	var items []domain.LineItem
	if order != nil && len(order.Items) > 0 {
		items = order.Items
	} else {
		items = []domain.LineItem{{
			Name:           "Commande Futbolero",
			Quantity:       1,
			UnitPriceCents: sess.AmountTotal,
		}}
	}

	var b strings.Builder
	b.WriteString("Nouvelle commande reçue !\n\n")
	fmt.Fprintf(&b, "Commande : %s\n", orderID)
	fmt.Fprintf(&b, "Email client : %s\n", customerEmail)
	fmt.Fprintf(&b, "Total : $%s\n\n", total)
	b.WriteString("Articles :\n")
	for _, item := range items {
		b.WriteString(formatItemLine(item))
		b.WriteString("\n")
	}
	b.WriteString("\n--\nEmail automatique - Futbolero Vintage Shop\n")

	return application.Message{
		To:      shopEmail,
		Subject: fmt.Sprintf("Nouvelle commande %s - $%s", orderID, total),
		Body:    b.String(),
	}
}

func formatItemLine(item domain.LineItem) string {
	qty := item.Quantity
	if qty <= 0 {
		qty = 1
	}
	if item.Size != "" {
		return fmt.Sprintf("• %s (Taille: %s) - Quantité: %d - $%s",
			item.Name, item.Size, qty, domain.FormatCents(item.UnitPriceCents))
	}
	return fmt.Sprintf("• %s - Quantité: %d - $%s",
		item.Name, qty, domain.FormatCents(item.UnitPriceCents))
}
