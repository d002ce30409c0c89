package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/futbolero/checkout-service/internal/application"
	"github.com/futbolero/checkout-service/internal/domain"
)

const (
	StageOrder        = "order"
	StageConfirmation = "confirmation"
)

// NotifyService serves the best-effort notification triggers fired from the
// cart UI: a shop heads-up when the customer clicks pay, and a confirmation
// to customer plus shop when the success page is reached.
type NotifyService struct {
	sender    application.NotificationSender
	shopEmail string
	logger    *slog.Logger
}

func NewNotifyService(sender application.NotificationSender, shopEmail string, logger *slog.Logger) *NotifyService {
	return &NotifyService{
		sender:    sender,
		shopEmail: shopEmail,
		logger:    logger,
	}
}

type NotifyCommand struct {
	Items      []domain.LineItem
	Contact    domain.Contact
	TotalCents int64
	Stage      string
}

type NotifyResult struct {
	OrderID string
	Stage   string
}

func (s *NotifyService) Notify(ctx context.Context, cmd NotifyCommand) (*NotifyResult, error) {
	stage := cmd.Stage
	if stage == "" {
		stage = StageConfirmation
	}
	if stage != StageOrder && stage != StageConfirmation {
		return nil, application.NewValidationError(fmt.Sprintf("unknown stage %q", stage))
	}

	if stage == StageConfirmation && cmd.Contact.Email == "" {
		return nil, application.NewValidationError("Client email required for confirmation")
	}

	total := cmd.TotalCents
	if total == 0 {
		total = sumItems(cmd.Items)
	}

	referenceID := newReferenceID()
	orderText := buildOrderText(referenceID, cmd.Items, cmd.Contact, total)

	shopMsg := application.Message{
		To:      s.shopEmail,
		Subject: fmt.Sprintf("Nouvelle commande %s (%s)", referenceID, stage),
		Body: fmt.Sprintf("Stage: %s\n\nNouvelle commande reçue :\n\n%s\nEmail client : %s\nTéléphone : %s\n",
			stage, orderText, orDefault(cmd.Contact.Email, "Non fourni"), orDefault(cmd.Contact.Phone, "Non renseigné")),
	}

	if stage == StageOrder {
		if err := s.sender.Send(ctx, shopMsg); err != nil {
			s.logger.Error("shop notification failed", "order_id", referenceID, "error", err)
			return nil, application.NewDependencyError(err)
		}
		return &NotifyResult{OrderID: referenceID, Stage: stage}, nil
	}

	customerMsg := application.Message{
		To:      cmd.Contact.Email,
		Subject: fmt.Sprintf("Confirmation de commande %s - Futbolero Vintage Shop", referenceID),
		Body:    orderText,
	}

	// Both recipients are attempted; a single failure fails the request so
	// the client can retry (at-least-once is acceptable here).
	var failed error
	for _, msg := range []application.Message{customerMsg, shopMsg} {
		if err := s.sender.Send(ctx, msg); err != nil {
			s.logger.Error("confirmation notification failed",
				"order_id", referenceID,
				"to", msg.To,
				"error", err,
			)
			failed = err
		}
	}
	if failed != nil {
		return nil, application.NewDependencyError(failed)
	}

	return &NotifyResult{OrderID: referenceID, Stage: stage}, nil
}

// newReferenceID builds ids like FUT-1756600000000-9F3A21BC.
func newReferenceID() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("FUT-%d-%s", time.Now().UnixMilli(), suffix)
}

func sumItems(items []domain.LineItem) int64 {
	var total int64
	for _, item := range items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		total += qty * item.UnitPriceCents
	}
	return total
}

func buildOrderText(referenceID string, items []domain.LineItem, contact domain.Contact, totalCents int64) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Bonjour %s,\n\n", strings.TrimSpace(contact.FullName()))
	b.WriteString("Merci pour votre commande sur Futbolero Vintage Shop !\n\n")
	b.WriteString("Détails de votre commande :\n")
	fmt.Fprintf(&b, "Numéro de commande : %s\n", referenceID)
	fmt.Fprintf(&b, "Date : %s\n\n", time.Now().Format("02/01/2006 15:04"))

	b.WriteString("Articles commandés :\n")
	if len(items) == 0 {
		b.WriteString("Aucun article listé.\n")
	}
	for _, item := range items {
		b.WriteString(formatItemLine(item))
		b.WriteString("\n")
	}

	b.WriteString("\nAdresse de livraison :\n")
	fmt.Fprintf(&b, "%s\n%s %s\n%s\n", contact.Address, contact.City, contact.PostalCode, contact.Country)

	fmt.Fprintf(&b, "\nTotal : %s€\n\nCordialement,\nL'équipe Futbolero Vintage Shop\n", domain.FormatCents(totalCents))

	return b.String()
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
