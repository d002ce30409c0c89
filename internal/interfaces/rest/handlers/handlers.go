package handlers

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/futbolero/checkout-service/internal/application/services"
	"github.com/futbolero/checkout-service/internal/domain"
	"github.com/futbolero/checkout-service/internal/interfaces/rest"
)

type CheckoutService interface {
	CreateSession(ctx context.Context, cmd services.CreateSessionCommand) (*services.CreateSessionResult, error)
}

type WebhookService interface {
	HandleEvent(ctx context.Context, rawBody []byte, sigHeader string) (services.Ack, error)
}

type NotifyService interface {
	Notify(ctx context.Context, cmd services.NotifyCommand) (*services.NotifyResult, error)
}

type Handlers struct {
	checkoutService CheckoutService
	webhookService  WebhookService
	notifyService   NotifyService
	logger          *slog.Logger
}

func NewHandlers(
	checkoutService CheckoutService,
	webhookService WebhookService,
	notifyService NotifyService,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		checkoutService: checkoutService,
		webhookService:  webhookService,
		notifyService:   notifyService,
		logger:          logger,
	}
}

// RegisterRoutes mounts every route. The webhook route is the only one that
// reads raw bytes; no middleware in the chain consumes request bodies, so the
// two parsing styles never compete for the same stream.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /payments/create-session", h.HandleCreateSession)
	mux.HandleFunc("POST /payments/webhook", h.HandleWebhook)
	mux.HandleFunc("POST /payments/notify-click", h.HandleNotify)
	mux.HandleFunc("POST /payments/notify-success", h.HandleNotify)
	mux.HandleFunc("GET /api/health", h.HandleHealth)
}

func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	rest.WriteJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"ts": time.Now().UnixMilli(),
	})
}

// Wire DTOs shared by the structured routes.

type contactDTO struct {
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

func (c contactDTO) toDomain() domain.Contact {
	return domain.Contact{
		Email:      c.Email,
		FirstName:  c.FirstName,
		LastName:   c.LastName,
		Phone:      c.Phone,
		Address:    c.Address,
		City:       c.City,
		PostalCode: c.PostalCode,
		Country:    c.Country,
	}
}

type itemDTO struct {
	Name         string  `json:"name"`
	Size         string  `json:"size"`
	Quantity     int64   `json:"quantity"`
	Price        float64 `json:"price"`
	PerUnitPrice float64 `json:"perUnitPrice"`
}

func (i itemDTO) toDomain() domain.LineItem {
	price := i.PerUnitPrice
	if price == 0 {
		price = i.Price
	}

	qty := i.Quantity
	if qty <= 0 {
		qty = 1
	}

	return domain.LineItem{
		Name:           i.Name,
		Size:           i.Size,
		Quantity:       qty,
		UnitPriceCents: int64(math.Round(price * 100)),
	}
}

func itemsToDomain(items []itemDTO) []domain.LineItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]domain.LineItem, 0, len(items))
	for _, item := range items {
		out = append(out, item.toDomain())
	}
	return out
}
