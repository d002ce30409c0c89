// Package provider adapts the Stripe API to the application's
// CheckoutProvider port. Session creation goes through the official client;
// the API base is overridable so tests can point it at a local server.
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"github.com/futbolero/checkout-service/internal/application"
	"github.com/futbolero/checkout-service/internal/config"
)

const productName = "Commande Futbolero"

type StripeClient struct {
	api    *client.API
	logger *slog.Logger
}

func NewStripeClient(cfg config.StripeConfig, logger *slog.Logger) *StripeClient {
	api := &client.API{}

	if cfg.APIBase != "" {
		backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			URL: stripe.String(cfg.APIBase),
		})
		api.Init(cfg.SecretKey, &stripe.Backends{
			API:     backend,
			Connect: backend,
			Uploads: backend,
		})
	} else {
		api.Init(cfg.SecretKey, nil)
	}

	return &StripeClient{
		api:    api,
		logger: logger,
	}
}

var _ application.CheckoutProvider = (*StripeClient)(nil)

// CreateSession opens a hosted checkout session for the order total. The
// order id travels in the session metadata so the webhook can find the
// pending order again.
func (c *StripeClient) CreateSession(ctx context.Context, req application.CheckoutSessionRequest) (*application.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
		PaymentMethodTypes: stripe.StringSlice([]string{"card", "link"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String("cad"),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(productName),
					},
					UnitAmount: stripe.Int64(req.AmountCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx

	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}

	params.AddMetadata("orderId", req.OrderID)
	params.AddMetadata("customerEmail", req.CustomerEmail)
	params.AddMetadata("itemCount", strconv.Itoa(req.ItemCount))

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe session creation failed: %w", err)
	}

	c.logger.Info("checkout session created",
		"session_id", sess.ID,
		"order_id", req.OrderID,
		"amount_cents", req.AmountCents,
	)

	return &application.CheckoutSession{
		ID:  sess.ID,
		URL: sess.URL,
	}, nil
}
