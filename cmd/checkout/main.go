package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/futbolero/checkout-service/internal/application"
	"github.com/futbolero/checkout-service/internal/application/services"
	"github.com/futbolero/checkout-service/internal/config"
	"github.com/futbolero/checkout-service/internal/infrastructure/mail"
	"github.com/futbolero/checkout-service/internal/infrastructure/persistence/memory"
	"github.com/futbolero/checkout-service/internal/infrastructure/persistence/postgres"
	"github.com/futbolero/checkout-service/internal/infrastructure/provider"
	"github.com/futbolero/checkout-service/internal/infrastructure/webhook"
	"github.com/futbolero/checkout-service/internal/interfaces/rest/handlers"
	"github.com/futbolero/checkout-service/internal/interfaces/rest/middleware"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting checkout service",
		"port", cfg.Server.Port,
		"log_level", cfg.Logger.Level,
		"storage", cfg.Storage.Driver,
	)

	ctx := context.Background()

	var orderStore application.OrderStore
	var eventStore application.ProcessedEventStore

	switch cfg.Storage.Driver {
	case "postgres":
		db, err := postgres.Connect(ctx, &cfg.Database, logger)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}

		orderStore = postgres.NewOrderStore(db)
		eventStore = postgres.NewProcessedEventStore(db)
	default:
		orderStore = memory.NewOrderStore()
		eventStore = memory.NewProcessedEventStore()
	}

	sender, err := mail.NewSender(cfg.SMTP, logger)
	if err != nil {
		logger.Error("failed to build mail sender", "error", err)
		os.Exit(1)
	}
	retrySender := mail.NewRetrySender(sender, 500*time.Millisecond, 3)

	shopEmail := cfg.Notify.ShopEmail
	if shopEmail == "" {
		shopEmail = cfg.SMTP.User
	}

	stripeClient := provider.NewStripeClient(cfg.Stripe, logger)
	verifier := webhook.NewVerifier(cfg.Stripe.WebhookSecret, cfg.Webhook.Tolerance)

	checkoutService := services.NewCheckoutService(orderStore, stripeClient, cfg.Stripe.ReturnBase, logger)
	webhookService := services.NewWebhookService(verifier, eventStore, orderStore, retrySender, shopEmail, logger)
	notifyService := services.NewNotifyService(retrySender, shopEmail, logger)

	h := handlers.NewHandlers(checkoutService, webhookService, notifyService, logger)

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	handler := middleware.Recovery(logger)(mux)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Timeout(cfg.Server.ReadTimeout)(handler)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
