package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/trovemarket/trove-backend/api/routes"
	"github.com/trovemarket/trove-backend/internal/catalog"
	checkoutsvc "github.com/trovemarket/trove-backend/internal/checkout"
	"github.com/trovemarket/trove-backend/internal/conversations"
	"github.com/trovemarket/trove-backend/internal/fulfillment"
	"github.com/trovemarket/trove-backend/internal/settlement"
	stripewebhook "github.com/trovemarket/trove-backend/internal/webhooks/stripe"
	"github.com/trovemarket/trove-backend/pkg/config"
	"github.com/trovemarket/trove-backend/pkg/db"
	"github.com/trovemarket/trove-backend/pkg/logger"
	"github.com/trovemarket/trove-backend/pkg/metrics"
	"github.com/trovemarket/trove-backend/pkg/migrate"
	"github.com/trovemarket/trove-backend/pkg/redis"
	"github.com/trovemarket/trove-backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	settlementMetrics := metrics.NewSettlementMetrics(registry)

	catalogRepo := catalog.NewRepository(dbClient.DB())
	settlementRepo := settlement.NewRepository(dbClient.DB())
	fulfillmentRepo := fulfillment.NewRepository(dbClient.DB())
	conversationRepo := conversations.NewRepository(dbClient.DB())

	conversationService, err := conversations.NewService(conversationRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create conversation service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(catalogRepo, stripeClient, cfg.Checkout, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	settlementService, err := settlement.NewService(
		stripeClient,
		settlementRepo,
		catalogRepo,
		dbClient,
		conversationService,
		logg,
		settlementMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement service", err)
		os.Exit(1)
	}

	fulfillmentService, err := fulfillment.NewService(
		fulfillmentRepo,
		dbClient,
		conversationService,
		logg,
		settlementMetrics,
		cfg.Checkout.FeedbackCooldown,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create fulfillment service", err)
		os.Exit(1)
	}

	webhookGuard, err := stripewebhook.NewEventGuard(redisClient, cfg.Checkout.WebhookEventTTL, "stripe-event")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Settler: settlementService,
		Guard:   webhookGuard,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			checkoutService,
			settlementService,
			fulfillmentService,
			stripeClient,
			webhookService,
			registry,
		),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}
