package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/digishelf/digishelf-backend/api/routes"
	"github.com/digishelf/digishelf-backend/internal/catalog"
	checkoutsvc "github.com/digishelf/digishelf-backend/internal/checkout"
	"github.com/digishelf/digishelf-backend/internal/ledger"
	"github.com/digishelf/digishelf-backend/internal/licensing"
	"github.com/digishelf/digishelf-backend/internal/notifications"
	"github.com/digishelf/digishelf-backend/internal/orders"
	"github.com/digishelf/digishelf-backend/internal/settlement"
	"github.com/digishelf/digishelf-backend/internal/vendors"
	paymentwebhook "github.com/digishelf/digishelf-backend/internal/webhooks/payment"
	"github.com/digishelf/digishelf-backend/internal/withdrawals"
	"github.com/digishelf/digishelf-backend/pkg/config"
	"github.com/digishelf/digishelf-backend/pkg/db"
	"github.com/digishelf/digishelf-backend/pkg/logger"
	"github.com/digishelf/digishelf-backend/pkg/metrics"
	"github.com/digishelf/digishelf-backend/pkg/migrate"
	"github.com/digishelf/digishelf-backend/pkg/outbox"
	"github.com/digishelf/digishelf-backend/pkg/redis"
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

	gdb := dbClient.DB()
	catalogRepo := catalog.NewRepository(gdb)
	vendorsRepo := vendors.NewRepository(gdb)
	ledgerRepo := ledger.NewRepository(gdb)
	ordersRepo := orders.NewRepository(gdb)
	withdrawalsRepo := withdrawals.NewRepository(gdb)
	outboxService := outbox.NewService(outbox.NewRepository(gdb), logg)

	notifySvc, err := notifications.NewService(notifications.NewRepository(gdb), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	settlementMetrics := metrics.NewSettlementMetrics(registry)

	settlementSvc, err := settlement.NewService(settlement.ServiceParams{
		Orders:                   ordersRepo,
		Vendors:                  vendorsRepo,
		Ledger:                   ledgerRepo,
		Issuer:                   licensing.NewIssuer(cfg.Settlement.LicenseMaxAttempts),
		Tx:                       dbClient,
		Outbox:                   outboxService,
		Notifier:                 notifySvc,
		Metrics:                  settlementMetrics,
		Logger:                   logg,
		DefaultCommissionPercent: cfg.Settlement.DefaultCommissionPercent,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement service", err)
		os.Exit(1)
	}

	checkoutSvc, err := checkoutsvc.NewService(catalogRepo, ordersRepo, dbClient, outboxService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	withdrawalsSvc, err := withdrawals.NewService(withdrawalsRepo, vendorsRepo, dbClient, outboxService, notifySvc, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create withdrawals service", err)
		os.Exit(1)
	}

	webhookSvc, err := paymentwebhook.NewService(paymentwebhook.ServiceParams{
		Settlement: settlementSvc,
		Orders:     ordersRepo,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := paymentwebhook.NewIdempotencyGuard(redisClient, cfg.Webhook.IdempotencyTTL, "payment-webhook")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook idempotency guard", err)
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
		Handler: routes.NewRouter(routes.Dependencies{
			Config:       cfg,
			Logger:       logg,
			DBPinger:     dbClient,
			RedisPinger:  redisClient,
			Checkout:     checkoutSvc,
			OrdersRepo:   ordersRepo,
			LedgerRepo:   ledgerRepo,
			Withdrawals:  withdrawalsSvc,
			Notifier:     notifySvc,
			Webhook:      webhookSvc,
			WebhookGuard: webhookGuard,
			Metrics:      registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
