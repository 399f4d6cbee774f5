package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"stylens-server/internal/billing"
	"stylens-server/internal/credits"
	"stylens-server/internal/generation"
	"stylens-server/internal/http/handlers"
	httpapi "stylens-server/internal/http/httpapi"
	"stylens-server/internal/infra"
	"stylens-server/internal/infra/geoip"
	"stylens-server/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	if err := infra.RunMigrations(ctx, cfg); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply migrations")
	}

	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	countries, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}

	store, err := storage.NewR2Store(ctx, storage.R2Options{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretKey,
		Bucket:          cfg.R2Bucket,
		PublicDomain:    cfg.R2PublicDomain,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize object storage")
	}

	generator := generation.NewClient(generation.Options{
		APIKey:   cfg.OpenRouterAPIKey,
		BaseURL:  cfg.OpenRouterBaseURL,
		Model:    cfg.GenerationModel,
		SiteURL:  cfg.SiteURL,
		SiteName: cfg.SiteName,
		Logger:   logger,
	})

	sqlRunner := infra.NewSQLRunner(dbpool, logger)
	ledger := credits.NewLedger(sqlRunner, logger)
	stripeClient := billing.NewClient(cfg.StripeSecretKey, cfg.StripeWebhookSecret, logger)
	webhooks := billing.NewProcessor(ledger, stripeClient, logger)

	app := &handlers.App{
		Config:    cfg,
		Logger:    logger,
		SQL:       sqlRunner,
		Store:     store,
		Generator: generator,
		Ledger:    ledger,
		Checkout:  stripeClient,
		Verifier:  stripeClient,
		Webhooks:  webhooks,
	}

	router := httpapi.NewRouter(app, cfg, logger, countries)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
