package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tourbooking/internal/api"
	"tourbooking/internal/config"
	"tourbooking/internal/database"
	"tourbooking/internal/domain"
	"tourbooking/internal/events"
	"tourbooking/internal/google"
	"tourbooking/internal/inquiries"
	"tourbooking/internal/logging"
	"tourbooking/internal/metrics"
	"tourbooking/internal/models"
	"tourbooking/internal/payments"
	"tourbooking/internal/pricing"
	"tourbooking/internal/repository"
	"tourbooking/internal/service"
	"tourbooking/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, baseLogger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}
	logger := logging.Component(baseLogger, "api-main")

	packages, err := loadPackages(cfg, logger)
	if err != nil {
		return err
	}

	schedule, err := pricing.FromConfig(cfg.Pricing)
	if err != nil {
		return fmt.Errorf("pricing config: %w", err)
	}

	db, err := database.NewDB(cfg.Database.Path, logging.Component(baseLogger, "database"))
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Backup.Enabled {
		go database.NewBackupService(db, cfg.Backup, logging.Component(baseLogger, "backup")).Start(ctx)
	}

	redisClient := initRedis(ctx, cfg, logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}
	drafts := initDraftRepository(cfg, redisClient, logging.Component(baseLogger, "drafts"))

	bus := events.NewEventBus()
	syncer := initSheetsWorker(ctx, cfg, db, redisClient, logging.Component(baseLogger, "sheets-worker"))
	notifier := initTelegram(cfg, logging.Component(baseLogger, "telegram"))
	service.RegisterSubscribers(bus, syncer, notifier, logging.Component(baseLogger, "events"))

	catalog := service.NewCatalog(packages)
	gateway := payments.NewGateway(cfg.Stripe.SecretKey)
	if !gateway.Configured() {
		logger.Warn().Msg("stripe secret key is not set, payment endpoints will fail")
	}
	checkout := service.NewCheckoutService(gateway, catalog, schedule, cfg.Stripe, logging.Component(baseLogger, "checkout"))
	wizard := service.NewWizardService(drafts, catalog, checkout, logging.Component(baseLogger, "wizard"))
	inquirySvc := service.NewInquiryService(
		inquiries.NewFileStore(cfg.Inquiries.Dir, logging.Component(baseLogger, "inquiries")),
		bus,
		logging.Component(baseLogger, "inquiries"),
	)

	paymentEvents := service.NewPaymentEventService(db, bus, logging.Component(baseLogger, "payment-events"))
	dispatcher := payments.NewDispatcher(
		payments.NewVerifier(cfg.Stripe.WebhookSecret),
		paymentEvents,
		db,
		logging.Component(baseLogger, "webhook"),
	)

	httpServer := api.NewHTTPServer(cfg.API, api.Services{
		Catalog:   catalog,
		Checkout:  checkout,
		Wizard:    wizard,
		Inquiries: inquirySvc,
		Webhooks:  dispatcher,
		Bookings:  db,
		Health:    db,
	}, logging.Component(baseLogger, "http"))

	startMetrics(ctx, cfg, logger)

	return serve(ctx, httpServer, cfg, logger)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}

	return cfg, logger, closer, nil
}

// loadPackages reads the catalog file; packages inlined in config.yaml are used
// when the file does not exist.
func loadPackages(cfg *config.Config, logger *zerolog.Logger) ([]models.PackageOffering, error) {
	packagesPath := os.Getenv("PACKAGES_PATH")
	if packagesPath == "" {
		packagesPath = "configs/packages.yaml"
	}

	data, err := os.ReadFile(packagesPath)
	if errors.Is(err, os.ErrNotExist) && len(cfg.Packages) > 0 {
		return cfg.Packages, nil
	}
	if err != nil {
		logger.Error().Err(err).Str("packages_path", packagesPath).Msg("read packages")
		return nil, err
	}

	var catalog struct {
		Packages []models.PackageOffering `yaml:"packages"`
	}
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		logger.Error().Err(err).Str("packages_path", packagesPath).Msg("parse packages")
		return nil, err
	}
	if err := config.ValidatePackages(catalog.Packages, cfg.Pricing); err != nil {
		return nil, err
	}

	logger.Info().Int("packages", len(catalog.Packages)).Msg("catalog loaded")
	return catalog.Packages, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = client.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

// initDraftRepository keeps drafts in Redis with an in-memory fallback, or in
// memory only when Redis is unavailable.
func initDraftRepository(cfg *config.Config, client *redis.Client, logger *zerolog.Logger) domain.DraftRepository {
	memory := repository.NewMemoryDraftRepository(cfg.Redis.DraftTTL)
	if client == nil {
		logger.Warn().Msg("drafts are kept in memory only")
		return memory
	}
	return repository.NewFailoverDraftRepository(
		repository.NewRedisDraftRepository(client, cfg.Redis.DraftTTL),
		memory,
		logger,
	)
}

func initSheetsWorker(
	ctx context.Context,
	cfg *config.Config,
	db *database.DB,
	redisClient *redis.Client,
	logger *zerolog.Logger,
) domain.SyncWorker {
	if cfg.Google.GoogleCredentialsFile == "" || cfg.Google.SpreadsheetID == "" {
		logger.Info().Msg("google sheets not configured, sync disabled")
		return nil
	}

	sheetsService, err := google.NewSheetsService(ctx, cfg.Google.GoogleCredentialsFile, cfg.Google.SpreadsheetID)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}

	w := worker.NewSheetsWorker(db, sheetsService, redisClient, worker.RetryPolicy{}, logger)
	go w.Start(ctx)

	logger.Info().Msg("google sheets connected")
	return w
}

func initTelegram(cfg *config.Config, logger *zerolog.Logger) service.OperatorNotifier {
	if cfg.Telegram.BotToken == "" || len(cfg.Telegram.OperatorChats) == 0 {
		logger.Info().Msg("telegram not configured, operator alerts disabled")
		return nil
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, continuing without alerts")
		return nil
	}
	bot.Debug = cfg.Telegram.Debug

	logger.Info().Str("bot", bot.Self.UserName).Int("chats", len(cfg.Telegram.OperatorChats)).Msg("telegram connected")
	return service.NewTelegramService(bot, cfg.Telegram.OperatorChats, logger)
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func serve(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
