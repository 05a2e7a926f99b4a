package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"workflow_portal_backend/internal/account"
	"workflow_portal_backend/internal/adapters"
	"workflow_portal_backend/internal/analytics"
	"workflow_portal_backend/internal/bootstrap"
	"workflow_portal_backend/internal/email"
	"workflow_portal_backend/internal/events"
	apphttp "workflow_portal_backend/internal/http"
	"workflow_portal_backend/internal/http/router"
	"workflow_portal_backend/internal/notification"
	"workflow_portal_backend/internal/profiles"
	"workflow_portal_backend/internal/scheduler"
	"workflow_portal_backend/internal/session"
	"workflow_portal_backend/internal/settings"
	settingsstore "workflow_portal_backend/internal/settings/store"
	"workflow_portal_backend/internal/storage"
	"workflow_portal_backend/internal/workflows"
	"workflow_portal_backend/internal/workflows/relay"
	"workflow_portal_backend/platform/config"
	"workflow_portal_backend/platform/db"
	"workflow_portal_backend/platform/logger"
	"workflow_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

const storageBucketEnsureErrPrefix = "failed to ensure storage bucket exists: "
const storageBucketEnsureErrMsg = "failed to ensure storage bucket exists"

// ensureBucket wraps the retry logic for verifying a MinIO bucket exists.
func ensureBucket(ctx context.Context, log *logger.Logger, storageSvc storage.Service, name, bucket string) {
	if err := withRetry(ctx, log, "ensure "+name+" bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error(storageBucketEnsureErrMsg, "error", err, "bucket", bucket)
		panic(storageBucketEnsureErrPrefix + err.Error())
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	purgeScheduler, closeScheduler := initPurgeScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// Storage service for avatars and workflow archives (MinIO)
	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	ensureBucket(ctx, log, storageSvc, "avatars", cfg.GetMinioBucketAvatars())
	ensureBucket(ctx, log, storageSvc, "workflow-archives", cfg.GetMinioBucketWorkflowArchives())
	log.Info(
		"storage service initialized",
		"avatarsBucket", cfg.GetMinioBucketAvatars(),
		"workflowArchivesBucket", cfg.GetMinioBucketWorkflowArchives(),
	)

	// Settings store (Redis)
	settingsStore, err := settingsstore.New(cfg)
	if err != nil {
		log.Error("failed to initialize settings store", "error", err)
		panic("failed to initialize settings store: " + err.Error())
	}
	defer func() { _ = settingsStore.Close() }()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	profilesModule := profiles.NewModule(pool, eventBus, storageSvc, cfg.GetMinioBucketAvatars(), val)

	// Notification module subscribes to domain events (not HTTP-facing)
	recipientDirectory := adapters.NewProfileDirectoryAdapter(profilesModule.Repository())
	notificationModule := notification.NewModule(sender, recipientDirectory, log)
	notificationModule.SetPreferenceReader(adapters.NewSettingsPreferenceReader(settingsStore))
	notificationModule.RegisterHandlers(eventBus)

	// Session bootstrap registry: per-user state machines fed by the hosted
	// auth service and the profiles module.
	sessionStore := session.NewClient(cfg, log)
	profileBridge := adapters.NewProfileBootstrapAdapter(profilesModule.Repository(), profilesModule.Service())
	registry := bootstrap.NewRegistry(sessionStore, profileBridge, profileBridge, purgeScheduler, cfg, log)
	defer registry.Close()

	accountModule := account.NewModule(registry, cfg, eventBus, val, log)
	accountModule.RegisterHandlers(eventBus)

	// Self-service profile updates route through the caller's bootstrap so the
	// cached profile tracks the server row.
	profilesModule.SetSelfUpdater(adapters.NewBootstrapSelfUpdater(registry))

	relaySender := relay.NewClient(cfg, log)
	if relaySender == nil {
		log.Warn("AUTOMATION_WEBHOOK_URL not configured; workflow uploads disabled")
	}
	relaySender.SetURLResolver(adapters.NewSettingsWebhookResolver(settingsStore))
	workflowsModule := workflows.NewModule(pool, relaySender, eventBus, storageSvc, cfg.GetMinioBucketWorkflowArchives(), val, log)

	analyticsModule := analytics.NewModule(pool, val)
	analyticsModule.RegisterHandlers(eventBus)
	settingsModule := settings.NewModule(settingsStore, eventBus, val)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:     cfg,
		Logger:     log,
		Health:     db.NewPoolAdapter(pool),
		EventBus:   eventBus,
		Bootstraps: registry,
		Modules: []apphttp.Module{
			accountModule,
			profilesModule,
			workflowsModule,
			analyticsModule,
			settingsModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initPurgeScheduler(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; deferred sign-out purges disabled")
		return nil, nil
	}

	purgeClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize purge scheduler client", "error", err)
		return nil, nil
	}

	return purgeClient, func() {
		_ = purgeClient.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
