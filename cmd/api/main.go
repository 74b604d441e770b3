package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadscore_backend/internal/analytics"
	"leadscore_backend/internal/events"
	apphttp "leadscore_backend/internal/http"
	"leadscore_backend/internal/http/router"
	"leadscore_backend/internal/ingest"
	"leadscore_backend/internal/leads"
	"leadscore_backend/internal/notification"
	"leadscore_backend/internal/notification/sse"
	"leadscore_backend/internal/pipeline"
	"leadscore_backend/internal/queue"
	"leadscore_backend/internal/rules"
	"leadscore_backend/internal/system"
	"leadscore_backend/migrations"
	"leadscore_backend/platform/config"
	"leadscore_backend/platform/db"
	"leadscore_backend/platform/logger"
	"leadscore_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

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
		return db.RunMigrations(ctx, cfg, migrations.FS)
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

	// Shared validator instance for dependency injection
	val := validator.New()

	eventQueue, err := queue.New(cfg, log.WithComponent("queue"))
	if err != nil {
		log.Error("failed to initialize event queue", "error", err)
		panic("failed to initialize event queue: " + err.Error())
	}
	defer func() { _ = eventQueue.Close() }()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	sseService := sse.New(log.WithComponent("sse"))
	defer sseService.Close()
	notificationModule := notification.New(sseService, log)
	notificationModule.RegisterHandlers(eventBus)

	leadsModule := leads.NewModule(pool)
	rulesModule := rules.NewModule(pool, val)
	analyticsModule := analytics.NewModule(pool)

	if err := rules.Seed(ctx, rulesModule.Repository(), log); err != nil {
		log.Error("failed to seed scoring rules", "error", err)
		panic("failed to seed scoring rules: " + err.Error())
	}

	processor := pipeline.NewProcessor(leadsModule.Repository(), rulesModule.Repository(), eventBus, log.WithComponent("pipeline"))
	replayer := pipeline.NewReplayer(leadsModule.Repository(), processor, eventBus, log.WithComponent("replay"))

	ingestModule := ingest.NewModule(eventQueue, cfg, val, log)
	systemModule := system.NewModule(replayer, leadsModule.Repository(), log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		Queue:    eventQueue,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			ingestModule,
			leadsModule,
			rulesModule,
			analyticsModule,
			systemModule,
			notificationModule,
		},
	}

	engine := router.New(app)
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: engine,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	// Degraded-mode consumer. Idle while the broker path is healthy; the
	// dedicated worker process drains the durable queue.
	group.Go(func() error {
		queue.RunFallback(groupCtx, eventQueue, processor, log)
		return nil
	})

	group.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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
