package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/Sandesh225/smartpokhara-sub002/internal/api/http"
	"github.com/Sandesh225/smartpokhara-sub002/internal/api/http/handlers"
	"github.com/Sandesh225/smartpokhara-sub002/internal/auth"
	"github.com/Sandesh225/smartpokhara-sub002/internal/clock"
	"github.com/Sandesh225/smartpokhara-sub002/internal/config"
	"github.com/Sandesh225/smartpokhara-sub002/internal/events"
	"github.com/Sandesh225/smartpokhara-sub002/internal/observability"
	"github.com/Sandesh225/smartpokhara-sub002/internal/persistence"
	"github.com/Sandesh225/smartpokhara-sub002/internal/repository"
	"github.com/Sandesh225/smartpokhara-sub002/internal/service"
	"github.com/Sandesh225/smartpokhara-sub002/internal/sla"
	"github.com/Sandesh225/smartpokhara-sub002/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var store repository.TxStore
	if pool := pg.PoolHandle(); pool != nil {
		store = repository.NewPostgresStore(pool)
	} else {
		logger.Warn("running with in-memory store; data will not survive restarts")
		store = repository.NewMemoryStore()
	}

	metrics := observability.NewMetrics()
	systemClock := clock.System{}
	slaCalc := sla.NewCalculator(
		sla.NewPolicySet(sla.DefaultPolicies(), time.Duration(cfg.SLA.DefaultDurationHours)*time.Hour),
		logger,
	)

	dispatcher := events.NewInMemoryDispatcher()
	events.NewRedisPublisher(redis.Client, cfg.Redis.EventChannel, logger).RegisterHandlers(dispatcher)

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	notificationService.RegisterHandlers()

	lifecycleService := service.NewLifecycleService(service.LifecycleDependencies{
		Store:          store,
		SLACalculator:  slaCalc,
		Clock:          systemClock,
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Logger:         logger,
		FeedbackWindow: cfg.SLA.FeedbackWindow(),
		ReopenWindow:   cfg.SLA.ReopenWindow(),
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		Store:         store,
		SLACalculator: slaCalc,
		Clock:         systemClock,
		Dispatcher:    dispatcher,
		Metrics:       metrics,
		Logger:        logger,
	})
	escalationService := service.NewEscalationService(service.EscalationDependencies{
		Store:      store,
		Clock:      systemClock,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	authService := service.NewAuthService(*cfg, store)
	staffService := service.NewStaffService(*cfg, store)

	if cfg.Sweep.Enabled {
		sweeper := worker.NewEscalationWorker(escalationService, systemClock, cfg.Sweep.Interval(), logger)
		sweeper.Start(ctx)
	}

	authMiddleware := auth.NewMiddleware(authService.TokenManager(), store)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Requests:       handlers.NewRequestsHandler(lifecycleService, assignmentService, escalationService),
		Staff:          handlers.NewStaffHandler(authService, staffService),
		Stats:          handlers.NewStatsHandler(lifecycleService, metrics),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
