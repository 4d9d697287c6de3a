package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/nagriksetu/report-service/internal/api/http"
	"github.com/nagriksetu/report-service/internal/api/http/handlers"
	"github.com/nagriksetu/report-service/internal/auth"
	"github.com/nagriksetu/report-service/internal/config"
	"github.com/nagriksetu/report-service/internal/events"
	"github.com/nagriksetu/report-service/internal/intake"
	"github.com/nagriksetu/report-service/internal/observability"
	"github.com/nagriksetu/report-service/internal/persistence"
	"github.com/nagriksetu/report-service/internal/repository"
	"github.com/nagriksetu/report-service/internal/service"
	"github.com/nagriksetu/report-service/internal/worker"
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

	uploads, err := intake.NewUploadStore(cfg.Upload)
	if err != nil {
		logger.Fatal("failed to init upload store", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	ticketRepo := repository.NewTicketRepository(pg.PoolHandle())

	dedupService := service.NewDedupService(service.DedupDependencies{
		TicketRepo:      ticketRepo,
		Dispatcher:      dispatcher,
		Metrics:         metrics,
		ThresholdMeters: cfg.Dedup.ThresholdMeters,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		Dispatcher: dispatcher,
		Cache:      redis.ClientHandle(),
		CacheTTL:   cfg.Redis.ListCacheTTL(),
		Logger:     logger,
	})
	notificationService := service.NewNotificationService(cfg.Notification, dispatcher, logger)
	worker.StartNotificationWorker(notificationService)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	adminMiddleware := auth.NewAdminMiddleware(tokens)

	app := fiber.New(fiber.Config{
		BodyLimit: int(cfg.Upload.MaxSizeBytes) + 1024*1024,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:          handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Reports:         handlers.NewReportsHandler(dedupService, ticketService, uploads),
		Admin:           handlers.NewAdminHandler(cfg.Auth, tokens),
		AdminMiddleware: adminMiddleware,
		UploadDir:       uploads.Dir(),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	logger.Info("service started",
		zap.String("addr", cfg.App.Addr()),
		zap.Float64("dedup_threshold_meters", dedupService.ThresholdMeters()),
	)

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
