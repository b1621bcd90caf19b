package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/Freeeeeet/gympartner_bot/internal/app"
	"github.com/Freeeeeet/gympartner_bot/internal/config"
	"github.com/Freeeeeet/gympartner_bot/internal/delivery"
	"github.com/Freeeeeet/gympartner_bot/internal/feed"
	"github.com/Freeeeeet/gympartner_bot/internal/repository"
	"github.com/Freeeeeet/gympartner_bot/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("Starting gym partner coordinator")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create connection pool", zap.Error(err))
	}
	defer pool.Close()

	// Применяем миграции
	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	migrator.Close()

	// Репозитории
	userRepo := repository.NewUserRepository(pool)
	availabilityRepo := repository.NewAvailabilityRepository(pool)
	requestRepo := repository.NewPartnerRequestRepository(pool)
	proposalRepo := repository.NewProposalRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	stateRepo := repository.NewCoordinationStateRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	eventRepo := repository.NewChangeEventRepository(pool)

	// Внешний канал доставки (опционально)
	var dlv delivery.Delivery
	if cfg.TelegramToken != "" {
		telegram, err := delivery.NewTelegramDelivery(cfg.TelegramToken, logger)
		if err != nil {
			logger.Fatal("Failed to create telegram delivery", zap.Error(err))
		}
		dlv = telegram
	} else {
		logger.Warn("TELEGRAM_TOKEN not set, external delivery disabled")
	}

	// Change feed: hub + слушатель outbox
	hub := feed.NewHub(cfg.HeartbeatInterval, logger)
	listener := feed.NewListener(
		pool,
		eventRepo,
		userRepo,
		notificationRepo,
		stateRepo,
		availabilityRepo,
		hub,
		dlv,
		logger,
	)

	coordinator := app.NewCoordinator(
		service.NewPartnerService(userRepo, requestRepo, logger),
		service.NewAvailabilityService(userRepo, availabilityRepo, logger),
		service.NewMatchingService(userRepo, availabilityRepo, logger),
		service.NewProposalService(userRepo, proposalRepo, sessionRepo, logger),
		service.NewNotificationService(notificationRepo),
		hub,
		listener,
	)

	if err := coordinator.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal("Coordinator stopped unexpectedly", zap.Error(err))
	}

	logger.Info("Shutting down")
}
