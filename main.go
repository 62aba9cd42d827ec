package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"vehicle-rental/cmd"
	"vehicle-rental/internal/cache"
	"vehicle-rental/internal/data/repository"
	"vehicle-rental/internal/jobs"
	"vehicle-rental/internal/notify"
	"vehicle-rental/internal/provider"
	"vehicle-rental/internal/usecase"
	"vehicle-rental/internal/wire"
	"vehicle-rental/pkg/database"
	"vehicle-rental/pkg/queue"
	"vehicle-rental/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting application",
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
		zap.String("payment_provider", config.Payment.Provider),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.InitDB(ctx, config.Database, config.App.Name)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	repos := repository.NewRepository(db, logger)

	// Redis is optional; without it the calendar is always read from postgres
	redisClient := cache.NewRedisClient(config.Redis, logger)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	paymentProvider, err := provider.New(config.Payment, logger)
	if err != nil {
		logger.Fatal("Failed to init payment provider", zap.Error(err))
	}

	publisher := queue.NewPublisher(config.Queue.URL, config.Queue.NotifyQueue, logger)
	dispatcher := notify.NewDispatcher(publisher, logger)

	if config.Queue.StartConsume {
		go queue.Consume(ctx, config.Queue.URL, config.Queue.NotifyQueue, notify.LogHandler(logger), logger)
	}

	app := wire.Wiring(repos, config, usecase.Dependencies{
		Provider: paymentProvider,
		Notifier: dispatcher,
		Cache:    cache.NewCalendarCache(redisClient, config.Redis.CacheTTL, logger),
	}, logger)

	scheduler, err := jobs.NewScheduler(jobs.NewJobRunner(app.Service.Booking, repos.Session, logger), config.Jobs, logger)
	if err != nil {
		logger.Fatal("Failed to init scheduler", zap.Error(err))
	}
	scheduler.Start()

	if err := cmd.APIServer(ctx, app.Router, config.App.Port, logger); err != nil {
		logger.Error("Server error", zap.Error(err))
	}

	// In-flight HTTP requests are done; drain the background work
	scheduler.Stop()
	dispatcher.Wait()
	if err := publisher.Close(); err != nil {
		logger.Warn("Failed to close publisher", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}
