// main.go
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"ticket-booking/cmd"
	"ticket-booking/internal/data/repository"
	"ticket-booking/internal/event"
	"ticket-booking/internal/sweeper"
	"ticket-booking/internal/wire"
	"ticket-booking/pkg/cache"
	"ticket-booking/pkg/database"
	"ticket-booking/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)

	// Domain events go to RabbitMQ when configured, otherwise to a no-op
	// publisher so booking flows never depend on the broker.
	publisher := event.NewNopPublisher()
	if config.RabbitMQ.URL != "" {
		publisher = event.NewAMQPPublisher(config.RabbitMQ.URL, logger)
		logger.Info("Event publisher connected", zap.String("url", config.RabbitMQ.URL))
	}

	// Availability cache is optional. NewRedisClient returns nil when Redis
	// is unreachable and the inventory service degrades to direct reads.
	redisClient := cache.NewRedisClient(config.Redis, logger)

	// Wire all dependencies
	app := wire.Wiring(repos, config, publisher, redisClient, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Expired-hold sweeper runs only when timed holds are enabled.
	if config.Booking.HoldTTL > 0 {
		sw := sweeper.New(app.Service.Booking, config.Booking.SweepInterval, logger)
		go sw.Start(ctx)
	}

	// Start server
	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))

	cmd.APIServer(ctx, app.Router, config.App.Port)
}
