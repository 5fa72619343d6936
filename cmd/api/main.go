package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ternak-go-api/internal/cache"
	"github.com/noah-isme/ternak-go-api/internal/config"
	"github.com/noah-isme/ternak-go-api/internal/database"
	"github.com/noah-isme/ternak-go-api/internal/events"
	"github.com/noah-isme/ternak-go-api/internal/handler"
	"github.com/noah-isme/ternak-go-api/internal/middleware"
	"github.com/noah-isme/ternak-go-api/internal/repository"
	"github.com/noah-isme/ternak-go-api/internal/router"
	"github.com/noah-isme/ternak-go-api/internal/service"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.AppEnv == "production" {
		logger = logger.Level(zerolog.InfoLevel)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	healthChecks := map[string]handler.DependencyCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}

	store := cache.Noop()
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		store = cache.NewRedisStore(redisClient, cfg.CacheTTL)
		healthChecks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	} else {
		logger.Warn().Msg("redis url not configured, animal cache disabled")
	}

	publisher := events.Discard()
	if cfg.NATSURL != "" {
		conn, err := nats.Connect(cfg.NATSURL, nats.Name(cfg.AppName))
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer conn.Drain()
		publisher = events.NewNATSPublisher(conn, cfg.NATSSubject)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	animalRepo := repository.NewAnimalRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	recorder := service.NewLifecycleRecorder(activityRepo, animalRepo, store, publisher, logger)
	idGenerator := service.NewInternalIDGenerator(animalRepo, logger)
	animalService := service.NewAnimalService(animalRepo, idGenerator, recorder, store, validate, service.AnimalServiceConfig{
		MaxAttempts:    cfg.InternalIDMaxRetries,
		InitialBackoff: cfg.InternalIDBackoff,
		MaxBackoff:     cfg.InternalIDMaxBackoff,
	}, logger)
	activityService := service.NewActivityService(activityRepo, animalRepo, publisher, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: logger, AllowOrigins: cfg.CORSOrigins})
	router.Register(app, cfg, router.Dependencies{
		AnimalHandler:   handler.NewAnimalHandler(animalService, logger),
		ActivityHandler: handler.NewActivityHandler(activityService, recorder, logger),
		HealthChecks:    healthChecks,
		JWTMiddleware:   middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
