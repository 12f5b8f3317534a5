package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"offshoreCV/internal/api"
	"offshoreCV/internal/auth"
	"offshoreCV/internal/cache"
	"offshoreCV/internal/config"
	"offshoreCV/internal/database"
	"offshoreCV/internal/logging"
	"offshoreCV/internal/metrics"
	"offshoreCV/internal/storage"
	"offshoreCV/internal/store"
)

func main() {
	cfg := config.MustLoad()

	logger, err := logging.New(cfg.Log, os.Stdout)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	slog.SetDefault(logger)
	logger.Info("api bootstrapped",
		slog.String("db_host", cfg.Database.Host),
		slog.Int("db_port", cfg.Database.Port),
		slog.String("db_name", cfg.Database.Name),
		slog.String("db_sslmode", cfg.Database.SSLMode),
	)

	db, err := database.InitDatabase(cfg.Database, cfg.Log.Level)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}
	logger.Info("database migrated")

	st := store.New(db)
	if err := st.SeedLookups(context.Background(), database.DefaultLookupRoles(), database.DefaultLookupCerts()); err != nil {
		log.Fatalf("seed lookups: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}

	privatePEM, publicPEM, err := cfg.Auth.ReadKeys()
	if err != nil {
		log.Fatalf("read jwt keys: %v", err)
	}
	authService, err := auth.NewAuthService(privatePEM, publicPEM, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	if err != nil {
		log.Fatalf("init auth service: %v", err)
	}

	var scanner storage.Scanner = storage.NoopScanner{}
	if cfg.Clamd.Enabled {
		scanner = storage.NewClamdScanner(cfg.Clamd.Address)
	} else {
		logger.Warn("clamd scanning disabled, uploads are stored unscanned")
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password})
	defer asynqClient.Close()

	router := api.NewRouter(logger, map[string]api.HealthCheck{
		"database": st.Ping,
		"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		"storage":  storageClient.Ping,
	})
	api.RegisterRoutes(router, cfg.API, cfg.Auth, api.Dependencies{
		Store:       st,
		Auth:        authService,
		Redis:       redisClient,
		Storage:     storageClient,
		Scanner:     scanner,
		Tasks:       asynqClient,
		PublicCache: cache.NewPublicCV(redisClient, cfg.API.PublicCacheTTL),
		Reporter:    metrics.AnomalyReporter{},
		Logger:      logger,
	})

	address := fmt.Sprintf(":%d", cfg.API.Port)
	logger.Info("api listening", slog.String("address", address))
	if err := router.Run(address); err != nil {
		log.Fatalf("failed to start api server: %v", err)
	}
}
