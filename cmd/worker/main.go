package main

import (
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"offshoreCV/internal/config"
	"offshoreCV/internal/database"
	"offshoreCV/internal/logging"
	"offshoreCV/internal/metrics"
	"offshoreCV/internal/storage"
	"offshoreCV/internal/store"
	"offshoreCV/internal/tasks"
	"offshoreCV/internal/worker"
)

// auditSchedule 是默认公开 CV 完整性审计的 cron 表达式。
const auditSchedule = "@hourly"

func main() {
	cfg := config.MustLoad()

	logger, err := logging.New(cfg.Log, os.Stdout)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database, cfg.Log.Level)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	logger.Info("database connection ready for worker")

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	logger.Info("storage client ready", slog.String("bucket", cfg.MinIO.Bucket))

	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password}

	scheduler := asynq.NewScheduler(redisOpt, nil)
	if _, err := scheduler.Register(auditSchedule, tasks.NewAuditDefaultsTask()); err != nil {
		log.Fatalf("register audit schedule: %v", err)
	}
	if err := scheduler.Start(); err != nil {
		log.Fatalf("start scheduler: %v", err)
	}
	defer scheduler.Shutdown()

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Worker.Concurrency,
	})

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())
	mux.Handle(tasks.TypeStorageCleanup, worker.NewCleanupTaskHandler(storageClient, logger))
	mux.Handle(tasks.TypeAuditDefaults, worker.NewAuditTaskHandler(store.New(db), metrics.AnomalyReporter{}, logger))

	if addr := cfg.Worker.MetricsAddr; addr != "" {
		go serveMetrics(logger, addr)
	}

	logger.Info("worker service started",
		slog.String("redis_addr", cfg.Redis.Addr()),
		slog.Int("concurrency", cfg.Worker.Concurrency),
		slog.String("audit_schedule", auditSchedule),
	)
	if err := server.Run(mux); err != nil {
		logger.Error("worker server stopped", slog.Any("error", err))
	}
}

func serveMetrics(logger *slog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("worker metrics listening", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("worker metrics server stopped", slog.Any("error", err))
	}
}
