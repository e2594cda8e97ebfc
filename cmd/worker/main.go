package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/admissions-api/internal/config"
	"github.com/jwalitptl/admissions-api/internal/repository/postgres"
	retention "github.com/jwalitptl/admissions-api/internal/worker"
	"github.com/jwalitptl/admissions-api/pkg/logger"
	"github.com/jwalitptl/admissions-api/pkg/messaging"
	"github.com/jwalitptl/admissions-api/pkg/messaging/redis"
	"github.com/jwalitptl/admissions-api/pkg/metrics"
	"github.com/jwalitptl/admissions-api/pkg/worker"
)

const healthAddr = ":8081"

func setupHealthCheck(registry *prometheus.Registry, logger *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: healthAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(err, "Health check server failed")
			os.Exit(1)
		}
	}()
	return srv
}

func newBroker(cfg config.RedisConfig, appLogger *logger.Logger) messaging.Broker {
	if cfg.Addr == "" {
		appLogger.Warn("No Redis address configured, outbox events stay in process")
		return messaging.NewMemoryBroker()
	}
	broker, err := redis.NewRedisBroker(redis.Config{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		RetryBackoff: 100 * time.Millisecond,
		PoolSize:     10,
		MinIdleConns: 2,
	}, &appLogger.ZL)
	if err != nil {
		appLogger.Fatal(err, "Failed to create Redis broker")
	}
	return broker
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	appLogger := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Console:    cfg.Log.Console,
	}).WithFields(map[string]interface{}{"component": "worker"})
	log.Logger = appLogger.ZL

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		appLogger.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()

	broker := newBroker(cfg.Redis, appLogger)
	defer broker.Close()

	registry := prometheus.NewRegistry()
	workerMetrics := metrics.NewWithRegistry("admissions_worker", registry)

	base := postgres.NewBaseRepository(db)
	outboxRepo := postgres.NewOutboxRepository(base)
	sendRepo := postgres.NewMessageSendRepository(base)

	processor, err := worker.NewOutboxProcessor(
		outboxRepo,
		broker,
		worker.OutboxProcessorConfig{
			BatchSize:     cfg.Outbox.BatchSize,
			PollInterval:  cfg.Outbox.PollInterval,
			RetryAttempts: cfg.Outbox.RetryAttempts,
			RetryDelay:    cfg.Outbox.RetryDelay,
		},
		appLogger,
		workerMetrics,
	)
	if err != nil {
		appLogger.Fatal(err, "Invalid outbox configuration")
	}

	cleaner := retention.NewRetentionWorker(
		sendRepo,
		outboxRepo,
		cfg.Retention.MessageSends,
		cfg.Retention.ProcessedEvents,
		cfg.Retention.Interval,
		appLogger,
	)

	health := setupHealthCheck(registry, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Shutting down...")
		cancel()
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		processor.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		cleaner.Start(ctx)
	}()
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = health.Shutdown(shutdownCtx)
}
