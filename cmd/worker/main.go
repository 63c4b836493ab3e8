package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/beginner-catalog/catalog-service-go/internal/config"
	"github.com/beginner-catalog/catalog-service-go/internal/db"
	"github.com/beginner-catalog/catalog-service-go/internal/db/repository"
	"github.com/beginner-catalog/catalog-service-go/internal/metrics"
	"github.com/beginner-catalog/catalog-service-go/internal/queue"
	"github.com/beginner-catalog/catalog-service-go/internal/service"
	"github.com/beginner-catalog/catalog-service-go/internal/service/ollama"
	"github.com/beginner-catalog/catalog-service-go/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg); err != nil {
		logger.Log.Fatal("Worker failed", zap.Error(err))
	}
}

func run(cfg *config.Config) error {
	if cfg.Redis.URL == "" {
		return errors.New("redis URL is required for the worker")
	}
	if cfg.Summarizer.BaseURL == "" || cfg.Summarizer.Model == "" {
		return errors.New("summarizer base URL and model are required")
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, db.ConfigFrom(cfg.Database))
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer db.Close(pool)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	cache := service.NewRedisCache(ctx, cfg.Redis.URL, cfg.Redis.CacheTTL)
	defer func() { _ = cache.Close() }()

	var publisher service.EventPublisher = service.NoopPublisher{}
	if cfg.RabbitMQ.Enabled {
		rabbit, err := service.NewRabbitPublisher(cfg.RabbitMQ)
		if err != nil {
			logger.Log.Warn("Failed to connect to RabbitMQ, domain events will not be published", zap.Error(err))
		} else {
			publisher = rabbit
		}
	}
	defer func() { _ = publisher.Close() }()

	weights := service.NewWeightStore(repository.NewSettingRepository(pool))
	videos := service.NewVideoService(repository.NewVideoRepository(pool), weights, cache, publisher, m, cfg.Catalog)

	summarizer := ollama.NewClient(ollama.Config{
		BaseURL: cfg.Summarizer.BaseURL,
		Model:   cfg.Summarizer.Model,
		APIKey:  cfg.Summarizer.APIKey,
		Timeout: cfg.Summarizer.Timeout,
	})

	logger.Log.Info("Summarizer configured",
		zap.String("baseUrl", cfg.Summarizer.BaseURL),
		zap.String("model", cfg.Summarizer.Model),
		zap.Int("concurrency", cfg.Worker.Concurrency),
	)

	handler := queue.NewSummarizeHandler(summarizer, videos, m)
	failures := queue.NewFailureHook(logger.Named("tasks"), m)

	server, err := queue.NewServer(cfg.Redis.URL, cfg.Worker.Concurrency, handler, failures)
	if err != nil {
		return fmt.Errorf("create task server: %w", err)
	}

	if cfg.Metrics.Enabled {
		go serveMetrics(cfg.Worker.MetricsPort, cfg.Metrics.Path, reg)
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			serverErr <- err
		}
	}()

	logger.Log.Info("Summarization worker started")

	select {
	case err := <-serverErr:
		return fmt.Errorf("task server: %w", err)
	case sig := <-shutdown:
		logger.Log.Info("Shutdown signal received", zap.String("signal", sig.String()))
		server.Stop()
		logger.Log.Info("Summarization worker stopped gracefully")
		return nil
	}
}

func serveMetrics(port int, path string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	addr := fmt.Sprintf(":%d", port)
	logger.Log.Info("Worker metrics listening", zap.String("addr", addr), zap.String("path", path))
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Log.Error("Metrics server failed", zap.Error(err))
	}
}
