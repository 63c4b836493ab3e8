package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/beginner-catalog/catalog-service-go/internal/config"
	"github.com/beginner-catalog/catalog-service-go/internal/db"
	"github.com/beginner-catalog/catalog-service-go/internal/db/repository"
	"github.com/beginner-catalog/catalog-service-go/internal/handler"
	"github.com/beginner-catalog/catalog-service-go/internal/metrics"
	"github.com/beginner-catalog/catalog-service-go/internal/queue"
	"github.com/beginner-catalog/catalog-service-go/internal/router"
	"github.com/beginner-catalog/catalog-service-go/internal/service"
	"github.com/beginner-catalog/catalog-service-go/internal/service/quota"
	"github.com/beginner-catalog/catalog-service-go/internal/service/youtube"
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
		logger.Log.Fatal("Server failed", zap.Error(err))
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	pool, err := db.NewPool(ctx, db.ConfigFrom(cfg.Database))
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer db.Close(pool)

	logger.Log.Info("Database connection established", zap.Int32("maxConns", pool.Config().MaxConns))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	videoRepo := repository.NewVideoRepository(pool)
	settingRepo := repository.NewSettingRepository(pool)

	cache := service.NewRedisCache(ctx, cfg.Redis.URL, cfg.Redis.CacheTTL)
	defer func() { _ = cache.Close() }()

	publisher, publisherHealth := newPublisher(cfg.RabbitMQ)
	defer func() { _ = publisher.Close() }()

	weights := service.NewWeightStore(settingRepo).WithEvents(publisher, m)

	// YouTube API client (optional - only if API key is provided)
	var (
		lookup  handler.MetadataLookup
		fetcher service.MetadataFetcher
	)
	if cfg.YouTube.APIKey != "" {
		yt, err := youtube.NewClient(ctx, cfg.YouTube.APIKey)
		if err != nil {
			logger.Log.Warn("Failed to initialize YouTube API client, metadata lookup will not be available", zap.Error(err))
		} else {
			manager := quota.NewManager(repository.NewQuotaRepository(pool), cfg.YouTube.DailyQuota, cfg.YouTube.QuotaThresholdPercent)
			yt.WithQuota(manager)
			lookup, fetcher = yt, yt
			logger.Log.Info("YouTube API client initialized", zap.Int("quotaThreshold", manager.Threshold()))
		}
	} else {
		logger.Log.Info("YouTube API key not configured, metadata lookup and import autofill are disabled")
	}

	// Summarization needs the task queue
	var summaries handler.SummaryQueue
	if cfg.Redis.URL != "" {
		queueClient, err := queue.NewClient(cfg.Redis.URL)
		if err != nil {
			logger.Log.Warn("Failed to initialize queue client, summarization will not be available", zap.Error(err))
		} else {
			defer func() { _ = queueClient.Close() }()
			summaries = queueClient
		}
	}

	videos := service.NewVideoService(videoRepo, weights, cache, publisher, m, cfg.Catalog)
	importer := service.NewImportService(videoRepo, weights, fetcher, cache, publisher, m)
	recalculator := service.NewRecalculationService(videoRepo, weights, cache, publisher, m)
	paths := service.NewPathService(repository.NewPathRepository(pool), cfg.Catalog)

	if len(cfg.Admin.APIKeys) == 0 {
		logger.Log.Warn("No admin API keys configured - admin endpoints will reject all requests")
	}

	checks := map[string]handler.HealthCheck{
		"database": pool.Ping,
	}
	if cache.Enabled() {
		checks["redis"] = cache.Ping
	}
	if publisherHealth != nil {
		checks["rabbitmq"] = publisherHealth
	}

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	deps := router.Deps{
		Health:      handler.NewHealthHandler(checks),
		Videos:      handler.NewVideoHandler(videos, summaries),
		BCI:         handler.NewBCIHandler(weights, recalculator),
		Import:      handler.NewImportHandler(importer, lookup),
		Paths:       handler.NewPathHandler(paths),
		APIKeys:     cfg.Admin.APIKeys,
		Logger:      logger.Named("http"),
		Metrics:     m,
		MetricsPath: cfg.Metrics.Path,
	}
	if cfg.Metrics.Enabled {
		deps.Gatherer = reg
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router.New(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return serve(server, cfg)
}

func serve(server *http.Server, cfg *config.Config) error {
	serverErrors := make(chan error, 1)
	go func() {
		logger.Log.Info("Server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			_ = server.Close()
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}

		logger.Log.Info("Server stopped gracefully")
		return nil
	}
}

// newPublisher connects to RabbitMQ when enabled. A broker that cannot be
// reached is logged and replaced by the no-op publisher.
func newPublisher(cfg config.RabbitMQConfig) (service.EventPublisher, handler.HealthCheck) {
	if !cfg.Enabled {
		logger.Log.Info("RabbitMQ disabled, domain events will not be published")
		return service.NoopPublisher{}, nil
	}

	publisher, err := service.NewRabbitPublisher(cfg)
	if err != nil {
		logger.Log.Warn("Failed to connect to RabbitMQ, domain events will not be published", zap.Error(err))
		return service.NoopPublisher{}, nil
	}

	return publisher, func(context.Context) error {
		if !publisher.IsHealthy() {
			return errors.New("connection closed")
		}
		return nil
	}
}
