// Package config provides configuration management for the application.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	RabbitMQ   RabbitMQConfig
	YouTube    YouTubeConfig
	Summarizer SummarizerConfig
	Worker     WorkerConfig
	Admin      AdminConfig
	Catalog    CatalogConfig
	Logging    LoggingConfig
	Metrics    MetricsConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
}

// DatabaseConfig contains database connection configuration.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type DatabaseConfig struct {
	Host           string
	Name           string
	User           string
	Password       string
	SSLMode        string
	Port           int
	MaxConnections int
	MinConnections int
	MaxIdleTime    time.Duration
	MaxLifetime    time.Duration
}

// URL renders the configuration as a postgres connection URL, the form
// golang-migrate expects.
func (d DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.Name,
		RawQuery: "sslmode=" + d.SSLMode,
	}
	return u.String()
}

// RedisConfig contains the Redis connection used by the task queue and the
// catalog cache. An empty URL disables both.
type RedisConfig struct {
	URL      string
	CacheTTL time.Duration
}

// RabbitMQConfig contains RabbitMQ connection and exchange configuration.
// Event publishing is disabled when Enabled is false.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type RabbitMQConfig struct {
	Enabled  bool
	Host     string
	User     string
	Password string
	Exchange string
	Port     int
}

// URL renders the AMQP connection URL.
func (r RabbitMQConfig) URL() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(r.User, r.Password),
		Host:   fmt.Sprintf("%s:%d", r.Host, r.Port),
		Path:   "/",
	}
	return u.String()
}

// YouTubeConfig contains YouTube Data API settings. Metadata lookup and
// import autofill are unavailable without an API key.
type YouTubeConfig struct {
	APIKey                string
	DailyQuota            int
	QuotaThresholdPercent int
}

// SummarizerConfig contains the LLM endpoint used to summarize transcripts.
type SummarizerConfig struct {
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
}

// WorkerConfig contains asynq worker settings.
type WorkerConfig struct {
	Concurrency int
	MetricsPort int
}

// AdminConfig holds the API keys accepted on administrator routes.
type AdminConfig struct {
	APIKeys []string
}

// CatalogConfig contains listing limits.
type CatalogConfig struct {
	DefaultPageSize      int
	MaxPageSize          int
	AdminDefaultPageSize int
	RelatedVideos        int
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string
	File  string
}

// MetricsConfig controls the prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Admin.APIKeys = parseAPIKeys(cfg.Admin.APIKeys)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the services cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Catalog.DefaultPageSize <= 0 || c.Catalog.MaxPageSize < c.Catalog.DefaultPageSize {
		return fmt.Errorf("invalid catalog page sizes: default %d, max %d",
			c.Catalog.DefaultPageSize, c.Catalog.MaxPageSize)
	}
	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("invalid worker concurrency %d", c.Worker.Concurrency)
	}
	return nil
}

// parseAPIKeys flattens comma-separated entries, which is how a list arrives
// from a single environment variable, and drops blanks.
func parseAPIKeys(raw []string) []string {
	var keys []string
	for _, entry := range raw {
		for _, key := range strings.Split(entry, ",") {
			if trimmed := strings.TrimSpace(key); trimmed != "" {
				keys = append(keys, trimmed)
			}
		}
	}
	return keys
}

func setDefaults() {
	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.shutdowntimeout", 30*time.Second)
	viper.SetDefault("server.readtimeout", 15*time.Second)
	viper.SetDefault("server.writetimeout", 15*time.Second)

	// Database
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "catalog")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.maxconnections", 10)
	viper.SetDefault("database.minconnections", 2)
	viper.SetDefault("database.maxidletime", 10*time.Minute)
	viper.SetDefault("database.maxlifetime", 1*time.Hour)

	// Redis
	viper.SetDefault("redis.url", "")
	viper.SetDefault("redis.cachettl", 5*time.Minute)

	// RabbitMQ
	viper.SetDefault("rabbitmq.enabled", false)
	viper.SetDefault("rabbitmq.host", "localhost")
	viper.SetDefault("rabbitmq.port", 5672)
	viper.SetDefault("rabbitmq.user", "guest")
	viper.SetDefault("rabbitmq.password", "guest")
	viper.SetDefault("rabbitmq.exchange", "catalog.events")

	// YouTube
	viper.SetDefault("youtube.apikey", "")
	viper.SetDefault("youtube.dailyquota", 10000)
	viper.SetDefault("youtube.quotathresholdpercent", 90)

	// Summarizer
	viper.SetDefault("summarizer.baseurl", "http://localhost:11434")
	viper.SetDefault("summarizer.model", "llama3.1")
	viper.SetDefault("summarizer.apikey", "")
	viper.SetDefault("summarizer.timeout", 2*time.Minute)

	// Worker
	viper.SetDefault("worker.concurrency", 2)
	viper.SetDefault("worker.metricsport", 9091)

	// Admin
	viper.SetDefault("admin.apikeys", []string{})

	// Catalog
	viper.SetDefault("catalog.defaultpagesize", 20)
	viper.SetDefault("catalog.maxpagesize", 100)
	viper.SetDefault("catalog.admindefaultpagesize", 50)
	viper.SetDefault("catalog.relatedvideos", 6)

	// Logging
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.file", "")

	// Metrics
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")
}
