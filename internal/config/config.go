package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Server struct {
		Port         string
		ReadTimeout  time.Duration
		WriteTimeout time.Duration
		LogLevel     string
	}

	Database struct {
		Host         string
		Port         int
		User         string
		Password     string
		Name         string
		SSLMode      string
		MinConns     int
		MaxConns     int
		QueryTimeout time.Duration
	}

	Predictor struct {
		BaseURL string
		Timeout time.Duration
	}

	Airports struct {
		SourceURL       string
		RefreshInterval time.Duration
		FetchTimeout    time.Duration
	}

	Cache struct {
		TTL time.Duration
	}

	Scheduler struct {
		RefreshInterval time.Duration
	}

	Batch struct {
		Strategy string
	}

	CircuitBreaker struct {
		Timeout time.Duration
	}

	Retry struct {
		MaxRetries int
		Delay      time.Duration
		Multiplier float64
	}
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		zap.L().Info("No .env file found, using environment variables")
	}

	cfg := &Config{}

	// Server configuration
	cfg.Server.Port = getEnv("SERVER_PORT", "8080")
	cfg.Server.ReadTimeout = parseDuration(getEnv("SERVER_READ_TIMEOUT", "10s"))
	cfg.Server.WriteTimeout = parseDuration(getEnv("SERVER_WRITE_TIMEOUT", "30s"))
	cfg.Server.LogLevel = getEnv("LOG_LEVEL", "info")

	// Database configuration; the pool stays small on purpose, renders are
	// short-lived and the store is shared across them.
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"))
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "")
	cfg.Database.Name = getEnv("DB_NAME", "flights")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MinConns = parseInt(getEnv("DB_MIN_CONNS", "1"))
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "5"))
	cfg.Database.QueryTimeout = parseDuration(getEnv("DB_QUERY_TIMEOUT", "15s"))

	// Predictor API configuration
	cfg.Predictor.BaseURL = getEnv("PREDICTOR_URL", "http://localhost:8000")
	cfg.Predictor.Timeout = parseDuration(getEnv("PREDICTOR_TIMEOUT", "10s"))

	// Airport reference dataset
	cfg.Airports.SourceURL = getEnv("AIRPORTS_URL",
		"https://raw.githubusercontent.com/jpatokal/openflights/master/data/airports.dat")
	cfg.Airports.RefreshInterval = parseDuration(getEnv("AIRPORTS_REFRESH_INTERVAL", "24h"))
	cfg.Airports.FetchTimeout = parseDuration(getEnv("AIRPORTS_FETCH_TIMEOUT", "30s"))

	// Cache configuration
	cfg.Cache.TTL = parseDuration(getEnv("CACHE_TTL", "5m"))

	// Scheduler configuration
	cfg.Scheduler.RefreshInterval = parseDuration(getEnv("REFRESH_INTERVAL", "15m"))

	// Batch submission strategy: "sequential" or "bulk"
	cfg.Batch.Strategy = getEnv("BATCH_STRATEGY", "sequential")
	if cfg.Batch.Strategy != "sequential" && cfg.Batch.Strategy != "bulk" {
		return nil, fmt.Errorf("invalid BATCH_STRATEGY %q", cfg.Batch.Strategy)
	}

	// Circuit breaker configuration
	cfg.CircuitBreaker.Timeout = parseDuration(getEnv("CIRCUIT_BREAKER_TIMEOUT", "30s"))

	// Retry configuration
	cfg.Retry.MaxRetries = parseInt(getEnv("MAX_RETRIES", "2"))
	cfg.Retry.Delay = parseDuration(getEnv("RETRY_DELAY", "500ms"))
	cfg.Retry.Multiplier = parseFloat(getEnv("RETRY_MULTIPLIER", "2"))

	return cfg, nil
}

// DSN builds the pgxpool connection string, pool bounds included.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_min_conns=%d pool_max_conns=%d",
		c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password,
		c.Database.Name, c.Database.SSLMode, c.Database.MinConns, c.Database.MaxConns,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(value string) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil {
		zap.L().Warn("Failed to parse duration", zap.String("value", value), zap.Error(err))
		return 0
	}
	return duration
}

func parseInt(value string) int {
	intValue, err := strconv.Atoi(value)
	if err != nil {
		zap.L().Warn("Failed to parse int", zap.String("value", value), zap.Error(err))
		return 0
	}
	return intValue
}

func parseFloat(value string) float64 {
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		zap.L().Warn("Failed to parse float", zap.String("value", value), zap.Error(err))
		return 0
	}
	return floatValue
}
