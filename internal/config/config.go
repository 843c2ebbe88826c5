package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds worker configuration loaded from the environment.
type Config struct {
	AppName             string
	LogLevel            string
	LogFormat           string
	HTTPPort            string
	RabbitURL           string
	PushQueue           string
	DeadLetterQueue     string
	Exchange            string
	RoutingKey          string
	PrefetchCount       int
	WorkerCount         int
	MaxDeliveries       int
	DatabaseURL         string
	RedisURL            string
	StatusTable         string
	IntegrationTable    string
	ProviderTimeout     time.Duration
	SuppressionTTL      time.Duration
	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	RetryMaxBackoff     time.Duration
}

// Load loads worker configuration and performs basic validation.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppName:             getEnv("APP_NAME", "integration_service"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "json"),
		HTTPPort:            getEnv("HTTP_PORT", "8082"),
		RabbitURL:           getEnv("RABBITMQ_URL", ""),
		PushQueue:           getEnv("PUSH_QUEUE", "push.queue"),
		DeadLetterQueue:     getEnv("PUSH_DLQ", "failed.queue"),
		Exchange:            getEnv("PUSH_EXCHANGE", "notifications.direct"),
		RoutingKey:          getEnv("PUSH_ROUTING_KEY", "push"),
		PrefetchCount:       getEnvAsInt("PUSH_PREFETCH", 100),
		WorkerCount:         getEnvAsInt("WORKER_COUNT", 5),
		MaxDeliveries:       getEnvAsInt("MAX_DELIVERIES", 5),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		RedisURL:            getEnv("REDIS_URL", ""),
		StatusTable:         getEnv("STATUS_TABLE", "notification_statuses"),
		IntegrationTable:    getEnv("INTEGRATION_TABLE", "integrations"),
		ProviderTimeout:     getEnvAsDuration("PROVIDER_TIMEOUT", 10*time.Second),
		SuppressionTTL:      getEnvAsDuration("TOKEN_SUPPRESSION_TTL", 24*time.Hour),
		RetryMaxAttempts:    getEnvAsInt("RETRY_MAX_ATTEMPTS", 4),
		RetryInitialBackoff: getEnvAsDuration("RETRY_INITIAL_BACKOFF", time.Second),
		RetryMaxBackoff:     getEnvAsDuration("RETRY_MAX_BACKOFF", 15*time.Second),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.RabbitURL == "" {
		missing = append(missing, "RABBITMQ_URL")
	}
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missing)
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("WORKER_COUNT must be positive, got %d", c.WorkerCount)
	}
	return nil
}

// ClientConfig configures the envctl dashboard client.
type ClientConfig struct {
	APIURL        string
	TokenFile     string
	QueryCacheTTL time.Duration
	LogLevel      string
	DefaultRoute  string
}

// LoadClient loads the dashboard client configuration. Nothing is required;
// a missing token file only fails once a request needs it.
func LoadClient() (*ClientConfig, error) {
	_ = godotenv.Load()

	tokenFile := getEnv("TOKEN_FILE", "")
	if tokenFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve config dir: %w", err)
		}
		tokenFile = filepath.Join(dir, "envctl", "token")
	}

	return &ClientConfig{
		APIURL:        getEnv("API_URL", "http://localhost:3000"),
		TokenFile:     tokenFile,
		QueryCacheTTL: getEnvAsDuration("QUERY_CACHE_TTL", 5*time.Minute),
		LogLevel:      getEnv("LOG_LEVEL", "warn"),
		DefaultRoute:  getEnv("DEFAULT_ROUTE", "/"),
	}, nil
}

func getEnv(key, def string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	return value
}

func getEnvAsInt(key string, def int) int {
	if value, ok := os.LookupEnv(key); ok {
		i, err := strconv.Atoi(value)
		if err != nil {
			log.Printf("invalid int for %s, using default %d: %v", key, def, err)
			return def
		}
		return i
	}
	return def
}

func getEnvAsDuration(key string, def time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(value)
		if err != nil {
			log.Printf("invalid duration for %s, using default %s: %v", key, def, err)
			return def
		}
		return d
	}
	return def
}
