package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults for the delivery engine knobs.
const (
	DefaultHTTPPoolSize  = 100
	DefaultFetchInterval = 1000 * time.Millisecond
)

// App holds runtime configuration derived from env vars.
type App struct {
	DatabaseURL  string
	KafkaBrokers string
	KafkaTopic   string
	APIPort      string
	Environment  string
	LogLevel     string
	CORSOrigins  []string

	// HTTPPoolSize is the global cap on in-flight webhook deliveries.
	HTTPPoolSize int
	// FetchInterval is how long the event dispatcher idles between
	// fetches when the queue is drained.
	FetchInterval time.Duration
}

// FromEnv loads the application configuration from environment variables.
func FromEnv() App {
	return App{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		KafkaBrokers:  os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:    envOr("KAFKA_TOPIC", "webhook.invocations"),
		APIPort:       envOr("API_PORT", "8080"),
		Environment:   envOr("ENVIRONMENT", "production"),
		LogLevel:      envOr("LOG_LEVEL", "info"),
		CORSOrigins:   splitCSV(envOr("CORS_ORIGINS", "*")),
		HTTPPoolSize:  envInt("EVENTS_HTTP_POOL_SIZE", DefaultHTTPPoolSize),
		FetchInterval: time.Duration(envInt("EVENTS_FETCH_INTERVAL_MS", int(DefaultFetchInterval/time.Millisecond))) * time.Millisecond,
	}
}

// Brokers returns the Kafka broker list, empty when publishing is disabled.
func (a App) Brokers() []string {
	if a.KafkaBrokers == "" {
		return nil
	}
	return splitCSV(a.KafkaBrokers)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
