package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Platform API
	PlatformAPIURL string
	PlatformAPIKey string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Query cache
	CacheTTL     time.Duration
	CacheTimeout time.Duration

	// Dialog sessions
	SessionTTL time.Duration

	// User search
	SearchDebounce time.Duration
	SearchLimit    int
	SearchTimeout  time.Duration

	// Provisioning
	DefaultApplicationFee float64

	// Notifications
	NoticeRingSize int

	// Observability
	OTLPEndpoint string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		PlatformAPIURL: getEnv("PLATFORM_API_URL", "http://localhost:8081"),
		PlatformAPIKey: getEnv("PLATFORM_API_KEY", ""),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		CacheTTL:     getEnvDuration("CACHE_TTL", 5*time.Minute),
		CacheTimeout: getEnvDuration("CACHE_REFETCH_TIMEOUT", 10*time.Second),

		SessionTTL: getEnvDuration("SESSION_TTL", 30*time.Minute),

		SearchDebounce: getEnvDuration("SEARCH_DEBOUNCE", 500*time.Millisecond),
		SearchLimit:    getEnvInt("SEARCH_LIMIT", 10),
		SearchTimeout:  getEnvDuration("SEARCH_TIMEOUT", 10*time.Second),

		DefaultApplicationFee: getEnvFloat("DEFAULT_APPLICATION_FEE", 20),

		NoticeRingSize: getEnvInt("NOTICE_RING_SIZE", 50),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
