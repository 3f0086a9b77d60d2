package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	APIPort  string
	LogLevel string

	PostgresDSN    string
	PersistReports bool

	NATSURL            string
	NATSRequestSubject string
	NATSResultSubject  string
	NATSQueueGroup     string

	APIRateLimitRPS     float64
	APIRateLimitBurst   int
	APIMaxInFlight      int
	APIMaxBodyBytes     int64
	APIBackpressureWait time.Duration

	EngineConfigPath string
	EngineRegion     string
	EngineWorkers    int

	WorkerMetricsPort    string
	WorkerTimeoutSeconds int

	ResilienceMaxAttempts        int
	ResiliencePublishAttempts    int
	ResilienceInitialBackoff     time.Duration
	ResilienceMaxBackoff         time.Duration
	ResilienceBreakerEnabled     bool
	ResilienceBreakerMinRequests int
	ResilienceBreakerFailureRate float64
	ResilienceBreakerOpenTimeout time.Duration
}

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		PostgresDSN:    mustEnv("POSTGRES_DSN", ""),
		PersistReports: mustEnvBool("PERSIST_REPORTS", true),

		NATSURL:            mustEnv("NATS_URL", ""),
		NATSRequestSubject: mustEnv("NATS_REQUEST_SUBJECT", "shipments.validate"),
		NATSResultSubject:  mustEnv("NATS_RESULT_SUBJECT", "shipments.validated"),
		NATSQueueGroup:     mustEnv("NATS_QUEUE_GROUP", "validators"),

		APIRateLimitRPS:     mustEnvFloat("API_RATE_LIMIT_RPS", 20),
		APIRateLimitBurst:   mustEnvInt("API_RATE_LIMIT_BURST", 40),
		APIMaxInFlight:      mustEnvInt("API_MAX_IN_FLIGHT", 32),
		APIMaxBodyBytes:     int64(mustEnvInt("API_MAX_BODY_BYTES", 4<<20)),
		APIBackpressureWait: time.Duration(mustEnvInt("API_BACKPRESSURE_WAIT_MS", 250)) * time.Millisecond,

		EngineConfigPath: mustEnv("ENGINE_CONFIG_PATH", ""),
		EngineRegion:     mustEnv("ENGINE_REGION", ""),
		EngineWorkers:    mustEnvInt("ENGINE_WORKERS", 0),

		WorkerMetricsPort:    mustEnv("WORKER_METRICS_PORT", "9090"),
		WorkerTimeoutSeconds: mustEnvInt("WORKER_TIMEOUT_SECONDS", 30),

		ResilienceMaxAttempts:        mustEnvInt("RESILIENCE_MAX_ATTEMPTS", 3),
		ResiliencePublishAttempts:    mustEnvInt("RESILIENCE_PUBLISH_MAX_ATTEMPTS", 5),
		ResilienceInitialBackoff:     time.Duration(mustEnvInt("RESILIENCE_INITIAL_BACKOFF_MS", 100)) * time.Millisecond,
		ResilienceMaxBackoff:         time.Duration(mustEnvInt("RESILIENCE_MAX_BACKOFF_MS", 400)) * time.Millisecond,
		ResilienceBreakerEnabled:     mustEnvBool("RESILIENCE_BREAKER_ENABLED", true),
		ResilienceBreakerMinRequests: mustEnvInt("RESILIENCE_BREAKER_MIN_REQUESTS", 10),
		ResilienceBreakerFailureRate: mustEnvFloat("RESILIENCE_BREAKER_FAILURE_RATIO", 0.5),
		ResilienceBreakerOpenTimeout: time.Duration(mustEnvInt("RESILIENCE_BREAKER_OPEN_SECONDS", 30)) * time.Second,
	}
}

// PersistenceEnabled reports whether runs should be written to postgres.
func (c Config) PersistenceEnabled() bool {
	return c.PersistReports && c.PostgresDSN != ""
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
