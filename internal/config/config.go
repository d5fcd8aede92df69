package config

import (
	"os"
	"strconv"
	"time"

	"github.com/kirillkom/resume-categorizer/internal/infrastructure/resilience"
)

type Config struct {
	APIPort  string
	LogLevel string

	OutputDir     string
	OutputBaseDir string

	VectorizerPath       string
	ClassifierPath       string
	CategoryRegistryPath string

	MaxUploadBytes int64

	NATSURL     string
	NATSSubject string

	InboxDir             string
	InboxSettleMS        int
	InboxRemoveProcessed bool

	WorkerMetricsPort string

	APIRateLimitRPS       float64
	APIRateLimitBurst     int
	APIMaxInFlight        int
	APIBackpressureWaitMS int

	FilingRetryMaxAttempts      int
	FilingRetryInitialBackoffMS int
	FilingBreakerEnabled        bool
}

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		OutputDir:     mustEnv("OUTPUT_DIR", "categorized_resumes"),
		OutputBaseDir: mustEnv("OUTPUT_BASE_DIR", "."),

		VectorizerPath:       mustEnv("VECTORIZER_PATH", "models/tfidf.json"),
		ClassifierPath:       mustEnv("CLASSIFIER_PATH", "models/model.json"),
		CategoryRegistryPath: mustEnv("CATEGORY_REGISTRY_PATH", ""),

		MaxUploadBytes: int64(mustEnvInt("MAX_UPLOAD_BYTES", 32<<20)),

		NATSURL:     mustEnv("NATS_URL", ""),
		NATSSubject: mustEnv("NATS_SUBJECT", "resume.filed"),

		InboxDir:             mustEnv("INBOX_DIR", "./inbox"),
		InboxSettleMS:        mustEnvInt("INBOX_SETTLE_MS", 500),
		InboxRemoveProcessed: mustEnvBool("INBOX_REMOVE_PROCESSED", false),

		WorkerMetricsPort: mustEnv("WORKER_METRICS_PORT", "9090"),

		APIRateLimitRPS:       mustEnvFloat("API_RATE_LIMIT_RPS", 0),
		APIRateLimitBurst:     mustEnvInt("API_RATE_LIMIT_BURST", 10),
		APIMaxInFlight:        mustEnvInt("API_MAX_IN_FLIGHT", 0),
		APIBackpressureWaitMS: mustEnvInt("API_BACKPRESSURE_WAIT_MS", 250),

		FilingRetryMaxAttempts:      mustEnvInt("FILING_RETRY_MAX_ATTEMPTS", 3),
		FilingRetryInitialBackoffMS: mustEnvInt("FILING_RETRY_INITIAL_BACKOFF_MS", 50),
		FilingBreakerEnabled:        mustEnvBool("FILING_BREAKER_ENABLED", true),
	}
}

// Resilience derives the executor policy for filesystem writes and event publishing.
func (c Config) Resilience() resilience.Config {
	out := resilience.DefaultConfig()
	if c.FilingRetryMaxAttempts > 0 {
		out.RetryMaxAttempts = c.FilingRetryMaxAttempts
	}
	if c.FilingRetryInitialBackoffMS > 0 {
		out.RetryInitialBackoff = time.Duration(c.FilingRetryInitialBackoffMS) * time.Millisecond
	}
	out.BreakerEnabled = c.FilingBreakerEnabled
	return out
}

func (c Config) InboxSettle() time.Duration {
	return time.Duration(c.InboxSettleMS) * time.Millisecond
}

func (c Config) BackpressureWait() time.Duration {
	return time.Duration(c.APIBackpressureWaitMS) * time.Millisecond
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
