package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
// All required fields are validated at startup to ensure fail-fast behavior.
type Config struct {
	// Logging configuration
	LogLevel string

	// Solana configuration
	RPCURL string

	// Dataset configuration
	DatasetPath string

	// Metrics configuration
	MetricsAddr string

	// NATS configuration (optional; outcome events are published when set)
	NATSURL string

	// Database configuration (optional; submissions are recorded when set)
	DatabaseURL string

	// Blockhash fetch configuration
	BlockhashRetries   int
	BlockhashRetryWait time.Duration

	// Confirmation polling configuration
	ConfirmPollInterval time.Duration
	// ConfirmDeadline bounds a single confirmation poll. Zero means poll
	// forever, which matches the historical behavior of the replay loop.
	ConfirmDeadline time.Duration

	// Inter-iteration jitter configuration
	JitterMin time.Duration
	JitterMax time.Duration
}

// Load reads configuration from environment variables and validates all required fields.
// Returns an error if any required configuration is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}
	var errs []error

	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	// Solana configuration
	cfg.RPCURL = os.Getenv("SOLANA_RPC_URL")
	if cfg.RPCURL == "" {
		errs = append(errs, fmt.Errorf("SOLANA_RPC_URL is required"))
	}

	// Dataset configuration
	cfg.DatasetPath = os.Getenv("DATASET_PATH")
	if cfg.DatasetPath == "" {
		errs = append(errs, fmt.Errorf("DATASET_PATH is required"))
	}

	// Metrics configuration
	cfg.MetricsAddr = getEnvOrDefault("METRICS_ADDR", ":9091")

	// Optional integrations
	cfg.NATSURL = os.Getenv("NATS_URL")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	// Blockhash fetch configuration
	retries, err := parseInt("BLOCKHASH_RETRIES", 5)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.BlockhashRetries = retries
	}

	retryWait, err := parseDuration("BLOCKHASH_RETRY_WAIT", "500ms")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.BlockhashRetryWait = retryWait
	}

	// Confirmation polling configuration
	pollInterval, err := parseDuration("CONFIRM_POLL_INTERVAL", "5s")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.ConfirmPollInterval = pollInterval
	}

	deadline, err := parseDuration("CONFIRM_DEADLINE", "0s")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.ConfirmDeadline = deadline
	}

	// Jitter configuration
	jitterMin, err := parseDuration("JITTER_MIN", "2s")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.JitterMin = jitterMin
	}

	jitterMax, err := parseDuration("JITTER_MAX", "5s")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.JitterMax = jitterMax
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %v", errs)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MustLoad is like Load but panics if configuration is invalid.
// Useful for process initialization where misconfiguration should halt startup.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks if the configuration is valid.
// This is useful for testing configuration without loading from env.
func (c *Config) Validate() error {
	var errs []error

	if c.RPCURL == "" {
		errs = append(errs, fmt.Errorf("RPCURL is required"))
	}

	if c.DatasetPath == "" {
		errs = append(errs, fmt.Errorf("DatasetPath is required"))
	}

	if c.BlockhashRetries < 1 {
		errs = append(errs, fmt.Errorf("BlockhashRetries must be at least 1"))
	}

	if c.BlockhashRetryWait <= 0 {
		errs = append(errs, fmt.Errorf("BlockhashRetryWait must be positive"))
	}

	if c.ConfirmPollInterval <= 0 {
		errs = append(errs, fmt.Errorf("ConfirmPollInterval must be positive"))
	}

	if c.ConfirmDeadline < 0 {
		errs = append(errs, fmt.Errorf("ConfirmDeadline cannot be negative"))
	}

	if c.JitterMin < 0 {
		errs = append(errs, fmt.Errorf("JitterMin cannot be negative"))
	}

	if c.JitterMin > c.JitterMax {
		errs = append(errs, fmt.Errorf("JitterMin (%v) cannot be greater than JitterMax (%v)",
			c.JitterMin, c.JitterMax))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

// getEnvOrDefault returns the environment variable value or a default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration from an environment variable or uses a default.
func parseDuration(key, defaultValue string) (time.Duration, error) {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return duration, nil
}

// parseInt parses an integer from an environment variable or uses a default.
func parseInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, value, err)
	}
	return result, nil
}
