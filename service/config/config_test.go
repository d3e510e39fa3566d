package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValidConfig(t *testing.T) {
	os.Setenv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com")
	os.Setenv("DATASET_PATH", "transactions.csv")
	defer cleanupEnv()

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "https://api.mainnet-beta.solana.com", cfg.RPCURL)
	assert.Equal(t, "transactions.csv", cfg.DatasetPath)
	assert.Equal(t, "info", cfg.LogLevel) // Default
	assert.Equal(t, ":9091", cfg.MetricsAddr)
	assert.Equal(t, 5, cfg.BlockhashRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.BlockhashRetryWait)
	assert.Equal(t, 5*time.Second, cfg.ConfirmPollInterval)
	assert.Equal(t, time.Duration(0), cfg.ConfirmDeadline)
	assert.Equal(t, 2*time.Second, cfg.JitterMin)
	assert.Equal(t, 5*time.Second, cfg.JitterMax)
}

func TestLoad_MissingRPCURL(t *testing.T) {
	os.Setenv("DATASET_PATH", "transactions.csv")
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "SOLANA_RPC_URL is required")
}

func TestLoad_MissingDatasetPath(t *testing.T) {
	os.Setenv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com")
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "DATASET_PATH is required")
}

func TestLoad_InvalidPollInterval(t *testing.T) {
	os.Setenv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com")
	os.Setenv("DATASET_PATH", "transactions.csv")
	os.Setenv("CONFIRM_POLL_INTERVAL", "invalid")
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestLoad_JitterMinGreaterThanMax(t *testing.T) {
	os.Setenv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com")
	os.Setenv("DATASET_PATH", "transactions.csv")
	os.Setenv("JITTER_MIN", "10s")
	os.Setenv("JITTER_MAX", "3s")
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "cannot be greater than")
}

func TestLoad_CustomValues(t *testing.T) {
	os.Setenv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com")
	os.Setenv("DATASET_PATH", "wallets.csv")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("BLOCKHASH_RETRIES", "3")
	os.Setenv("BLOCKHASH_RETRY_WAIT", "250ms")
	os.Setenv("CONFIRM_DEADLINE", "2m")
	os.Setenv("NATS_URL", "nats://localhost:4222")
	os.Setenv("DATABASE_URL", "postgres://localhost/replays")
	defer cleanupEnv()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 3, cfg.BlockhashRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.BlockhashRetryWait)
	assert.Equal(t, 2*time.Minute, cfg.ConfirmDeadline)
	assert.Equal(t, "nats://localhost:4222", cfg.NATSURL)
	assert.Equal(t, "postgres://localhost/replays", cfg.DatabaseURL)
}

func TestLoad_InvalidRetries(t *testing.T) {
	os.Setenv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com")
	os.Setenv("DATASET_PATH", "transactions.csv")
	os.Setenv("BLOCKHASH_RETRIES", "zero")
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "invalid integer")
}

func TestValidate_ZeroRetries(t *testing.T) {
	cfg := &Config{
		RPCURL:              "https://api.mainnet-beta.solana.com",
		DatasetPath:         "transactions.csv",
		BlockhashRetries:    0,
		BlockhashRetryWait:  500 * time.Millisecond,
		ConfirmPollInterval: 5 * time.Second,
		JitterMin:           2 * time.Second,
		JitterMax:           5 * time.Second,
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BlockhashRetries must be at least 1")
}

func cleanupEnv() {
	vars := []string{
		"SOLANA_RPC_URL",
		"DATASET_PATH",
		"LOG_LEVEL",
		"METRICS_ADDR",
		"NATS_URL",
		"DATABASE_URL",
		"BLOCKHASH_RETRIES",
		"BLOCKHASH_RETRY_WAIT",
		"CONFIRM_POLL_INTERVAL",
		"CONFIRM_DEADLINE",
		"JITTER_MIN",
		"JITTER_MAX",
	}
	for _, v := range vars {
		os.Unsetenv(v)
	}
}
