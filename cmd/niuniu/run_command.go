package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Pengu1ncc/niuniu-script/service/config"
	"github.com/Pengu1ncc/niuniu-script/service/dataset"
	"github.com/Pengu1ncc/niuniu-script/service/db"
	"github.com/Pengu1ncc/niuniu-script/service/metrics"
	natspkg "github.com/Pengu1ncc/niuniu-script/service/nats"
	"github.com/Pengu1ncc/niuniu-script/service/replay"
	"github.com/Pengu1ncc/niuniu-script/service/solana"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the replay loops for every account in the dataset",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "rpc-url",
				Usage:   "Solana RPC endpoint URL",
				EnvVars: []string{"SOLANA_RPC_URL"},
			},
			&cli.StringFlag{
				Name:    "dataset",
				Aliases: []string{"d"},
				Usage:   "Path to the CSV dataset (private_key, data, repeat_count)",
				EnvVars: []string{"DATASET_PATH"},
			},
			&cli.StringFlag{
				Name:    "metrics-addr",
				Usage:   "Prometheus metrics listen address",
				EnvVars: []string{"METRICS_ADDR"},
				Value:   ":9091",
			},
			&cli.StringFlag{
				Name:    "nats-url",
				Usage:   "NATS server URL (outcome events are published when set)",
				EnvVars: []string{"NATS_URL"},
			},
			&cli.IntFlag{
				Name:    "blockhash-retries",
				Usage:   "Attempts for each blockhash fetch",
				EnvVars: []string{"BLOCKHASH_RETRIES"},
				Value:   5,
			},
			&cli.DurationFlag{
				Name:    "blockhash-retry-wait",
				Usage:   "Delay between blockhash fetch attempts",
				EnvVars: []string{"BLOCKHASH_RETRY_WAIT"},
				Value:   500 * time.Millisecond,
			},
			&cli.DurationFlag{
				Name:    "confirm-poll-interval",
				Usage:   "Delay between confirmation status queries",
				EnvVars: []string{"CONFIRM_POLL_INTERVAL"},
				Value:   5 * time.Second,
			},
			&cli.DurationFlag{
				Name:    "confirm-deadline",
				Usage:   "Bound on a single confirmation poll (0 = poll forever)",
				EnvVars: []string{"CONFIRM_DEADLINE"},
			},
			&cli.DurationFlag{
				Name:    "jitter-min",
				Usage:   "Minimum sleep between iterations",
				EnvVars: []string{"JITTER_MIN"},
				Value:   2 * time.Second,
			},
			&cli.DurationFlag{
				Name:    "jitter-max",
				Usage:   "Maximum sleep between iterations",
				EnvVars: []string{"JITTER_MAX"},
				Value:   5 * time.Second,
			},
		},
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	cfg := &config.Config{
		LogLevel:            c.String("log-level"),
		RPCURL:              c.String("rpc-url"),
		DatasetPath:         c.String("dataset"),
		MetricsAddr:         c.String("metrics-addr"),
		NATSURL:             c.String("nats-url"),
		DatabaseURL:         c.String("database-url"),
		BlockhashRetries:    c.Int("blockhash-retries"),
		BlockhashRetryWait:  c.Duration("blockhash-retry-wait"),
		ConfirmPollInterval: c.Duration("confirm-poll-interval"),
		ConfirmDeadline:     c.Duration("confirm-deadline"),
		JitterMin:           c.Duration("jitter-min"),
		JitterMax:           c.Duration("jitter-max"),
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := setupLogger(cfg.LogLevel)
	logger.Info("starting replay run",
		"rpc_url", cfg.RPCURL,
		"dataset", cfg.DatasetPath,
		"log_level", cfg.LogLevel,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load the dataset before anything else; a malformed dataset aborts the
	// whole run before any transaction is sent.
	tasks, err := dataset.Load(cfg.DatasetPath)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	if len(tasks) == 0 {
		return fmt.Errorf("dataset %s contains no account tasks", cfg.DatasetPath)
	}
	logger.Info("dataset loaded", "accounts", len(tasks))

	// Initialize Prometheus metrics collector
	metricsCollector := metrics.NewMetrics(nil) // nil uses default registry

	// Start metrics HTTP server
	metricsServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: promhttp.Handler(),
	}
	go func() {
		logger.Info("starting metrics HTTP server", "addr", cfg.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown metrics server", "error", err)
		}
	}()

	// Initialize Solana RPC client
	client := solana.NewClient(
		solana.NewRPCClient(cfg.RPCURL),
		solana.ClientConfig{
			Endpoint:           endpointLabel(cfg.RPCURL),
			BlockhashRetries:   cfg.BlockhashRetries,
			BlockhashRetryWait: cfg.BlockhashRetryWait,
		},
		metricsCollector,
		logger,
	)

	// Optional outcome sinks: database audit trail and NATS events.
	var sinks []replay.OutcomeSink

	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("failed to ping database: %w", err)
		}

		store := db.NewStore(pool, metricsCollector)
		if err := store.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("failed to ensure database schema: %w", err)
		}
		sinks = append(sinks, store)
		logger.Info("recording submissions to database")
	}

	if cfg.NATSURL != "" {
		publisher, err := natspkg.NewPublisher(cfg.NATSURL, metricsCollector, logger)
		if err != nil {
			return fmt.Errorf("failed to create NATS publisher: %w", err)
		}
		defer publisher.Close()
		sinks = append(sinks, publisher)
		logger.Info("publishing outcomes to NATS", "url", cfg.NATSURL)
	}

	// Wire the replay engine and run every account to completion.
	poller := replay.NewPoller(client, cfg.ConfirmPollInterval, cfg.ConfirmDeadline, metricsCollector, logger)
	loop := replay.NewLoop(client, poller, replay.LoopConfig{
		JitterMin: cfg.JitterMin,
		JitterMax: cfg.JitterMax,
	}, sinks, metricsCollector, logger)
	scheduler := replay.NewScheduler(loop, logger)

	scheduler.RunAll(ctx, tasks)

	logger.Info("replay run complete", "accounts", len(tasks))
	return nil
}

// endpointLabel derives a short metrics label from the RPC URL so endpoint
// API keys embedded in the URL never end up in metric labels.
func endpointLabel(rpcURL string) string {
	u, err := url.Parse(rpcURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	host := u.Host

	for _, provider := range []string{"helius", "quiknode", "alchemy", "rpcpool"} {
		if strings.Contains(host, provider) {
			return provider
		}
	}
	for _, network := range []string{"mainnet", "devnet", "testnet"} {
		if strings.Contains(host, network) {
			return network
		}
	}
	return host
}
