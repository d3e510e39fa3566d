package solana

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Pengu1ncc/niuniu-script/service/metrics"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// RPCClient is an interface for the Solana RPC operations we need.
// This allows us to mock the RPC layer in tests without hitting real Solana nodes.
type RPCClient interface {
	GetLatestBlockhash(
		ctx context.Context,
		commitment rpc.CommitmentType,
	) (*rpc.GetLatestBlockhashResult, error)

	SendTransactionWithOpts(
		ctx context.Context,
		tx *solana.Transaction,
		opts rpc.TransactionOpts,
	) (solana.Signature, error)

	GetTransaction(
		ctx context.Context,
		signature solana.Signature,
		opts *rpc.GetTransactionOpts,
	) (*rpc.GetTransactionResult, error)
}

// ClientConfig tunes the client's retry behavior. Zero values fall back to
// the defaults the replay engine has always used.
type ClientConfig struct {
	// Endpoint is an RPC endpoint identifier for metrics labeling
	// (e.g., "mainnet", "devnet", rpc host).
	Endpoint string

	// BlockhashRetries is how many attempts a blockhash fetch makes
	// before giving up. Defaults to 5.
	BlockhashRetries int

	// BlockhashRetryWait is the fixed delay between attempts. Defaults to 500ms.
	BlockhashRetryWait time.Duration
}

// Client provides the RPC operations the replay engine needs: fetching a
// fresh blockhash with bounded retry, submitting a signed transaction, and
// querying confirmation status. It wraps the RPC client with domain-specific
// operations.
type Client struct {
	rpc      RPCClient
	logger   *slog.Logger
	metrics  *metrics.Metrics
	endpoint string

	retries   int
	retryWait time.Duration

	// sleep is replaced in tests to avoid real delays.
	sleep func(time.Duration)
}

// NewClient creates a new Solana client.
// If m is nil, no metrics will be recorded.
func NewClient(rpcClient RPCClient, cfg ClientConfig, m *metrics.Metrics, logger *slog.Logger) *Client {
	retries := cfg.BlockhashRetries
	if retries < 1 {
		retries = 5
	}
	retryWait := cfg.BlockhashRetryWait
	if retryWait <= 0 {
		retryWait = 500 * time.Millisecond
	}
	return &Client{
		rpc:       rpcClient,
		logger:    logger,
		metrics:   m,
		endpoint:  cfg.Endpoint,
		retries:   retries,
		retryWait: retryWait,
		sleep:     time.Sleep,
	}
}

// FetchLatestBlockhash fetches a fresh blockhash, retrying on failure with a
// fixed delay between attempts. It returns ErrBlockhashUnavailable once all
// attempts are exhausted. Blockhashes are never cached: every submission
// needs a fresh one or the network rejects it as stale.
func (c *Client) FetchLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		start := time.Now()
		result, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
		duration := time.Since(start).Seconds()

		status := "success"
		if err != nil {
			status = "error"
		}
		if c.metrics != nil {
			c.metrics.RecordRPCCall("GetLatestBlockhash", status, c.endpoint, duration)
		}

		if err == nil {
			if result == nil || result.Value == nil {
				err = fmt.Errorf("empty blockhash response")
			} else {
				return result.Value.Blockhash, nil
			}
		}

		lastErr = err
		c.logger.WarnContext(ctx, "failed to fetch latest blockhash",
			"attempt", attempt,
			"max_attempts", c.retries,
			"error", err,
		)
		if c.metrics != nil {
			c.metrics.RecordRPCRetry("GetLatestBlockhash", "fetch_error")
		}

		if attempt < c.retries {
			c.sleep(c.retryWait)
		}
	}

	c.logger.ErrorContext(ctx, "giving up on blockhash fetch",
		"attempts", c.retries,
		"error", lastErr,
	)
	return solana.Hash{}, fmt.Errorf("%w after %d attempts: %v", ErrBlockhashUnavailable, c.retries, lastErr)
}

// Submit binds the blockhash to the transaction, re-signs it with the
// account key, and broadcasts it with preflight checks skipped. Both the
// mutation and the blockhash refresh alter the signed payload, so the
// signature is always recomputed here.
func (c *Client) Submit(
	ctx context.Context,
	tx *solana.Transaction,
	blockhash solana.Hash,
	key solana.PrivateKey,
) (solana.Signature, error) {
	tx.Message.RecentBlockhash = blockhash

	wallet := key.PublicKey()
	_, err := tx.Sign(func(pub solana.PublicKey) *solana.PrivateKey {
		if pub.Equals(wallet) {
			return &key
		}
		return nil
	})
	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordSubmission(wallet.String(), "sign_error")
		}
		return solana.Signature{}, fmt.Errorf("failed to re-sign transaction: %w", err)
	}

	start := time.Now()
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight: true,
	})
	duration := time.Since(start).Seconds()

	status := "success"
	if err != nil {
		status = "error"
	}
	if c.metrics != nil {
		c.metrics.RecordRPCCall("SendTransaction", status, c.endpoint, duration)
		c.metrics.RecordSubmission(wallet.String(), status)
	}

	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to broadcast transaction: %w", err)
	}

	c.logger.InfoContext(ctx, "transaction submitted",
		"wallet", wallet.String(),
		"signature", sig.String(),
	)
	return sig, nil
}

// QueryStatus performs one confirmation query for a submitted transaction.
// A missing transaction or missing metadata is not an error: it maps to a
// non-terminal state and the poller tries again later. An error return means
// the query itself failed (transport, node) and is likewise retryable.
func (c *Client) QueryStatus(ctx context.Context, sig solana.Signature) (Confirmation, error) {
	opts := &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		MaxSupportedTransactionVersion: &[]uint64{0}[0],
	}

	start := time.Now()
	result, err := c.rpc.GetTransaction(ctx, sig, opts)
	duration := time.Since(start).Seconds()

	status := "success"
	if err != nil && !errors.Is(err, rpc.ErrNotFound) {
		status = "error"
	}
	if c.metrics != nil {
		c.metrics.RecordRPCCall("GetTransaction", status, c.endpoint, duration)
	}

	if errors.Is(err, rpc.ErrNotFound) {
		return Confirmation{State: StateNotFound}, nil
	}
	if err != nil {
		return Confirmation{}, fmt.Errorf("failed to query transaction status: %w", err)
	}
	if result == nil {
		return Confirmation{State: StateNotFound}, nil
	}
	if result.Meta == nil {
		return Confirmation{State: StatePendingMeta}, nil
	}
	if result.Meta.Err == nil {
		return Confirmation{State: StateSucceeded}, nil
	}
	return Confirmation{
		State:     StateFailed,
		ErrDetail: fmt.Sprintf("%v", result.Meta.Err),
	}, nil
}
