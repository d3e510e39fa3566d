package replay

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Pengu1ncc/niuniu-script/service/metrics"
	"github.com/Pengu1ncc/niuniu-script/service/solana"
	solanago "github.com/gagliardetto/solana-go"
)

// ErrConfirmationDeadline is returned by Await when a confirmation deadline
// is configured and the submission did not reach a terminal state in time.
var ErrConfirmationDeadline = errors.New("confirmation deadline exceeded")

// Confirmer is the slice of the Solana client the poller needs.
type Confirmer interface {
	QueryStatus(ctx context.Context, sig solanago.Signature) (solana.Confirmation, error)
}

// Poller blocks until a submitted transaction reaches a terminal
// confirmation state. Non-terminal states (signature unknown, metadata not
// yet produced) and query failures are both retried after a fixed delay.
//
// With no deadline configured the poll is unbounded: a transaction the
// network never confirms stalls its own account's loop forever. That is the
// historical behavior and only affects the one account.
type Poller struct {
	client   Confirmer
	logger   *slog.Logger
	metrics  *metrics.Metrics
	interval time.Duration
	deadline time.Duration

	// sleep is replaced in tests to avoid real delays.
	sleep func(time.Duration)
}

// NewPoller creates a confirmation poller. interval is the fixed delay
// between status queries; deadline bounds the whole poll, with zero meaning
// no bound. If m is nil, no metrics will be recorded.
func NewPoller(client Confirmer, interval, deadline time.Duration, m *metrics.Metrics, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{
		client:   client,
		logger:   logger,
		metrics:  m,
		interval: interval,
		deadline: deadline,
		sleep:    time.Sleep,
	}
}

// Await polls the submission's status until it is terminal and returns the
// terminal confirmation. A StateFailed confirmation is a normal return, not
// an error: the caller logs it and moves on. The only error Await can
// return is ErrConfirmationDeadline, and only when a deadline is configured.
func (p *Poller) Await(ctx context.Context, wallet string, sig solanago.Signature) (solana.Confirmation, error) {
	start := time.Now()

	for {
		conf, err := p.client.QueryStatus(ctx, sig)
		if err != nil {
			// Query failures are transient by definition here; the
			// signature may still confirm on a later poll.
			p.logger.WarnContext(ctx, "confirmation query failed, will retry",
				"wallet", wallet,
				"signature", sig.String(),
				"error", err,
			)
			if p.metrics != nil {
				p.metrics.RecordConfirmationPoll(wallet, "query_error")
			}
		} else {
			if p.metrics != nil {
				p.metrics.RecordConfirmationPoll(wallet, conf.State.String())
			}

			switch conf.State {
			case solana.StateSucceeded:
				p.logger.InfoContext(ctx, "transaction confirmed",
					"wallet", wallet,
					"signature", sig.String(),
					"wait_seconds", time.Since(start).Seconds(),
				)
				if p.metrics != nil {
					p.metrics.RecordConfirmationWait(wallet, time.Since(start).Seconds())
				}
				return conf, nil

			case solana.StateFailed:
				p.logger.WarnContext(ctx, "transaction failed on-chain",
					"wallet", wallet,
					"signature", sig.String(),
					"error_detail", conf.ErrDetail,
				)
				if p.metrics != nil {
					p.metrics.RecordConfirmationWait(wallet, time.Since(start).Seconds())
				}
				return conf, nil

			case solana.StateNotFound:
				p.logger.DebugContext(ctx, "transaction not found yet",
					"wallet", wallet,
					"signature", sig.String(),
				)

			case solana.StatePendingMeta:
				p.logger.DebugContext(ctx, "transaction metadata not available yet",
					"wallet", wallet,
					"signature", sig.String(),
				)
			}
		}

		if p.deadline > 0 && time.Since(start) >= p.deadline {
			p.logger.WarnContext(ctx, "giving up on confirmation",
				"wallet", wallet,
				"signature", sig.String(),
				"deadline", p.deadline,
			)
			return solana.Confirmation{}, ErrConfirmationDeadline
		}

		p.sleep(p.interval)
	}
}
