package replay

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/Pengu1ncc/niuniu-script/service/metrics"
	"github.com/Pengu1ncc/niuniu-script/service/solana"
	solanago "github.com/gagliardetto/solana-go"
)

// Pipeline is the slice of the Solana client one replay iteration needs.
type Pipeline interface {
	FetchLatestBlockhash(ctx context.Context) (solanago.Hash, error)
	Submit(
		ctx context.Context,
		tx *solanago.Transaction,
		blockhash solanago.Hash,
		key solanago.PrivateKey,
	) (solanago.Signature, error)
}

// Outcome describes one iteration's terminal confirmation. It is what gets
// handed to sinks (database, NATS) after the poller returns.
type Outcome struct {
	WalletAddress string
	Signature     string
	Iteration     int
	RepeatCount   int
	State         solana.ConfirmationState
	ErrDetail     string
	SubmittedAt   time.Time
	ConfirmedAt   time.Time
}

// OutcomeSink receives terminal iteration outcomes. Sink errors are logged
// and never affect the loop.
type OutcomeSink interface {
	RecordOutcome(ctx context.Context, outcome Outcome) error
}

// LoopConfig tunes the inter-iteration jitter. Zero values fall back to the
// defaults the replay engine has always used.
type LoopConfig struct {
	// JitterMin and JitterMax bound the randomized sleep after each
	// confirmed iteration. Defaults: 2s and 5s. The jitter keeps repeated
	// submissions from the same account from forming an obvious cadence.
	JitterMin time.Duration
	JitterMax time.Duration
}

// Loop replays one account's template transaction. Each iteration fetches a
// fresh blockhash, decodes and perturbs the template, submits, and blocks on
// confirmation. The loop always runs exactly RepeatCount iterations: a
// failed iteration is logged and counted, never retried and never fatal.
type Loop struct {
	client  Pipeline
	poller  *Poller
	sinks   []OutcomeSink
	logger  *slog.Logger
	metrics *metrics.Metrics

	jitterMin time.Duration
	jitterMax time.Duration

	// test seams
	mutate    func(template []byte) (*solanago.Transaction, error)
	sleep     func(time.Duration)
	randFloat func() float64
}

// NewLoop creates a replay loop. sinks may be empty; if m is nil, no metrics
// will be recorded.
func NewLoop(client Pipeline, poller *Poller, cfg LoopConfig, sinks []OutcomeSink, m *metrics.Metrics, logger *slog.Logger) *Loop {
	jitterMin := cfg.JitterMin
	jitterMax := cfg.JitterMax
	if jitterMin <= 0 {
		jitterMin = 2 * time.Second
	}
	if jitterMax < jitterMin {
		jitterMax = 5 * time.Second
	}
	return &Loop{
		client:    client,
		poller:    poller,
		sinks:     sinks,
		logger:    logger,
		metrics:   m,
		jitterMin: jitterMin,
		jitterMax: jitterMax,
		mutate:    solana.Mutate,
		sleep:     time.Sleep,
		randFloat: rand.Float64,
	}
}

// Run executes the full replay loop for one account. It never returns an
// error: every failure is contained to its own iteration and reported
// through logs and metrics only.
func (l *Loop) Run(ctx context.Context, task AccountTask) {
	wallet := task.Wallet().String()

	l.logger.InfoContext(ctx, "starting replay loop",
		"wallet", wallet,
		"iterations", task.RepeatCount,
	)

	start := time.Now()
	if l.metrics != nil {
		l.metrics.RecordLoopActive(1)
		defer func() {
			l.metrics.RecordLoopActive(-1)
			l.metrics.RecordLoopDuration(wallet, time.Since(start).Seconds())
		}()
	}

	for i := 1; i <= task.RepeatCount; i++ {
		l.runIteration(ctx, task, wallet, i)
	}

	l.logger.InfoContext(ctx, "replay loop finished",
		"wallet", wallet,
		"iterations", task.RepeatCount,
		"duration_seconds", time.Since(start).Seconds(),
	)
}

// runIteration performs one submit→confirm→jitter cycle. Every error path
// returns normally so the caller advances to the next iteration.
func (l *Loop) runIteration(ctx context.Context, task AccountTask, wallet string, iteration int) {
	l.logger.InfoContext(ctx, "starting iteration",
		"wallet", wallet,
		"iteration", iteration,
		"total", task.RepeatCount,
	)

	blockhash, err := l.client.FetchLatestBlockhash(ctx)
	if err != nil {
		l.logger.ErrorContext(ctx, "iteration aborted: no blockhash",
			"wallet", wallet,
			"iteration", iteration,
			"error", err,
		)
		l.recordIteration(wallet, "blockhash_error")
		return
	}

	// Fresh decode per iteration; the shared template is never mutated.
	tx, err := l.mutate(task.Template)
	if err != nil {
		l.logger.ErrorContext(ctx, "iteration aborted: template mutation failed",
			"wallet", wallet,
			"iteration", iteration,
			"error", err,
		)
		l.recordIteration(wallet, "template_error")
		return
	}

	submittedAt := time.Now()
	sig, err := l.client.Submit(ctx, tx, blockhash, task.SigningKey)
	if err != nil {
		l.logger.ErrorContext(ctx, "iteration aborted: submission failed",
			"wallet", wallet,
			"iteration", iteration,
			"error", err,
		)
		l.recordIteration(wallet, "submit_error")
		return
	}

	conf, err := l.poller.Await(ctx, wallet, sig)
	if err != nil {
		// Only possible with a configured confirmation deadline.
		l.logger.WarnContext(ctx, "iteration left unconfirmed",
			"wallet", wallet,
			"iteration", iteration,
			"signature", sig.String(),
			"error", err,
		)
		l.recordIteration(wallet, "unconfirmed")
		return
	}

	status := "confirmed"
	if conf.State == solana.StateFailed {
		status = "confirmed_failed"
	}
	l.recordIteration(wallet, status)

	l.deliver(ctx, Outcome{
		WalletAddress: wallet,
		Signature:     sig.String(),
		Iteration:     iteration,
		RepeatCount:   task.RepeatCount,
		State:         conf.State,
		ErrDetail:     conf.ErrDetail,
		SubmittedAt:   submittedAt,
		ConfirmedAt:   time.Now(),
	})

	jitter := l.jitterMin + time.Duration(l.randFloat()*float64(l.jitterMax-l.jitterMin))
	l.logger.InfoContext(ctx, "sleeping before next iteration",
		"wallet", wallet,
		"iteration", iteration,
		"jitter_seconds", jitter.Seconds(),
	)
	l.sleep(jitter)
}

func (l *Loop) recordIteration(wallet, status string) {
	if l.metrics != nil {
		l.metrics.RecordIteration(wallet, status)
	}
}

// deliver hands the outcome to every sink. Sink failures are logged and
// swallowed; persistence and publishing are best-effort observers of the
// replay, not participants in it.
func (l *Loop) deliver(ctx context.Context, outcome Outcome) {
	for _, sink := range l.sinks {
		if err := sink.RecordOutcome(ctx, outcome); err != nil {
			l.logger.ErrorContext(ctx, "failed to record iteration outcome",
				"wallet", outcome.WalletAddress,
				"signature", outcome.Signature,
				"error", err,
			)
		}
	}
}
