package db

import (
	"context"
	"time"

	"github.com/Pengu1ncc/niuniu-script/service/metrics"
	"github.com/Pengu1ncc/niuniu-script/service/replay"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides database operations for the replay audit trail.
type Store struct {
	pool    *pgxpool.Pool
	metrics *metrics.Metrics
}

// NewStore creates a new Store with the given database connection pool.
// If m is nil, no metrics will be recorded.
func NewStore(pool *pgxpool.Pool, m *metrics.Metrics) *Store {
	return &Store{
		pool:    pool,
		metrics: m,
	}
}

// Submission represents one recorded replay iteration outcome.
type Submission struct {
	ID            int64
	Signature     string
	WalletAddress string
	Iteration     int
	RepeatCount   int
	Outcome       string // "succeeded" or "failed"
	ErrDetail     *string
	SubmittedAt   time.Time
	ConfirmedAt   time.Time
	CreatedAt     time.Time
}

// RecordOutcome implements replay.OutcomeSink by inserting the terminal
// iteration outcome into the replay_submissions table.
func (s *Store) RecordOutcome(ctx context.Context, outcome replay.Outcome) error {
	var errDetail *string
	if outcome.ErrDetail != "" {
		errDetail = &outcome.ErrDetail
	}

	start := time.Now()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO replay_submissions
			(signature, wallet_address, iteration, repeat_count, outcome, err_detail, submitted_at, confirmed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (signature) DO NOTHING`,
		outcome.Signature,
		outcome.WalletAddress,
		outcome.Iteration,
		outcome.RepeatCount,
		outcome.State.String(),
		errDetail,
		outcome.SubmittedAt,
		outcome.ConfirmedAt,
	)
	if s.metrics != nil {
		s.metrics.RecordDBQuery("insert", "replay_submissions", time.Since(start).Seconds(), err)
	}
	return err
}

// ListSubmissionsByWallet retrieves recorded submissions for a wallet,
// most recent first.
func (s *Store) ListSubmissionsByWallet(ctx context.Context, walletAddress string, limit int32) ([]*Submission, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx, `
		SELECT id, signature, wallet_address, iteration, repeat_count, outcome, err_detail, submitted_at, confirmed_at, created_at
		FROM replay_submissions
		WHERE wallet_address = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		walletAddress, limit,
	)
	if s.metrics != nil {
		s.metrics.RecordDBQuery("select", "replay_submissions", time.Since(start).Seconds(), err)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*Submission
	for rows.Next() {
		var sub Submission
		if err := rows.Scan(
			&sub.ID,
			&sub.Signature,
			&sub.WalletAddress,
			&sub.Iteration,
			&sub.RepeatCount,
			&sub.Outcome,
			&sub.ErrDetail,
			&sub.SubmittedAt,
			&sub.ConfirmedAt,
			&sub.CreatedAt,
		); err != nil {
			return nil, err
		}
		subs = append(subs, &sub)
	}
	return subs, rows.Err()
}

// CountSubmissionsByOutcome returns how many submissions a wallet has
// recorded per outcome.
func (s *Store) CountSubmissionsByOutcome(ctx context.Context, walletAddress string) (map[string]int64, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx, `
		SELECT outcome, COUNT(*)
		FROM replay_submissions
		WHERE wallet_address = $1
		GROUP BY outcome`,
		walletAddress,
	)
	if s.metrics != nil {
		s.metrics.RecordDBQuery("select", "replay_submissions", time.Since(start).Seconds(), err)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var outcome string
		var count int64
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, err
		}
		counts[outcome] = count
	}
	return counts, rows.Err()
}

// EnsureSchema creates the replay_submissions table if it does not exist.
// The run command calls this on startup so a fresh database works without a
// separate migration step.
func (s *Store) EnsureSchema(ctx context.Context) error {
	start := time.Now()
	_, err := s.pool.Exec(ctx, schema)
	if s.metrics != nil {
		s.metrics.RecordDBQuery("ddl", "replay_submissions", time.Since(start).Seconds(), err)
	}
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS replay_submissions (
	id             BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	signature      TEXT NOT NULL UNIQUE,
	wallet_address TEXT NOT NULL,
	iteration      INTEGER NOT NULL,
	repeat_count   INTEGER NOT NULL,
	outcome        TEXT NOT NULL,
	err_detail     TEXT,
	submitted_at   TIMESTAMPTZ NOT NULL,
	confirmed_at   TIMESTAMPTZ NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_replay_submissions_wallet
	ON replay_submissions (wallet_address, created_at DESC);
`
