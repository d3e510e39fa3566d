package db

import (
	"context"
	"testing"
	"time"

	"github.com/Pengu1ncc/niuniu-script/service/replay"
	"github.com/Pengu1ncc/niuniu-script/service/solana"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordOutcome(t *testing.T) {
	SkipIfNoTestDB(t)

	store := NewTestStore(t)
	defer store.Close()
	defer store.Cleanup(t)

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("record succeeded outcome", func(t *testing.T) {
		outcome := replay.Outcome{
			WalletAddress: "wallet123",
			Signature:     "sig123",
			Iteration:     1,
			RepeatCount:   3,
			State:         solana.StateSucceeded,
			SubmittedAt:   now,
			ConfirmedAt:   now.Add(5 * time.Second),
		}

		require.NoError(t, store.RecordOutcome(ctx, outcome))

		subs, err := store.ListSubmissionsByWallet(ctx, "wallet123", 10)
		require.NoError(t, err)
		require.Len(t, subs, 1)

		assert.Equal(t, "sig123", subs[0].Signature)
		assert.Equal(t, 1, subs[0].Iteration)
		assert.Equal(t, 3, subs[0].RepeatCount)
		assert.Equal(t, "succeeded", subs[0].Outcome)
		assert.Nil(t, subs[0].ErrDetail)
		assert.WithinDuration(t, now, subs[0].SubmittedAt, time.Microsecond)
	})

	t.Run("record failed outcome with detail", func(t *testing.T) {
		outcome := replay.Outcome{
			WalletAddress: "wallet123",
			Signature:     "sig456",
			Iteration:     2,
			RepeatCount:   3,
			State:         solana.StateFailed,
			ErrDetail:     `{"InstructionError":[1,"Custom"]}`,
			SubmittedAt:   now,
			ConfirmedAt:   now.Add(10 * time.Second),
		}

		require.NoError(t, store.RecordOutcome(ctx, outcome))

		subs, err := store.ListSubmissionsByWallet(ctx, "wallet123", 10)
		require.NoError(t, err)
		require.Len(t, subs, 2)

		// Most recent first.
		assert.Equal(t, "sig456", subs[0].Signature)
		assert.Equal(t, "failed", subs[0].Outcome)
		require.NotNil(t, subs[0].ErrDetail)
		assert.Contains(t, *subs[0].ErrDetail, "InstructionError")
	})

	t.Run("duplicate signature is a no-op", func(t *testing.T) {
		outcome := replay.Outcome{
			WalletAddress: "wallet123",
			Signature:     "sig123",
			Iteration:     1,
			RepeatCount:   3,
			State:         solana.StateSucceeded,
			SubmittedAt:   now,
			ConfirmedAt:   now,
		}

		require.NoError(t, store.RecordOutcome(ctx, outcome))

		subs, err := store.ListSubmissionsByWallet(ctx, "wallet123", 10)
		require.NoError(t, err)
		assert.Len(t, subs, 2)
	})
}

func TestCountSubmissionsByOutcome(t *testing.T) {
	SkipIfNoTestDB(t)

	store := NewTestStore(t)
	defer store.Close()
	defer store.Cleanup(t)

	ctx := context.Background()
	now := time.Now().UTC()

	outcomes := []replay.Outcome{
		{WalletAddress: "w1", Signature: "a", Iteration: 1, RepeatCount: 3, State: solana.StateSucceeded, SubmittedAt: now, ConfirmedAt: now},
		{WalletAddress: "w1", Signature: "b", Iteration: 2, RepeatCount: 3, State: solana.StateSucceeded, SubmittedAt: now, ConfirmedAt: now},
		{WalletAddress: "w1", Signature: "c", Iteration: 3, RepeatCount: 3, State: solana.StateFailed, ErrDetail: "boom", SubmittedAt: now, ConfirmedAt: now},
		{WalletAddress: "w2", Signature: "d", Iteration: 1, RepeatCount: 1, State: solana.StateSucceeded, SubmittedAt: now, ConfirmedAt: now},
	}
	for _, o := range outcomes {
		require.NoError(t, store.RecordOutcome(ctx, o))
	}

	counts, err := store.CountSubmissionsByOutcome(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts["succeeded"])
	assert.Equal(t, int64(1), counts["failed"])

	counts, err = store.CountSubmissionsByOutcome(ctx, "w2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts["succeeded"])
}
