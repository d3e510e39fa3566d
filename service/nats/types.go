package nats

import (
	"time"

	"github.com/Pengu1ncc/niuniu-script/service/replay"
)

// ReplayEvent represents a terminal replay iteration outcome published to
// NATS. This is published to the subject "replays.{wallet_address}" in
// JetStream.
type ReplayEvent struct {
	// Transaction identifiers
	Signature string `json:"signature"`

	// Wallet information
	WalletAddress string `json:"wallet_address"`

	// Replay progress
	Iteration   int `json:"iteration"`
	RepeatCount int `json:"repeat_count"`

	// Confirmation result
	Outcome   string `json:"outcome"` // "succeeded" or "failed"
	ErrDetail string `json:"err_detail,omitempty"`

	// Timing information
	SubmittedAt time.Time `json:"submitted_at"`
	ConfirmedAt time.Time `json:"confirmed_at"`

	// Metadata
	PublishedAt time.Time `json:"published_at"`
}

// FromOutcome converts a replay outcome to a ReplayEvent for publishing.
func FromOutcome(outcome replay.Outcome) *ReplayEvent {
	return &ReplayEvent{
		Signature:     outcome.Signature,
		WalletAddress: outcome.WalletAddress,
		Iteration:     outcome.Iteration,
		RepeatCount:   outcome.RepeatCount,
		Outcome:       outcome.State.String(),
		ErrDetail:     outcome.ErrDetail,
		SubmittedAt:   outcome.SubmittedAt,
		ConfirmedAt:   outcome.ConfirmedAt,
		PublishedAt:   time.Now().UTC(),
	}
}
