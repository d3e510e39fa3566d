package solana

import (
	"errors"
)

// Sentinel errors for the replay pipeline. Callers match these with
// errors.Is; the wrapped cause carries the underlying RPC or decode error.
var (
	// ErrBlockhashUnavailable means the latest-blockhash query failed on
	// every retry attempt. The current iteration cannot proceed.
	ErrBlockhashUnavailable = errors.New("blockhash unavailable")

	// ErrMalformedTemplate means the transaction template does not have
	// the shape the mutator requires: decodable, at least two
	// instructions, and non-empty data on the second one.
	ErrMalformedTemplate = errors.New("malformed transaction template")
)

// ConfirmationState classifies one status query for a submitted transaction.
type ConfirmationState int

const (
	// StateNotFound means the node does not know the signature yet.
	StateNotFound ConfirmationState = iota

	// StatePendingMeta means the transaction is present but its metadata
	// has not been produced yet.
	StatePendingMeta

	// StateSucceeded means metadata is present with no error. Terminal.
	StateSucceeded

	// StateFailed means metadata is present with an on-chain error. Terminal:
	// the replay loop records it and moves on rather than retrying.
	StateFailed
)

// Terminal reports whether the state ends the confirmation poll.
func (s ConfirmationState) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

func (s ConfirmationState) String() string {
	switch s {
	case StateNotFound:
		return "not_found"
	case StatePendingMeta:
		return "pending_meta"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Confirmation is the result of one status query for a submitted transaction.
type Confirmation struct {
	State ConfirmationState

	// ErrDetail carries the on-chain error description for StateFailed.
	ErrDetail string
}
