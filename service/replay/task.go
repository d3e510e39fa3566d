package replay

import (
	"github.com/gagliardetto/solana-go"
)

// AccountTask is one unit of replay work: a signing key, the encoded
// transaction template to replay, and how many times to replay it.
// Tasks are immutable once loaded and owned by a single replay loop.
type AccountTask struct {
	// SigningKey is the account's ed25519 private key (64 bytes).
	SigningKey solana.PrivateKey

	// Template is the wire-encoded transaction used as the replay template.
	// The loop never mutates it; each iteration decodes a fresh copy.
	Template []byte

	// RepeatCount is how many iterations the loop runs for this account.
	RepeatCount int
}

// Wallet returns the public key of the task's signing key.
func (t AccountTask) Wallet() solana.PublicKey {
	return t.SigningKey.PublicKey()
}
