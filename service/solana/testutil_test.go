package solana

import (
	"testing"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

// testProgramID is an arbitrary program for test instructions.
var testProgramID = solanago.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")

// newTestKey generates a throwaway signing key.
func newTestKey(t *testing.T) solanago.PrivateKey {
	t.Helper()
	key, err := solanago.NewRandomPrivateKey()
	require.NoError(t, err)
	return key
}

// buildTemplate creates a signed wire-encoded transaction with the given
// per-instruction data payloads, shaped like the replay templates the
// dataset carries.
func buildTemplate(t *testing.T, key solanago.PrivateKey, instructionData ...[]byte) []byte {
	t.Helper()

	payer := key.PublicKey()
	instructions := make([]solanago.Instruction, 0, len(instructionData))
	for _, data := range instructionData {
		instructions = append(instructions, solanago.NewInstruction(
			testProgramID,
			solanago.AccountMetaSlice{solanago.NewAccountMeta(payer, true, true)},
			data,
		))
	}

	tx, err := solanago.NewTransaction(
		instructions,
		solanago.Hash{},
		solanago.TransactionPayer(payer),
	)
	require.NoError(t, err)

	_, err = tx.Sign(func(pub solanago.PublicKey) *solanago.PrivateKey {
		if pub.Equals(payer) {
			return &key
		}
		return nil
	})
	require.NoError(t, err)

	raw, err := tx.MarshalBinary()
	require.NoError(t, err)
	return raw
}
