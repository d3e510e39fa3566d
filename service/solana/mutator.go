package solana

import (
	"fmt"
	"math/rand"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// mutatedInstructionIndex is the instruction whose data gets perturbed.
// The replay templates always carry the payload of interest as the second
// instruction; anything else is a template-format error.
const mutatedInstructionIndex = 1

// Mutate decodes the wire-encoded template into a fresh transaction and
// overwrites the last byte of the second instruction's data with a random
// value. The perturbation makes otherwise-identical replayed transactions
// distinct on-chain, so the network's duplicate detection does not swallow
// them. The template itself is never touched; every call decodes its own
// copy, so concurrent replay loops can share one template safely.
func Mutate(template []byte) (*solana.Transaction, error) {
	return mutate(template, byte(rand.Intn(256)))
}

func mutate(template []byte, value byte) (*solana.Transaction, error) {
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(template))
	if err != nil {
		return nil, fmt.Errorf("%w: decode failed: %v", ErrMalformedTemplate, err)
	}

	if n := len(tx.Message.Instructions); n <= mutatedInstructionIndex {
		return nil, fmt.Errorf("%w: expected at least %d instructions, got %d",
			ErrMalformedTemplate, mutatedInstructionIndex+1, n)
	}

	data := tx.Message.Instructions[mutatedInstructionIndex].Data
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: instruction %d has empty data",
			ErrMalformedTemplate, mutatedInstructionIndex)
	}

	// The decoder may alias instruction data into the template buffer, so
	// write into a copy rather than corrupting the shared template.
	buf := make([]byte, len(data))
	copy(buf, data)
	buf[len(buf)-1] = value
	tx.Message.Instructions[mutatedInstructionIndex].Data = buf

	return tx, nil
}
