package solana

import (
	"testing"

	bin "github.com/gagliardetto/binary"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutate_OverwritesOnlyLastByteOfSecondInstruction(t *testing.T) {
	key := newTestKey(t)
	template := buildTemplate(t, key, []byte{0x01, 0x02}, []byte{0x10, 0x20, 0x30})
	original := append([]byte(nil), template...)

	tx, err := mutate(template, 0xAB)
	require.NoError(t, err)

	// The target byte carries the injected value.
	data := tx.Message.Instructions[1].Data
	require.Len(t, data, 3)
	assert.Equal(t, byte(0xAB), data[2])

	// Every other byte of the decoded transaction is untouched.
	assert.Equal(t, solanago.Base58{0x10, 0x20}, data[:2])
	assert.Equal(t, solanago.Base58{0x01, 0x02}, tx.Message.Instructions[0].Data)

	// The shared template buffer is never written to.
	assert.Equal(t, original, template)
}

func TestMutate_SingleByteData(t *testing.T) {
	key := newTestKey(t)
	template := buildTemplate(t, key, []byte{0x01}, []byte{0x99})

	tx, err := mutate(template, 0x00)
	require.NoError(t, err)
	assert.Equal(t, solanago.Base58{0x00}, tx.Message.Instructions[1].Data)
}

func TestMutate_FreshDecodePerCall(t *testing.T) {
	key := newTestKey(t)
	template := buildTemplate(t, key, []byte{0x01}, []byte{0x10, 0x20})

	tx1, err := mutate(template, 0x11)
	require.NoError(t, err)
	tx2, err := mutate(template, 0x22)
	require.NoError(t, err)

	// Each call produces its own transaction; mutations do not leak.
	assert.Equal(t, byte(0x11), tx1.Message.Instructions[1].Data[1])
	assert.Equal(t, byte(0x22), tx2.Message.Instructions[1].Data[1])
}

func TestMutate_RandomValueInRange(t *testing.T) {
	key := newTestKey(t)
	template := buildTemplate(t, key, []byte{0x01}, []byte{0x10, 0x20, 0x30})

	// Mutate repeatedly through the exported entry point; everything but
	// the last byte must always survive untouched.
	for i := 0; i < 32; i++ {
		tx, err := Mutate(template)
		require.NoError(t, err)
		data := tx.Message.Instructions[1].Data
		require.Len(t, data, 3)
		assert.Equal(t, solanago.Base58{0x10, 0x20}, data[:2])
	}
}

func TestMutate_TooFewInstructions(t *testing.T) {
	key := newTestKey(t)
	template := buildTemplate(t, key, []byte{0x01, 0x02})

	tx, err := Mutate(template)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedTemplate)
	assert.Nil(t, tx)
}

func TestMutate_EmptyTargetData(t *testing.T) {
	key := newTestKey(t)
	template := buildTemplate(t, key, []byte{0x01}, nil)

	tx, err := Mutate(template)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedTemplate)
	assert.Nil(t, tx)
}

func TestMutate_UndecodableTemplate(t *testing.T) {
	tx, err := Mutate([]byte{0xFF, 0x00, 0x01})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedTemplate)
	assert.Nil(t, tx)
}

func TestMutate_ResultSurvivesReencode(t *testing.T) {
	key := newTestKey(t)
	template := buildTemplate(t, key, []byte{0x01}, []byte{0x10, 0x20, 0x30})

	tx, err := mutate(template, 0x77)
	require.NoError(t, err)

	raw, err := tx.MarshalBinary()
	require.NoError(t, err)

	decoded, err := solanago.TransactionFromDecoder(bin.NewBinDecoder(raw))
	require.NoError(t, err)
	assert.Equal(t, byte(0x77), decoded.Message.Instructions[1].Data[2])
}
