package block

import (
	"testing"

	"github.com/blockrelay/corenode/pkg/core/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderHashDeterministic(t *testing.T) {
	h := &Header{Version: 0, Index: 1, Timestamp: 111}
	h2 := &Header{Version: 0, Index: 1, Timestamp: 111}
	assert.Equal(t, h.Hash(), h2.Hash())
}

func TestHeaderHashChangesWithFields(t *testing.T) {
	h := &Header{Index: 1}
	base := h.Hash()

	other := &Header{Index: 2}
	require.NotEqual(t, base, other.Hash())
}

func TestHeaderHashReflectsMutation(t *testing.T) {
	h := &Header{Index: 5}
	first := h.Hash()
	h.Index = 6 // Hash() is uncached, so it must track field changes.
	assert.NotEqual(t, first, h.Hash())
}

func TestValidateIntegrityGenesisAllowsEmptyWitness(t *testing.T) {
	genesis := &Header{Index: 0}
	assert.True(t, ValidateIntegrity(genesis, 0))
}

func TestValidateIntegrityRejectsEmptyWitnessPastGenesis(t *testing.T) {
	h := &Header{Index: 1}
	assert.False(t, ValidateIntegrity(h, 0))

	h.Script = transaction.Witness{InvocationScript: []byte{0x01}}
	assert.True(t, ValidateIntegrity(h, 0))
}

func TestCheckProofOfWorkRejectsInsufficientDifficulty(t *testing.T) {
	h := &Header{Index: 1}
	// Requiring more leading zero bits than any hash realistically has
	// makes the check fail deterministically.
	assert.False(t, CheckProofOfWork(h, 257))
	assert.True(t, CheckProofOfWork(h, 0))
}
