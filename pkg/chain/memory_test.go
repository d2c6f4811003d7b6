package chain

import (
	"testing"

	"github.com/blockrelay/corenode/pkg/core/block"
	"github.com/blockrelay/corenode/pkg/core/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildChain(t *testing.T, n uint32) (*Memory, []*block.Header) {
	t.Helper()
	genesis := &block.Header{Index: 0}
	m := NewMemory(genesis)
	headers := []*block.Header{genesis}

	prev := genesis
	for i := uint32(1); i <= n; i++ {
		h := &block.Header{
			Index:    i,
			PrevHash: prev.Hash(),
			Script:   transaction.Witness{InvocationScript: []byte{0x1}},
		}
		require.NoError(t, m.AddHeaders(h))
		require.NoError(t, m.AddBlock(block.NewBlock(*h, nil)))
		headers = append(headers, h)
		prev = h
	}
	return m, headers
}

func TestMemoryBasicLookups(t *testing.T) {
	m, headers := buildChain(t, 5)
	assert.Equal(t, uint32(5), m.BlockHeight())
	assert.Equal(t, uint32(5), m.HeaderHeight())
	assert.Equal(t, headers[5].Hash(), m.CurrentHeaderHash())
	assert.True(t, m.HasBlock(headers[3].Hash()))
	assert.True(t, m.HasHeader(headers[3].Hash()))
}

func TestMemoryGetAncestor(t *testing.T) {
	m, headers := buildChain(t, 10)
	anc, err := m.GetAncestor(headers[10].Hash(), 4)
	require.NoError(t, err)
	assert.Equal(t, headers[4].Hash(), anc.Hash())

	_, err = m.GetAncestor(headers[10].Hash(), 11)
	assert.Error(t, err)
}

func TestMemoryLocatorDenseThenSparse(t *testing.T) {
	m, headers := buildChain(t, 100)
	locator, err := m.Locator(headers[100].Hash())
	require.NoError(t, err)

	// First 10 entries are consecutive ancestors.
	for i := 0; i < 10; i++ {
		assert.Equal(t, headers[100-uint32(i)].Hash(), locator[i])
	}
	// Locator always ends at genesis.
	assert.Equal(t, headers[0].Hash(), locator[len(locator)-1])
	// Spacing doubles after the dense prefix.
	assert.True(t, len(locator) < 100)
}

func TestMemoryAddBlockOnlyAdvancesTipContiguously(t *testing.T) {
	genesis := &block.Header{Index: 0}
	m := NewMemory(genesis)

	gap := &block.Header{Index: 5, PrevHash: genesis.Hash()}
	require.NoError(t, m.AddBlock(block.NewBlock(*gap, nil)))
	assert.Equal(t, uint32(0), m.BlockHeight(), "non-contiguous block must not move the tip")
	assert.True(t, m.HasBlock(gap.Hash()))
}
