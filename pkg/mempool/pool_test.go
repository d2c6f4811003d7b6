package mempool

import (
	"testing"

	"github.com/blockrelay/corenode/pkg/core/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAddAndAll(t *testing.T) {
	p := NewMemory()
	tx := &transaction.Transaction{Nonce: 1, Script: []byte("a")}
	require.NoError(t, p.Add(tx))

	all := p.All()
	require.Len(t, all, 1)
	assert.Equal(t, tx.Hash(), all[0].Hash())
}

func TestMemoryOrphans(t *testing.T) {
	p := NewMemory()
	tx := &transaction.Transaction{Nonce: 2, Script: []byte("b")}
	p.AddOrphan(tx)

	assert.Empty(t, p.All())
	orphans := p.Orphans()
	require.Len(t, orphans, 1)
	assert.Equal(t, tx.Hash(), orphans[0].Hash())
}
