package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockrelay/corenode/pkg/util"
)

func TestDedupSetsFirstDeliveryThenDuplicate(t *testing.T) {
	d, err := NewDedupSets(16)
	require.NoError(t, err)

	h := util.Sha256([]byte("tx"))
	assert.False(t, d.SeenTransaction(h), "first delivery must report not-seen")
	assert.True(t, d.SeenTransaction(h), "second delivery must report seen")

	bh := util.Sha256([]byte("block"))
	assert.False(t, d.SeenBlock(bh))
	assert.True(t, d.SeenBlock(bh))
}

func TestDedupSetsIndependentBlockAndTxSpace(t *testing.T) {
	d, err := NewDedupSets(16)
	require.NoError(t, err)

	h := util.Sha256([]byte("shared"))
	assert.False(t, d.SeenBlock(h))
	assert.False(t, d.SeenTransaction(h), "block and tx dedup sets must not share state")
}

func TestDedupSetsEvictsUnderCapacity(t *testing.T) {
	d, err := NewDedupSets(2)
	require.NoError(t, err)

	h1 := util.Sha256([]byte("1"))
	h2 := util.Sha256([]byte("2"))
	h3 := util.Sha256([]byte("3"))

	d.SeenTransaction(h1)
	d.SeenTransaction(h2)
	d.SeenTransaction(h3) // evicts h1 under an LRU cap of 2

	assert.False(t, d.SeenTransaction(h1), "evicted hash is treated as first-time again")
}
