package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/blockrelay/corenode/pkg/core/block"
	"github.com/blockrelay/corenode/pkg/core/transaction"
	"github.com/blockrelay/corenode/pkg/mempool"
	"github.com/blockrelay/corenode/pkg/network/payload"
)

func compactBlockFixture(t *testing.T, tip *block.Header, nonce uint64, txs []*transaction.Transaction) *payload.CompactBlock {
	t.Helper()
	h := block.Header{Index: tip.Index + 1, PrevHash: tip.Hash(), Script: transaction.Witness{InvocationScript: []byte{1}}}
	k0, k1 := shortIDKeys(nonce, &h)
	shortIDs := make([][8]byte, len(txs))
	for i, tx := range txs {
		shortIDs[i] = computeShortID(k0, k1, tx.Hash())
	}
	return &payload.CompactBlock{Header: h, Nonce: nonce, ShortIDs: shortIDs}
}

// Scenario C — compact block reconstructs completely from the mempool.
func TestCompactBlockReconstructComplete(t *testing.T) {
	mem, headers := chainWithHeight(t, 1)
	pool := mempool.NewMemory()
	peers := NewPeerRegistry()
	peers.Connected(1)
	peers.Connected(2)
	dedup, err := NewDedupSets(1024)
	require.NoError(t, err)
	e := NewRelayEngine(Config{}, dedup, NewReconstructionState(), mem, pool, peers, zaptest.NewLogger(t))

	txA := &transaction.Transaction{Nonce: 1, Script: []byte("a")}
	txB := &transaction.Transaction{Nonce: 2, Script: []byte("b")}
	txC := &transaction.Transaction{Nonce: 3, Script: []byte("c")}
	require.NoError(t, pool.Add(txA))
	require.NoError(t, pool.Add(txB))
	require.NoError(t, pool.Add(txC))

	cb := compactBlockFixture(t, headers[len(headers)-1], 0xDEADBEEF, []*transaction.Transaction{txA, txB, txC})

	outcome := e.HandleCompactBlock(1, cb)
	require.True(t, outcome.Complete)
	require.NotNil(t, outcome.Block)
	require.Len(t, outcome.Block.Transactions, 3)
	assert.Equal(t, txA.Hash(), outcome.Block.Transactions[0].Hash())
	assert.Equal(t, txB.Hash(), outcome.Block.Transactions[1].Hash())
	assert.Equal(t, txC.Hash(), outcome.Block.Transactions[2].Hash())
	assert.Len(t, outcome.Relay, 1, "relayed to every peer except source")
}

// Scenario D — compact block missing one transaction triggers a
// BlockTransactionsRequest, then completes on BlockTransactions.
func TestCompactBlockReconstructMissingThenCompletes(t *testing.T) {
	mem, headers := chainWithHeight(t, 1)
	pool := mempool.NewMemory()
	peers := NewPeerRegistry()
	peers.Connected(1)
	dedup, err := NewDedupSets(1024)
	require.NoError(t, err)
	e := NewRelayEngine(Config{}, dedup, NewReconstructionState(), mem, pool, peers, zaptest.NewLogger(t))

	txA := &transaction.Transaction{Nonce: 1, Script: []byte("a")}
	txB := &transaction.Transaction{Nonce: 2, Script: []byte("b")}
	txC := &transaction.Transaction{Nonce: 3, Script: []byte("c")}
	require.NoError(t, pool.Add(txA))
	require.NoError(t, pool.Add(txC)) // txB is deliberately absent

	cb := compactBlockFixture(t, headers[len(headers)-1], 0xDEADBEEF, []*transaction.Transaction{txA, txB, txC})

	outcome := e.HandleCompactBlock(1, cb)
	assert.False(t, outcome.Complete)
	require.NotNil(t, outcome.Request)
	assert.Equal(t, cb.Header.Hash(), outcome.Request.Hash)
	assert.Equal(t, []uint32{1}, outcome.Request.Indexes)

	resolved := e.HandleBlockTransactions(1, &payload.BlockTransactions{
		Hash:         cb.Header.Hash(),
		Transactions: []*transaction.Transaction{txB},
	})
	require.NotNil(t, resolved)
	assert.True(t, resolved.Complete)
	require.Len(t, resolved.Block.Transactions, 3)
	assert.Equal(t, txB.Hash(), resolved.Block.Transactions[1].Hash())
}

func TestCompactBlockDuplicateBlockTransactionsIsNoop(t *testing.T) {
	mem, headers := chainWithHeight(t, 1)
	pool := mempool.NewMemory()
	peers := NewPeerRegistry()
	peers.Connected(1)
	dedup, err := NewDedupSets(1024)
	require.NoError(t, err)
	e := NewRelayEngine(Config{}, dedup, NewReconstructionState(), mem, pool, peers, zaptest.NewLogger(t))

	txA := &transaction.Transaction{Nonce: 1, Script: []byte("a")}
	cb := compactBlockFixture(t, headers[len(headers)-1], 1, []*transaction.Transaction{txA})
	e.HandleCompactBlock(1, cb) // goes missing, stored in ReconstructionState

	first := e.HandleBlockTransactions(1, &payload.BlockTransactions{Hash: cb.Header.Hash(), Transactions: []*transaction.Transaction{txA}})
	require.NotNil(t, first)

	second := e.HandleBlockTransactions(1, &payload.BlockTransactions{Hash: cb.Header.Hash(), Transactions: []*transaction.Transaction{txA}})
	assert.Nil(t, second, "the pending entry was already removed, so a duplicate reply is a no-op")
}

// BlockTransactionsRequest for a block the node doesn't have gets no
// response (spec.md §8 boundary behavior).
func TestBlockTransactionsRequestForUnknownBlockIsSilent(t *testing.T) {
	mem, _ := chainWithHeight(t, 1)
	pool := mempool.NewMemory()
	peers := NewPeerRegistry()
	dedup, err := NewDedupSets(1024)
	require.NoError(t, err)
	e := NewRelayEngine(Config{}, dedup, NewReconstructionState(), mem, pool, peers, zaptest.NewLogger(t))

	var unknown [32]byte
	unknown[0] = 0xAA
	resp, ok := e.HandleBlockTransactionsRequest(&payload.BlockTransactionsRequest{Hash: unknown, Indexes: []uint32{0}})
	assert.False(t, ok)
	assert.Nil(t, resp)
}
