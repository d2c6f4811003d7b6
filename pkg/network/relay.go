package network

import (
	"sync"

	"go.uber.org/zap"

	"github.com/blockrelay/corenode/pkg/chain"
	"github.com/blockrelay/corenode/pkg/core/block"
	"github.com/blockrelay/corenode/pkg/core/transaction"
	"github.com/blockrelay/corenode/pkg/mempool"
	"github.com/blockrelay/corenode/pkg/network/payload"
	"github.com/blockrelay/corenode/pkg/util"
)

// ReconstructionState maps a pending compact block's header hash to
// the CompactBlock whose body is still being assembled, so a later
// BlockTransactions reply (or a retry) can find it.
type ReconstructionState struct {
	mu      sync.Mutex
	pending map[util.Uint256]*payload.CompactBlock
}

// NewReconstructionState creates an empty reconstruction table.
func NewReconstructionState() *ReconstructionState {
	return &ReconstructionState{pending: make(map[util.Uint256]*payload.CompactBlock)}
}

func (r *ReconstructionState) store(hash util.Uint256, cb *payload.CompactBlock) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[hash] = cb
}

// takeAtomic removes and returns the pending compact block for hash,
// if any — the "look up and remove" step BlockTransactions handling
// must do atomically so a duplicate reply can't reconstruct twice.
func (r *ReconstructionState) takeAtomic(hash util.Uint256) (*payload.CompactBlock, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cb, ok := r.pending[hash]
	if ok {
		delete(r.pending, hash)
	}
	return cb, ok
}

// RelayEngine forwards transactions and blocks exactly once per
// connected peer, and reconstructs compact blocks against the mempool
// before falling back to requesting the missing transactions by index.
type RelayEngine struct {
	cfg     Config
	dedup   *DedupSets
	recon   *ReconstructionState
	view    chain.View
	pool    mempool.Pool
	peers   *PeerRegistry
	log     *zap.Logger
}

// NewRelayEngine builds a relay engine over view and pool, deduping
// against dedup and tracking in-flight compact-block reconstructions in
// recon.
func NewRelayEngine(cfg Config, dedup *DedupSets, recon *ReconstructionState, view chain.View, pool mempool.Pool, peers *PeerRegistry, log *zap.Logger) *RelayEngine {
	if log == nil {
		log = zap.NewNop()
	}
	return &RelayEngine{cfg: cfg.withDefaults(), dedup: dedup, recon: recon, view: view, pool: pool, peers: peers, log: log}
}

// Outbound is one (peer, payload) pair the caller should send after a
// relay operation returns — kept separate from the send itself so no
// lock is ever held across a network call.
type Outbound struct {
	Peer    PeerID
	Payload any
}

// broadcastExcept builds one Outbound per connected peer other than
// source, in the shape the original relay()'s peer-snapshot-then-send
// pattern uses.
func (e *RelayEngine) broadcastExcept(source PeerID, p any) []Outbound {
	peers := e.peers.Snapshot()
	out := make([]Outbound, 0, len(peers))
	for _, peer := range peers {
		if peer == source {
			continue
		}
		out = append(out, Outbound{Peer: peer, Payload: p})
	}
	return out
}

// HandleTransaction processes an incoming Transaction from source: on
// first-time delivery it admits the transaction to the pool and relays
// it to every other peer; a duplicate triggers neither (spec.md §4.5,
// §8 invariant 2).
func (e *RelayEngine) HandleTransaction(source PeerID, tx *transaction.Transaction) []Outbound {
	if e.dedup.SeenTransaction(tx.Hash()) {
		return nil
	}
	if err := e.pool.Add(tx); err != nil {
		e.log.Debug("mempool rejected transaction", zap.Error(err), zap.Stringer("tx", tx.Hash()))
	}
	return e.broadcastExcept(source, tx)
}

// HandleFullBlock processes an incoming full Block from source: on
// first-time delivery it hands the block to the chain view and relays
// it onward.
func (e *RelayEngine) HandleFullBlock(source PeerID, b *block.Block) ([]Outbound, error) {
	hash := b.Hash()
	if e.dedup.SeenBlock(hash) {
		return nil, nil
	}
	if err := e.view.AddBlock(b); err != nil {
		return nil, err
	}
	return e.broadcastExcept(source, b), nil
}

// reconstructResult is the outcome of matching a CompactBlock's short
// IDs against a set of candidate transactions.
type reconstructResult struct {
	txs     []*transaction.Transaction
	missing []uint32
}

// reconstruct attempts to fill every short ID in cb from prefilled
// transactions plus candidates, returning the ordered transaction list
// and any indexes still missing. Candidates are keyed last-writer-wins
// on short-ID collision, matching spec.md §4.6.
func reconstruct(cb *payload.CompactBlock, candidates []*transaction.Transaction) reconstructResult {
	k0, k1 := shortIDKeys(cb.Nonce, &cb.Header)

	byShort := make(map[ShortID]*transaction.Transaction, len(candidates))
	for _, tx := range candidates {
		byShort[computeShortID(k0, k1, tx.Hash())] = tx
	}

	txs := make([]*transaction.Transaction, len(cb.ShortIDs))
	for _, pf := range cb.Prefilled {
		if int(pf.Index) < len(txs) {
			txs[pf.Index] = pf.Tx
		}
	}

	var missing []uint32
	shortIdx := 0
	for i := range txs {
		if txs[i] != nil {
			continue // filled by a prefilled transaction
		}
		if shortIdx >= len(cb.ShortIDs) {
			missing = append(missing, uint32(i))
			continue
		}
		if tx, ok := byShort[ShortID(cb.ShortIDs[shortIdx])]; ok {
			txs[i] = tx
		} else {
			missing = append(missing, uint32(i))
		}
		shortIdx++
	}
	return reconstructResult{txs: txs, missing: missing}
}

// CompactBlockOutcome reports what HandleCompactBlock decided, so the
// handler knows which outbound side effects (if any) to perform.
type CompactBlockOutcome struct {
	// Complete is true when the block reconstructed fully; Block holds
	// the result and Relay holds the original payload's broadcast set.
	Complete bool
	Block    *block.Block
	Relay    []Outbound

	// Request is set when reconstruction is missing transactions: send
	// it back to source.
	Request *payload.BlockTransactionsRequest

	// Dropped is true on the "impossible" outcome (spec.md §4.6):
	// nothing to do, IBD will eventually cover the block.
	Dropped bool
}

// HandleCompactBlock reconstructs cb against the union of the mempool
// and orphan pool plus its own prefilled transactions (spec.md §4.6).
func (e *RelayEngine) HandleCompactBlock(source PeerID, cb *payload.CompactBlock) CompactBlockOutcome {
	hash := cb.Header.Hash()
	if e.dedup.SeenBlock(hash) {
		return CompactBlockOutcome{Dropped: true}
	}

	candidates := make([]*transaction.Transaction, 0, len(e.pool.All())+len(e.pool.Orphans()))
	candidates = append(candidates, e.pool.All()...)
	candidates = append(candidates, e.pool.Orphans()...)

	result := reconstruct(cb, candidates)
	if len(result.missing) == 0 {
		b := block.NewBlock(cb.Header, result.txs)
		e.dedup.SeenBlock(hash)
		if err := e.view.AddBlock(b); err != nil {
			return CompactBlockOutcome{Dropped: true}
		}
		return CompactBlockOutcome{Complete: true, Block: b, Relay: e.broadcastExcept(source, cb)}
	}

	// Impossible: the compact block carries neither short IDs nor
	// prefilled transactions, so there is nothing to request — drop
	// silently; IBD eventually covers the block. A compact block whose
	// short IDs all miss the pool is not dropped here: it is stored and
	// its missing indexes are requested like any partial miss.
	if len(result.missing) == len(result.txs) && len(cb.Prefilled) == 0 && len(cb.ShortIDs) == 0 {
		return CompactBlockOutcome{Dropped: true}
	}

	e.recon.store(hash, cb)
	return CompactBlockOutcome{
		Request: &payload.BlockTransactionsRequest{Hash: hash, Indexes: result.missing},
	}
}

// HandleBlockTransactionsRequest answers req if the local chain has
// the referenced block, looking up each requested index and silently
// omitting any it cannot serve (spec.md §4.6 — the peer may retry).
func (e *RelayEngine) HandleBlockTransactionsRequest(req *payload.BlockTransactionsRequest) (*payload.BlockTransactions, bool) {
	b, err := e.view.GetBlock(req.Hash)
	if err != nil {
		return nil, false
	}
	resp := &payload.BlockTransactions{Hash: req.Hash}
	for _, idx := range req.Indexes {
		if int(idx) < len(b.Transactions) && b.Transactions[idx] != nil {
			resp.Transactions = append(resp.Transactions, b.Transactions[idx])
		}
	}
	return resp, true
}

// HandleBlockTransactions re-runs reconstruction for the pending
// compact block msg.Hash identifies, now with the delivered
// transactions folded into the candidate set. The pending entry is
// removed atomically up front so a duplicate or late reply can't
// reconstruct the same block twice; failure after that point is a
// silent drop, matching spec.md §4.6 (the peer will re-announce).
func (e *RelayEngine) HandleBlockTransactions(source PeerID, msg *payload.BlockTransactions) *CompactBlockOutcome {
	cb, ok := e.recon.takeAtomic(msg.Hash)
	if !ok {
		return nil
	}

	candidates := make([]*transaction.Transaction, 0, len(e.pool.All())+len(e.pool.Orphans())+len(msg.Transactions))
	candidates = append(candidates, e.pool.All()...)
	candidates = append(candidates, e.pool.Orphans()...)
	candidates = append(candidates, msg.Transactions...)

	result := reconstruct(cb, candidates)
	if len(result.missing) != 0 {
		return nil
	}
	b := block.NewBlock(cb.Header, result.txs)
	e.dedup.SeenBlock(b.Hash())
	if err := e.view.AddBlock(b); err != nil {
		return nil
	}
	return &CompactBlockOutcome{Complete: true, Block: b, Relay: e.broadcastExcept(source, cb)}
}
