package network

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/blockrelay/corenode/pkg/util"
)

// DedupSets tracks which block and transaction hashes this node has
// already seen announced or relayed, so the relay engine never
// re-broadcasts or re-requests the same item twice. An unbounded set
// would grow forever on a long-running node; both sets are capped
// LRUs instead, evicting the oldest entry once full — a relay engine
// only needs to suppress duplicates within a recent working set, not
// remember every hash since genesis.
type DedupSets struct {
	blocks *lru.Cache
	txs    *lru.Cache
}

// NewDedupSets creates dedup sets holding up to size entries each.
func NewDedupSets(size int) (*DedupSets, error) {
	blocks, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	txs, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &DedupSets{blocks: blocks, txs: txs}, nil
}

// SeenBlock reports whether hash was already recorded, recording it if
// not — an atomic test-and-set so two concurrent callers can't both
// observe "not seen" for the same hash.
func (d *DedupSets) SeenBlock(hash util.Uint256) bool {
	alreadyPresent, _ := d.blocks.ContainsOrAdd(hash, struct{}{})
	return alreadyPresent
}

// SeenTransaction is SeenBlock's transaction-hash counterpart.
func (d *DedupSets) SeenTransaction(hash util.Uint256) bool {
	alreadyPresent, _ := d.txs.ContainsOrAdd(hash, struct{}{})
	return alreadyPresent
}
