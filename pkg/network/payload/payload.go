// Package payload defines the logical wire messages exchanged by the
// sync and relay protocols. These are plain data structures:
// the actual binary encoding is the wire-format codec, an external
// collaborator — the substrate is assumed to already have
// decoded bytes into one of these types before handing it to a Handler.
package payload

import (
	"github.com/blockrelay/corenode/pkg/core/block"
	"github.com/blockrelay/corenode/pkg/core/transaction"
	"github.com/blockrelay/corenode/pkg/util"
)

// GetHeaders requests headers following the peer's best common
// knowledge of our locator. HashStop of the zero hash means "as many as
// you will send".
type GetHeaders struct {
	Version            uint32
	BlockLocatorHashes []util.Uint256
	HashStop           util.Uint256
}

// Headers carries a claimed-contiguous sequence of headers.
type Headers struct {
	Headers []*block.Header
}

// InventoryType identifies the kind of item referenced in a GetData
// message.
type InventoryType byte

// Recognized inventory types.
const (
	InvTypeBlock InventoryType = iota + 1
	InvTypeTx
	InvTypeCompactBlock
)

// Valid reports whether t is a recognized inventory type.
func (t InventoryType) Valid() bool {
	switch t {
	case InvTypeBlock, InvTypeTx, InvTypeCompactBlock:
		return true
	default:
		return false
	}
}

// InventoryItem is one (type, hash) pair inside a GetData message.
type InventoryItem struct {
	Type InventoryType
	Hash util.Uint256
}

// GetData requests the bodies for a list of inventory items.
type GetData struct {
	Inventory []InventoryItem
}

// NewGetDataBlocks builds a GetData requesting full blocks for the given
// hashes, as emitted by the block-fetch scheduler.
func NewGetDataBlocks(hashes []util.Uint256) *GetData {
	items := make([]InventoryItem, len(hashes))
	for i, h := range hashes {
		items[i] = InventoryItem{Type: InvTypeBlock, Hash: h}
	}
	return &GetData{Inventory: items}
}

// PrefilledTransaction is a transaction the sender already included in a
// CompactBlock payload at a known in-block index.
type PrefilledTransaction struct {
	Index uint32
	Tx    *transaction.Transaction
}

// CompactBlock carries a header, the nonce used to derive short-ID keys,
// an ordered list of short transaction IDs, and any prefilled
// transactions.
type CompactBlock struct {
	Header    block.Header
	Nonce     uint64
	ShortIDs  [][8]byte
	Prefilled []PrefilledTransaction
}

// BlockTransactionsRequest asks the sender of a CompactBlock for the
// full transactions at the given indexes, sent when reconstruction is
// missing some of them.
type BlockTransactionsRequest struct {
	Hash    util.Uint256
	Indexes []uint32
}

// BlockTransactions answers a BlockTransactionsRequest with the
// transactions at the requested indexes, in request order.
type BlockTransactions struct {
	Hash         util.Uint256
	Transactions []*transaction.Transaction
}
