package block

import "github.com/blockrelay/corenode/pkg/core/transaction"

// Block is a Header plus its transaction list.
type Block struct {
	Header
	Transactions []*transaction.Transaction
}

// NewBlock builds a Block from a header and a transaction list in
// positional order, as produced by compact-block reconstruction.
func NewBlock(h Header, txs []*transaction.Transaction) *Block {
	return &Block{Header: h, Transactions: txs}
}
