// Package mempool is the external transaction-pool collaborator:
// acceptance policy and orphan resolution live elsewhere. It exposes
// the minimal surface the relay engine needs: admit a transaction, and
// enumerate the pool plus orphans as reconstruction candidates for
// compact blocks.
package mempool

import (
	"sync"

	"github.com/blockrelay/corenode/pkg/core/transaction"
	"github.com/blockrelay/corenode/pkg/util"
)

// Pool is the subset of mempool behavior the relay engine depends on.
// A real implementation enforces fee/size policy and orphan resolution;
// this interface deliberately says nothing about either.
type Pool interface {
	// Add attempts to admit tx into the pool. Implementations may reject
	// already-known or policy-invalid transactions.
	Add(tx *transaction.Transaction) error
	// All returns every transaction currently in the main pool.
	All() []*transaction.Transaction
	// Orphans returns transactions waiting on an unresolved input. They
	// remain valid compact-block reconstruction candidates: the
	// reconstructor searches the union of the main pool and the orphan
	// pool.
	Orphans() []*transaction.Transaction
}

// Memory is a reference in-memory Pool used by tests and by nodes that
// don't need persistence or real admission policy.
type Memory struct {
	mu      sync.Mutex
	txs     map[util.Uint256]*transaction.Transaction
	orphans map[util.Uint256]*transaction.Transaction
}

// NewMemory creates an empty in-memory pool.
func NewMemory() *Memory {
	return &Memory{
		txs:     make(map[util.Uint256]*transaction.Transaction),
		orphans: make(map[util.Uint256]*transaction.Transaction),
	}
}

// Add admits tx unconditionally; Memory has no fee/size policy.
func (m *Memory) Add(tx *transaction.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs[tx.Hash()] = tx
	return nil
}

// AddOrphan inserts tx into the orphan set for tests that need
// reconstruction to find transactions outside the main pool.
func (m *Memory) AddOrphan(tx *transaction.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orphans[tx.Hash()] = tx
}

// All returns every transaction in the main pool.
func (m *Memory) All() []*transaction.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*transaction.Transaction, 0, len(m.txs))
	for _, tx := range m.txs {
		out = append(out, tx)
	}
	return out
}

// Orphans returns every orphaned transaction.
func (m *Memory) Orphans() []*transaction.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*transaction.Transaction, 0, len(m.orphans))
	for _, tx := range m.orphans {
		out = append(out, tx)
	}
	return out
}
