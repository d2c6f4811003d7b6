// Package transaction holds the minimal transaction representation the
// sync/relay core needs: enough to hash, dedup, and hand off to the
// external mempool/chain collaborators. Acceptance rules, fees, and
// signer/witness verification are out of scope (pool/chain concerns).
package transaction

import (
	"sync"

	"github.com/blockrelay/corenode/pkg/util"
)

// Transaction is a minimal, chain-agnostic transaction: a nonce for
// uniqueness, an opaque payload, and a witness authorizing it.
type Transaction struct {
	Nonce   uint64
	Script  []byte
	Witness Witness

	hashOnce sync.Once
	hash     util.Uint256
}

// Hash returns the transaction's identifying hash, computed once and
// cached. Unlike block.Header, Transaction is always handled by pointer
// in this core, so caching behind sync.Once carries no copylocks risk.
func (t *Transaction) Hash() util.Uint256 {
	t.hashOnce.Do(func() {
		t.hash = util.Sha256(t.hashablePreimage())
	})
	return t.hash
}

// hashablePreimage builds the byte sequence the transaction hash is
// derived from. This is domain hashing, not the wire codec: it exists
// only so Transaction.Hash is deterministic in-process, not to
// serialize transactions for network transport, an external
// collaborator.
func (t *Transaction) hashablePreimage() []byte {
	buf := make([]byte, 8, 8+len(t.Script))
	putUint64LE(buf, t.Nonce)
	buf = append(buf, t.Script...)
	return buf
}

func putUint64LE(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}
