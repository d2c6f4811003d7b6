// Package block holds the Header and Block types the chain view and
// network packages operate on, trimmed to the fields the sync/relay
// core actually needs: full consensus-header semantics (state roots,
// primary index, consensus data) are chain-validation concerns owned
// by the external chain engine.
package block

import (
	"encoding/binary"

	"github.com/blockrelay/corenode/pkg/core/transaction"
	"github.com/blockrelay/corenode/pkg/util"
)

// Header holds everything needed to identify a block and link it to its
// parent: enough for locator construction, contiguity checks, and
// proof-of-work validation.
//
// Header is deliberately copied by value throughout this package and
// pkg/network (compact-block payloads, block.NewBlock); it carries no
// cached hash so that copying it never risks a go vet copylocks finding.
type Header struct {
	Version    uint32
	PrevHash   util.Uint256
	MerkleRoot util.Uint256
	Timestamp  uint64
	Nonce      uint64
	Index      uint32
	Script     transaction.Witness
}

// Hash returns the header's hash.
func (h *Header) Hash() util.Uint256 {
	return util.Sha256(h.hashableFields())
}

// hashableFields encodes the fields that participate in the header hash.
// This is domain hashing for identity/linkage, not the wire codec (an
// external collaborator) — it never leaves the process.
func (h *Header) hashableFields() []byte {
	buf := make([]byte, 0, 4+util.Uint256Size*2+8+8+4)
	buf = appendU32LE(buf, h.Version)
	buf = append(buf, h.PrevHash.BytesBE()...)
	buf = append(buf, h.MerkleRoot.BytesBE()...)
	buf = appendU64LE(buf, h.Timestamp)
	buf = appendU64LE(buf, h.Nonce)
	buf = appendU32LE(buf, h.Index)
	return buf
}

func appendU32LE(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

func appendU64LE(b []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(b, tmp[:]...)
}
