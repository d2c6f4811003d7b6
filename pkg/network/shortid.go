package network

import (
	"encoding/binary"

	"github.com/blockrelay/corenode/pkg/core/block"
	"github.com/blockrelay/corenode/pkg/util"
	"github.com/twmb/murmur3"
)

// ShortID is a compact, collision-tolerant transaction identifier
// derived from a block-specific keyed hash: short enough to list one
// per transaction inside a CompactBlock without shipping full hashes.
type ShortID [8]byte

// shortIDKeys derives the two keys the hash in this payload's
// CompactBlock is seeded with, from the announcing peer's nonce and
// the block header: every compact block gets its own key pair so an
// attacker cannot precompute short-ID collisions across blocks.
func shortIDKeys(nonce uint64, h *block.Header) (k0, k1 uint64) {
	hash := h.Hash()
	var buf [8 + util.Uint256Size]byte
	binary.LittleEndian.PutUint64(buf[:8], nonce)
	copy(buf[8:], hash.BytesBE())
	digest := util.Sha256(buf[:])
	k0 = binary.LittleEndian.Uint64(digest[:8])
	k1 = binary.LittleEndian.Uint64(digest[8:16])
	return k0, k1
}

// computeShortID hashes a full transaction hash down to a ShortID
// using the murmur3 128-bit keyed variant seeded by (k0, k1), keeping
// only the low 8 bytes the way a compact-block short ID is truncated.
func computeShortID(k0, k1 uint64, txHash util.Uint256) ShortID {
	h1, _ := murmur3.SeedSum128(k0, k1, txHash.BytesBE())
	var out ShortID
	binary.LittleEndian.PutUint64(out[:], h1)
	return out
}
