// Package chain defines the read-side chain view the sync/relay core
// consumes plus a reference in-memory implementation used by tests.
// The real chain storage/validation engine is an external
// collaborator; View is deliberately narrow — it never exposes
// fork-choice or validation rules, only the facts the network layer
// needs to route and schedule work.
package chain

import (
	"errors"

	"github.com/blockrelay/corenode/pkg/core/block"
	"github.com/blockrelay/corenode/pkg/util"
)

// ErrNotFound is returned by lookups that miss.
var ErrNotFound = errors.New("chain: not found")

// View is the read side of the chain storage/validation engine,
// modeled on a blockchainer-style interface: a narrow facade a network
// layer consumes without depending on storage or validation details.
type View interface {
	// BlockHeight returns the height of the last block fully accepted
	// into the chain (bodies validated, not just headers).
	BlockHeight() uint32
	// HeaderHeight returns the height of the last known header, which
	// may be ahead of BlockHeight during sync.
	HeaderHeight() uint32
	// CurrentHeaderHash returns the hash of the header at HeaderHeight.
	CurrentHeaderHash() util.Uint256
	// GetHeaderHash resolves a height to a hash, the zero hash if the
	// height is unknown.
	GetHeaderHash(height uint32) util.Uint256
	// GetHeader looks up a header by hash.
	GetHeader(hash util.Uint256) (*block.Header, error)
	// GetBlock looks up a fully validated block by hash.
	GetBlock(hash util.Uint256) (*block.Block, error)
	// GetAncestor walks back from hash to the header at the given
	// height, used by the block-fetch scheduler to find the path from
	// a common ancestor to a peer's best known header.
	GetAncestor(hash util.Uint256, height uint32) (*block.Header, error)
	// HasBlock reports whether the block body is already stored.
	HasBlock(hash util.Uint256) bool
	// HasHeader reports whether the header is already indexed, even if
	// its body hasn't arrived yet.
	HasHeader(hash util.Uint256) bool
	// Locator builds a sparse descending ancestor list from tip: ten
	// dense ancestors by hash, then an exponentially doubling step.
	Locator(tip util.Uint256) ([]util.Uint256, error)
	// AddHeaders indexes a batch of already-validated, contiguous
	// headers; validation happens in the sync engine before this is
	// called.
	AddHeaders(headers ...*block.Header) error
	// AddBlock validates and inserts a full block body, returning an
	// error for any hard rejection (the caller should treat this as
	// cause for raising the sending peer's misbehavior score).
	AddBlock(b *block.Block) error
}
