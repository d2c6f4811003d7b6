package network

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/blockrelay/corenode/pkg/chain"
	"github.com/blockrelay/corenode/pkg/core/block"
	"github.com/blockrelay/corenode/pkg/network/payload"
	"github.com/blockrelay/corenode/pkg/util"
)

// BlockFetcher schedules MSG_BLOCK downloads across peers: for every
// peer whose advertised best known header is above the local tip, it
// picks up to Config.MaxBlocksInFlightPerPeer not-yet-requested
// heights along that peer's path and reserves them globally, so the
// same hash is never in flight to two peers at once (spec.md §8
// invariant 1).
type BlockFetcher struct {
	cfg   Config
	view  chain.View
	peers *PeerRegistry
	log   *zap.Logger

	mu             sync.Mutex
	globalInFlight map[util.Uint256]PeerID
}

// NewBlockFetcher builds a scheduler over view and peers.
func NewBlockFetcher(cfg Config, view chain.View, peers *PeerRegistry, log *zap.Logger) *BlockFetcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &BlockFetcher{
		cfg:            cfg.withDefaults(),
		view:           view,
		peers:          peers,
		log:            log,
		globalInFlight: make(map[util.Uint256]PeerID),
	}
}

// PerPeerRequest is one peer's share of a FetchBlock tick: the peer to
// ask and the GetData payload to send it.
type PerPeerRequest struct {
	Peer    PeerID
	Request *payload.GetData
}

// Schedule walks every connected peer once, expires stale in-flight
// reservations, then selects new heights to request. It never holds
// PeerRegistry's lock across a network send — the caller sends the
// returned requests after Schedule returns.
func (f *BlockFetcher) Schedule() []PerPeerRequest {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reclaimExpired()

	local := f.view.BlockHeight()
	var out []PerPeerRequest
	for _, peer := range f.peers.Snapshot() {
		st := f.peers.Get(peer)
		if st == nil {
			continue
		}
		hashes := f.selectForPeer(peer, st, local)
		if len(hashes) == 0 {
			continue
		}
		out = append(out, PerPeerRequest{Peer: peer, Request: payload.NewGetDataBlocks(hashes)})
	}
	return out
}

// selectForPeer picks up to MaxBlocksInFlightPerPeer heights above
// local, contiguous starting from the lowest missing height, that this
// peer can serve (at or below its BestKnownHeader) and that are not
// already in flight anywhere or present locally.
func (f *BlockFetcher) selectForPeer(peer PeerID, st *PeerState, local uint32) []util.Uint256 {
	var best *HeaderDescriptor
	inFlightCount := 0
	st.With(func(s *PeerState) {
		best = s.BestKnownHeader
		inFlightCount = len(s.InFlightBlocks)
	})
	if best == nil || best.Height <= local {
		return nil
	}

	capacity := f.cfg.MaxBlocksInFlightPerPeer - inFlightCount
	if capacity <= 0 {
		return nil
	}

	var selected []util.Uint256
	now := time.Now()
	for h := local + 1; h <= best.Height && len(selected) < capacity; h++ {
		hash := f.view.GetHeaderHash(h)
		if hash.IsZero() {
			break
		}
		if f.view.HasBlock(hash) {
			continue
		}
		if _, taken := f.globalInFlight[hash]; taken {
			continue
		}
		selected = append(selected, hash)
		f.globalInFlight[hash] = peer
	}
	if len(selected) == 0 {
		return nil
	}
	st.With(func(s *PeerState) {
		for _, h := range selected {
			s.InFlightBlocks[h] = now
		}
	})
	return selected
}

// reclaimExpired returns hashes whose BlockDownloadTimeout has elapsed
// back to the eligible pool and raises the offending peer's
// misbehavior score once per expiry.
func (f *BlockFetcher) reclaimExpired() {
	deadline := time.Now().Add(-f.cfg.BlockDownloadTimeout)
	for _, peer := range f.peers.Snapshot() {
		st := f.peers.Get(peer)
		if st == nil {
			continue
		}
		var expired []util.Uint256
		st.With(func(s *PeerState) {
			for h, at := range s.InFlightBlocks {
				if at.Before(deadline) {
					expired = append(expired, h)
				}
			}
			for _, h := range expired {
				delete(s.InFlightBlocks, h)
				s.MisbehaviorScore++
			}
		})
		for _, h := range expired {
			delete(f.globalInFlight, h)
			f.log.Warn("block download timed out", zap.Uint64("peer", uint64(peer)), zap.Stringer("block", h))
		}
	}
}

// HandleBlock processes an incoming Block from peer: releases its
// in-flight reservation (if any — an unsolicited block is accepted but
// not penalized, matching spec.md §4.3) and hands the block to the
// chain view for validation and insertion.
func (f *BlockFetcher) HandleBlock(peer PeerID, b *block.Block) error {
	hash := b.Hash()
	f.peers.WithState(peer, func(s *PeerState) {
		delete(s.InFlightBlocks, hash)
	})
	f.mu.Lock()
	delete(f.globalInFlight, hash)
	f.mu.Unlock()

	if err := f.view.AddBlock(b); err != nil {
		f.peers.WithState(peer, func(s *PeerState) {
			s.MisbehaviorScore++
		})
		return err
	}
	return nil
}

// releaseAll returns every hash peer held in flight to the eligible
// pool, called on disconnect so another peer can pick them up
// immediately rather than waiting out BlockDownloadTimeout.
func (f *BlockFetcher) releaseAll(peer PeerID, released []util.Uint256) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, h := range released {
		if owner, ok := f.globalInFlight[h]; ok && owner == peer {
			delete(f.globalInFlight, h)
		}
	}
}
