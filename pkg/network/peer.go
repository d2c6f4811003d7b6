package network

import (
	"sync"
	"time"

	"github.com/blockrelay/corenode/pkg/util"
)

// PeerID is the opaque, totally ordered, cheaply-copyable identifier the
// substrate assigns to a connected peer.
type PeerID uint64

// HeaderDescriptor is the minimal advertised-or-inferred chain position
// for a peer: hash, height, and total difficulty.
type HeaderDescriptor struct {
	Hash            util.Uint256
	Height          uint32
	TotalDifficulty uint64
}

// PeerState is the per-peer sync state. Every mutation is
// serialized through its own mutex; PeerRegistry never mutates a
// PeerState directly.
type PeerState struct {
	mu sync.Mutex

	BestKnownHeader  *HeaderDescriptor
	LastCommonHeader *HeaderDescriptor
	InFlightBlocks   map[util.Uint256]time.Time
	MisbehaviorScore uint32
}

func newPeerState() *PeerState {
	return &PeerState{
		InFlightBlocks: make(map[util.Uint256]time.Time),
	}
}

// With applies f to the peer state under its lock.
func (s *PeerState) With(f func(*PeerState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f(s)
}

// PeerRegistry maps PeerID to PeerState. The outer map is read-mostly
// and guarded by an RWMutex; structural changes (connect/disconnect)
// take the write lock, lookups take the read lock.
type PeerRegistry struct {
	mu    sync.RWMutex
	peers map[PeerID]*PeerState
}

// NewPeerRegistry creates an empty registry.
func NewPeerRegistry() *PeerRegistry {
	return &PeerRegistry{peers: make(map[PeerID]*PeerState)}
}

// Connected idempotently inserts default state for peer.
func (r *PeerRegistry) Connected(peer PeerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.peers[peer]; !ok {
		r.peers[peer] = newPeerState()
	}
}

// Disconnected removes peer and its state. After this returns the peer
// is absent from the registry. It does not touch the BlockFetcher's
// global in-flight set; SyncHandler.Disconnected releases the peer's
// reservations there so another peer can fetch them.
func (r *PeerRegistry) Disconnected(peer PeerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.peers, peer)
}

// Get returns the state for peer, or nil if it isn't connected.
func (r *PeerRegistry) Get(peer PeerID) *PeerState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.peers[peer]
}

// WithState applies f to peer's state under its lock if peer is
// connected, returning false otherwise.
func (r *PeerRegistry) WithState(peer PeerID, f func(*PeerState)) bool {
	st := r.Get(peer)
	if st == nil {
		return false
	}
	st.With(f)
	return true
}

// Snapshot returns a stable slice of currently connected peer IDs for
// iteration, taken under the read lock so callers never iterate while
// holding it — no lock is ever held across a network send.
func (r *PeerRegistry) Snapshot() []PeerID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]PeerID, 0, len(r.peers))
	for id := range r.peers {
		out = append(out, id)
	}
	return out
}

// Count returns the number of connected peers.
func (r *PeerRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}

// ReleaseInFlight removes every in-flight block reservation held by
// peer, used on disconnect.
func (s *PeerState) ReleaseInFlight() []util.Uint256 {
	s.mu.Lock()
	defer s.mu.Unlock()
	released := make([]util.Uint256, 0, len(s.InFlightBlocks))
	for h := range s.InFlightBlocks {
		released = append(released, h)
	}
	s.InFlightBlocks = make(map[util.Uint256]time.Time)
	return released
}
