package network

import (
	"sync"
	"time"

	"go.uber.org/atomic"
)

// GlobalSyncState is the process-wide sync state: the count of peers
// currently being headers-synced, the best known header across all
// peers, and the derived initial-block-download flag. It uses
// go.uber.org/atomic for the counters.
type GlobalSyncState struct {
	nSync atomic.Int32

	mu               sync.RWMutex
	bestKnownHeader  *HeaderDescriptor
	bestKnownAt      time.Time
	ibdThreshold     time.Duration
	localTipProvider func() uint32
}

// NewGlobalSyncState creates sync state that considers the node in IBD
// while its local tip is below the best known header and that header
// was recorded no more than ibdThreshold ago; localTip reports the
// current local chain height.
func NewGlobalSyncState(ibdThreshold time.Duration, localTip func() uint32) *GlobalSyncState {
	return &GlobalSyncState{
		ibdThreshold:     ibdThreshold,
		localTipProvider: localTip,
	}
}

// NSync returns the number of peers we are actively headers-syncing
// from.
func (g *GlobalSyncState) NSync() int32 {
	return g.nSync.Load()
}

// IncNSync increments the headers-syncing peer counter: dispatching a
// GetHeaders to a peer marks it as actively syncing.
func (g *GlobalSyncState) IncNSync() {
	g.nSync.Inc()
}

// DecNSync decrements the headers-syncing peer counter, floored at
// zero defensively (a peer disconnecting mid-sync must not make the
// counter go negative).
func (g *GlobalSyncState) DecNSync() {
	for {
		cur := g.nSync.Load()
		if cur <= 0 {
			return
		}
		if g.nSync.CAS(cur, cur-1) {
			return
		}
	}
}

// UpdateBestKnownHeader records hd as the best header the node is aware
// of if it extends the current best.
func (g *GlobalSyncState) UpdateBestKnownHeader(hd HeaderDescriptor) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.bestKnownHeader == nil || hd.Height > g.bestKnownHeader.Height {
		cp := hd
		g.bestKnownHeader = &cp
		g.bestKnownAt = time.Now()
	}
}

// BestKnownHeader returns the best known header, or nil if none is
// known yet.
func (g *GlobalSyncState) BestKnownHeader() *HeaderDescriptor {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.bestKnownHeader
}

// IsInitialBlockDownload reports whether the node should still be
// aggressively header-syncing: true until the local tip has caught up
// to the best known header, or once the best known header is itself
// older than ibdThreshold (the network has gone quiet, nothing left to
// chase).
func (g *GlobalSyncState) IsInitialBlockDownload() bool {
	g.mu.RLock()
	best := g.bestKnownHeader
	bestAt := g.bestKnownAt
	g.mu.RUnlock()

	if best == nil {
		return false
	}
	if time.Since(bestAt) > g.ibdThreshold {
		return false
	}
	return g.localTipProvider() < best.Height
}
