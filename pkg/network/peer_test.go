package network

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockrelay/corenode/pkg/util"
)

func TestPeerRegistryConnectedIdempotent(t *testing.T) {
	r := NewPeerRegistry()
	r.Connected(1)
	st := r.Get(1)
	require.NotNil(t, st)

	r.Connected(1)
	assert.Same(t, st, r.Get(1), "Connected must not replace existing state")
}

func TestPeerRegistryDisconnectedRemoves(t *testing.T) {
	r := NewPeerRegistry()
	r.Connected(1)
	r.Disconnected(1)
	assert.Nil(t, r.Get(1))
	assert.Equal(t, 0, r.Count())
}

func TestPeerRegistrySnapshotStable(t *testing.T) {
	r := NewPeerRegistry()
	r.Connected(1)
	r.Connected(2)
	r.Connected(3)
	snap := r.Snapshot()
	assert.Len(t, snap, 3)
}

func TestPeerStateReleaseInFlight(t *testing.T) {
	r := NewPeerRegistry()
	r.Connected(1)
	h1 := util.Sha256([]byte("a"))
	h2 := util.Sha256([]byte("b"))
	r.WithState(1, func(s *PeerState) {
		s.InFlightBlocks[h1] = time.Now()
		s.InFlightBlocks[h2] = time.Now()
	})

	st := r.Get(1)
	released := st.ReleaseInFlight()
	assert.ElementsMatch(t, []util.Uint256{h1, h2}, released)
	assert.Empty(t, st.InFlightBlocks)
}

func TestPeerRegistryWithStateUnknownPeer(t *testing.T) {
	r := NewPeerRegistry()
	called := false
	ok := r.WithState(42, func(s *PeerState) { called = true })
	assert.False(t, ok)
	assert.False(t, called)
}
