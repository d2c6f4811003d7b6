package network

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGlobalSyncStateNSyncFloorsAtZero(t *testing.T) {
	g := NewGlobalSyncState(time.Hour, func() uint32 { return 0 })
	g.DecNSync()
	assert.EqualValues(t, 0, g.NSync())

	g.IncNSync()
	g.IncNSync()
	g.DecNSync()
	assert.EqualValues(t, 1, g.NSync())
}

func TestGlobalSyncStateUpdateBestKnownHeaderOnlyAdvances(t *testing.T) {
	g := NewGlobalSyncState(time.Hour, func() uint32 { return 0 })
	g.UpdateBestKnownHeader(HeaderDescriptor{Height: 100})
	g.UpdateBestKnownHeader(HeaderDescriptor{Height: 50})
	assert.EqualValues(t, 100, g.BestKnownHeader().Height)

	g.UpdateBestKnownHeader(HeaderDescriptor{Height: 150})
	assert.EqualValues(t, 150, g.BestKnownHeader().Height)
}

func TestGlobalSyncStateIBD(t *testing.T) {
	local := uint32(50)
	g := NewGlobalSyncState(time.Hour, func() uint32 { return local })

	assert.False(t, g.IsInitialBlockDownload(), "no best known header yet")

	g.UpdateBestKnownHeader(HeaderDescriptor{Height: 100})
	assert.True(t, g.IsInitialBlockDownload())

	local = 100
	assert.False(t, g.IsInitialBlockDownload())
}

func TestGlobalSyncStateIBDStaleBestKnownHeader(t *testing.T) {
	g := NewGlobalSyncState(time.Millisecond, func() uint32 { return 0 })
	g.UpdateBestKnownHeader(HeaderDescriptor{Height: 100})
	time.Sleep(5 * time.Millisecond)
	assert.False(t, g.IsInitialBlockDownload(), "stale best known header should end IBD")
}
