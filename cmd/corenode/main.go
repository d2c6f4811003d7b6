// Command corenode drives the sync/relay core against an in-memory
// substrate, the way cmd/neoserver drove the original server against a
// TCP listener. There is no real peer connection substrate or wire
// codec here: both are external collaborators this core depends on but
// does not implement (see pkg/network.Transporter and .Decoder).
package main

import (
	"errors"
	"flag"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/blockrelay/corenode/pkg/chain"
	"github.com/blockrelay/corenode/pkg/core/block"
	"github.com/blockrelay/corenode/pkg/core/transaction"
	"github.com/blockrelay/corenode/pkg/mempool"
	"github.com/blockrelay/corenode/pkg/network"
)

var (
	metricsAddr = flag.String("metrics", ":2112", "address to expose Prometheus metrics on")
	peerCount   = flag.Int("peers", 3, "number of synthetic peers to register against the in-memory substrate")
)

func main() {
	flag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync() //nolint:errcheck

	genesis := &block.Header{Index: 0, Script: transaction.Witness{InvocationScript: []byte{1}}}
	view := chain.NewMemory(genesis)
	pool := mempool.NewMemory()
	trans := network.NewMemTransport()

	reg := prometheus.NewRegistry()
	handler := network.NewSyncHandler(network.Config{}, view, pool, trans, noopDecoder{}, log, reg)
	if err := handler.Initialize(); err != nil {
		log.Fatal("initialize failed", zap.Error(err))
	}
	defer handler.Stop()

	for i := 0; i < *peerCount; i++ {
		peer := network.NewSyntheticPeerID()
		trans.AddPeer(peer, "synthetic")
		handler.Connected(peer)
	}

	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
			log.Error("metrics server stopped", zap.Error(err))
		}
	}()

	// MemTransport never fires its own timers (it only records the
	// registered intervals), so drive both periodic tokens here the way
	// a real substrate's timer wheel would.
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		handler.Timeout(network.TokenSendGetHeaders)
		handler.Timeout(network.TokenBlockFetch)
	}
}

// noopDecoder stands in for the wire-format codec named in spec.md §1
// as an external collaborator: this binary has no real framing to
// decode, so every frame is rejected and dropped per the handler's
// scenario-F behavior.
type noopDecoder struct{}

func (noopDecoder) Decode([]byte) (any, error) {
	return nil, errors.New("no wire codec wired in this reference binary")
}
