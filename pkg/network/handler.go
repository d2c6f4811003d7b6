package network

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/blockrelay/corenode/pkg/chain"
	"github.com/blockrelay/corenode/pkg/core/block"
	"github.com/blockrelay/corenode/pkg/core/transaction"
	"github.com/blockrelay/corenode/pkg/mempool"
	"github.com/blockrelay/corenode/pkg/network/payload"
)

// Decoder turns a substrate-delivered frame into one of the logical
// message types in the payload package. The wire-format codec is an
// external collaborator (spec.md §1); Decoder is the narrow seam this
// core needs from it. A decode error is logged and the frame dropped;
// a decoded value of an unrecognized type is ignored.
type Decoder interface {
	Decode(frame []byte) (msg any, err error)
}

// Handler is the lifecycle interface the peer substrate drives: both
// the sync and relay protocol share it, modeled as a single type here
// since every inbound frame ultimately needs both engines (spec.md §9
// "Polymorphism" names this as one interface, two conceptual roles).
type Handler interface {
	Initialize() error
	Connected(peer PeerID)
	Disconnected(peer PeerID)
	Read(peer PeerID, frame []byte)
	Timeout(token TimerToken)
}

// SyncHandler wires the peer registry, sync engine, block fetcher, and
// relay engine behind the substrate's lifecycle callbacks, posting
// every frame and every timer firing as exactly one task onto the
// shared Dispatcher (spec.md §4.1, §4.4).
type SyncHandler struct {
	cfg     Config
	peers   *PeerRegistry
	global  *GlobalSyncState
	sync    *SyncEngine
	fetcher *BlockFetcher
	relay   *RelayEngine
	disp    *Dispatcher
	decoder Decoder
	trans   Transporter
	log     *zap.Logger
	metrics *Metrics
}

// NewSyncHandler assembles a handler from its collaborators. view and
// pool back the engines; trans is the substrate's send/session/timer
// surface; decoder turns inbound frames into logical messages.
func NewSyncHandler(cfg Config, view chain.View, pool mempool.Pool, trans Transporter, decoder Decoder, log *zap.Logger, reg prometheus.Registerer) *SyncHandler {
	cfg = cfg.withDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	peers := NewPeerRegistry()
	global := NewGlobalSyncState(cfg.IBDThreshold, view.BlockHeight)
	dedup, _ := NewDedupSets(cfg.DedupCacheSize)
	recon := NewReconstructionState()
	disp := NewDispatcher(cfg.TaskQueueCapacity, defaultDispatcherWorkers(), log)

	h := &SyncHandler{
		cfg:     cfg,
		peers:   peers,
		global:  global,
		sync:    NewSyncEngine(cfg, view, peers, global, log),
		fetcher: NewBlockFetcher(cfg, view, peers, log),
		relay:   NewRelayEngine(cfg, dedup, recon, view, pool, peers, log),
		disp:    disp,
		decoder: decoder,
		trans:   trans,
		log:     log,
		metrics: NewMetrics(reg),
	}
	return h
}

func defaultDispatcherWorkers() int {
	return 4
}

// Initialize starts the worker pool and registers the two periodic
// timers (spec.md §4.4, §6).
func (h *SyncHandler) Initialize() error {
	h.disp.Start(context.Background())
	h.trans.RegisterTimer(TokenSendGetHeaders, h.cfg.SendGetHeadersInterval)
	h.trans.RegisterTimer(TokenBlockFetch, h.cfg.BlockFetchInterval)
	return nil
}

// Connected registers peer and, if the node still needs headers sync,
// kicks off a GetHeaders to it immediately rather than waiting for the
// next timer tick (spec.md §4.4).
func (h *SyncHandler) Connected(peer PeerID) {
	h.peers.Connected(peer)
	h.metrics.setPeerCount(h.peers.Count())
	if h.global.NSync() == 0 || h.global.IsInitialBlockDownload() {
		h.enqueue(func() { h.sendGetHeadersToPeer(peer) })
	}
}

// Disconnected removes peer from the registry and releases its
// in-flight block reservations. An already-running HandleBlock task
// for peer is not aborted — the block is accepted or rejected normally
// (spec.md §5 Cancellation).
func (h *SyncHandler) Disconnected(peer PeerID) {
	st := h.peers.Get(peer)
	h.peers.Disconnected(peer)
	h.metrics.setPeerCount(h.peers.Count())
	if st != nil {
		h.fetcher.releaseAll(peer, st.ReleaseInFlight())
	}
}

// Read decodes frame and dispatches exactly one task. Decode failures
// and unrecognized frame kinds are logged and dropped without state
// change or misbehavior (spec.md §6, §7, scenario F).
func (h *SyncHandler) Read(peer PeerID, frame []byte) {
	msg, err := h.decoder.Decode(frame)
	if err != nil {
		h.log.Warn("dropping malformed frame", zap.Uint64("peer", uint64(peer)), zap.Error(err))
		return
	}
	switch m := msg.(type) {
	case *payload.GetHeaders:
		h.enqueue(func() { h.handleGetHeaders(peer, m) })
	case *payload.Headers:
		h.enqueue(func() { h.handleHeaders(peer, m) })
	case *payload.GetData:
		h.enqueue(func() { h.handleGetData(peer, m) })
	case *block.Block:
		h.enqueue(func() { h.handleBlock(peer, m) })
	case *transaction.Transaction:
		h.enqueue(func() { h.handleTransaction(peer, m) })
	case *payload.CompactBlock:
		h.enqueue(func() { h.handleCompactBlock(peer, m) })
	case *payload.BlockTransactionsRequest:
		h.enqueue(func() { h.handleBlockTransactionsRequest(peer, m) })
	case *payload.BlockTransactions:
		h.enqueue(func() { h.handleBlockTransactions(peer, m) })
	default:
		h.log.Debug("ignoring unknown frame kind", zap.Uint64("peer", uint64(peer)))
	}
}

// Timeout handles a fired timer token, enqueuing the corresponding
// broadcast task if there's anyone to send it to (spec.md §4.4).
func (h *SyncHandler) Timeout(token TimerToken) {
	if h.peers.Count() == 0 {
		return
	}
	switch token {
	case TokenSendGetHeaders:
		if h.sync.ShouldDispatchGetHeaders() {
			h.enqueue(h.sendGetHeadersToAll)
		}
	case TokenBlockFetch:
		h.enqueue(h.fetchBlocks)
	}
}

// enqueue submits t to the dispatcher, logging and dropping it on a
// full queue rather than ever blocking the substrate's calling
// goroutine (spec.md §4.1).
func (h *SyncHandler) enqueue(t Task) {
	if err := h.disp.Enqueue(t); err != nil {
		h.log.Error("task queue full, dropping task", zap.Error(err))
	}
	h.metrics.setQueueDepth(h.disp.Len())
}

func (h *SyncHandler) sendGetHeadersToAll() {
	for _, peer := range h.peers.Snapshot() {
		h.sendGetHeadersToPeer(peer)
	}
}

func (h *SyncHandler) sendGetHeadersToPeer(peer PeerID) {
	req, err := h.sync.BuildGetHeaders(peer)
	h.metrics.setNSync(h.global.NSync())
	if err != nil {
		h.log.Error("failed to build getheaders", zap.Error(err), zap.Uint64("peer", uint64(peer)))
		return
	}
	if err := h.trans.SendPayload(peer, req); err != nil {
		h.log.Error("send getheaders failed", zap.Error(err), zap.Uint64("peer", uint64(peer)))
	}
}

func (h *SyncHandler) fetchBlocks() {
	for _, req := range h.fetcher.Schedule() {
		if err := h.trans.SendPayload(req.Peer, req.Request); err != nil {
			h.log.Error("send getdata failed", zap.Error(err), zap.Uint64("peer", uint64(req.Peer)))
		}
	}
}

func (h *SyncHandler) handleGetHeaders(peer PeerID, msg *payload.GetHeaders) {
	resp, err := h.sync.HandleGetHeaders(peer, msg)
	if err != nil {
		h.log.Error("handle getheaders failed", zap.Error(err), zap.Uint64("peer", uint64(peer)))
		return
	}
	if err := h.trans.RespondPayload(peer, resp); err != nil {
		h.log.Error("respond headers failed", zap.Error(err))
	}
}

func (h *SyncHandler) handleHeaders(peer PeerID, msg *payload.Headers) {
	n, err := h.sync.HandleHeaders(peer, msg)
	h.metrics.setNSync(h.global.NSync())
	if err != nil {
		h.bumpMisbehavior(peer, err)
		return
	}
	if n == len(msg.Headers) && n == h.cfg.MaxHeadersPerMessage {
		h.enqueue(func() { h.sendGetHeadersToPeer(peer) })
	}
}

// handleGetData answers a peer's inventory request with whichever
// items the local chain view already has, silently skipping anything
// it doesn't (the requester will eventually ask another peer or
// retry).
func (h *SyncHandler) handleGetData(peer PeerID, msg *payload.GetData) {
	for _, item := range msg.Inventory {
		if item.Type != payload.InvTypeBlock {
			continue
		}
		b, err := h.sync.view.GetBlock(item.Hash)
		if err != nil {
			continue
		}
		if err := h.trans.RespondPayload(peer, b); err != nil {
			h.log.Error("respond block failed", zap.Error(err), zap.Uint64("peer", uint64(peer)))
		}
	}
}

func (h *SyncHandler) handleBlock(peer PeerID, b *block.Block) {
	if err := h.fetcher.HandleBlock(peer, b); err != nil {
		h.log.Debug("block rejected", zap.Error(err), zap.Stringer("block", b.Hash()))
	}
}

func (h *SyncHandler) handleTransaction(peer PeerID, tx *transaction.Transaction) {
	for _, out := range h.relay.HandleTransaction(peer, tx) {
		h.send(out)
	}
}

func (h *SyncHandler) handleCompactBlock(peer PeerID, cb *payload.CompactBlock) {
	outcome := h.relay.HandleCompactBlock(peer, cb)
	h.applyCompactBlockOutcome(peer, outcome)
}

func (h *SyncHandler) handleBlockTransactionsRequest(peer PeerID, req *payload.BlockTransactionsRequest) {
	resp, ok := h.relay.HandleBlockTransactionsRequest(req)
	if !ok {
		return
	}
	if err := h.trans.RespondPayload(peer, resp); err != nil {
		h.log.Error("respond blocktransactions failed", zap.Error(err))
	}
}

func (h *SyncHandler) handleBlockTransactions(peer PeerID, msg *payload.BlockTransactions) {
	outcome := h.relay.HandleBlockTransactions(peer, msg)
	if outcome == nil {
		return
	}
	h.applyCompactBlockOutcome(peer, *outcome)
}

func (h *SyncHandler) applyCompactBlockOutcome(peer PeerID, outcome CompactBlockOutcome) {
	if outcome.Request != nil {
		if err := h.trans.RespondPayload(peer, outcome.Request); err != nil {
			h.log.Error("request blocktransactions failed", zap.Error(err))
		}
		return
	}
	for _, out := range outcome.Relay {
		h.send(out)
	}
}

func (h *SyncHandler) send(out Outbound) {
	if err := h.trans.SendPayload(out.Peer, out.Payload); err != nil {
		h.log.Error("relay send failed", zap.Error(err), zap.Uint64("peer", uint64(out.Peer)))
	}
}

// Stop halts the dispatcher's worker pool, letting already-running
// tasks drain.
func (h *SyncHandler) Stop() {
	h.disp.Stop()
}

// bumpMisbehavior raises peer's misbehavior score for a protocol
// violation and requests disconnection once it crosses the configured
// threshold (spec.md §7).
func (h *SyncHandler) bumpMisbehavior(peer PeerID, cause error) {
	var crossed bool
	h.peers.WithState(peer, func(s *PeerState) {
		s.MisbehaviorScore++
		crossed = s.MisbehaviorScore >= h.cfg.MisbehaviorBanThreshold
	})
	h.log.Warn("peer misbehavior", zap.Uint64("peer", uint64(peer)), zap.Error(cause))
	if crossed {
		h.trans.RequestDisconnect(peer)
	}
}
