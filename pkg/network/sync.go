package network

import (
	"go.uber.org/zap"

	"github.com/blockrelay/corenode/pkg/chain"
	"github.com/blockrelay/corenode/pkg/core/block"
	"github.com/blockrelay/corenode/pkg/network/payload"
	"github.com/blockrelay/corenode/pkg/util"
)

// SyncEngine drives header exchange: requesting headers from peers,
// validating and indexing what comes back, and deciding when the node
// is done catching up. It owns no transport of its own — every reply
// goes out through a Transporter the caller supplies.
type SyncEngine struct {
	cfg     Config
	view    chain.View
	peers   *PeerRegistry
	global  *GlobalSyncState
	log     *zap.Logger
}

// NewSyncEngine builds a sync engine over view, tracking per-peer state
// in peers and process-wide progress in global.
func NewSyncEngine(cfg Config, view chain.View, peers *PeerRegistry, global *GlobalSyncState, log *zap.Logger) *SyncEngine {
	if log == nil {
		log = zap.NewNop()
	}
	return &SyncEngine{cfg: cfg.withDefaults(), view: view, peers: peers, global: global, log: log}
}

// ShouldDispatchGetHeaders reports whether the SEND_GET_HEADERS_TOKEN
// firing should actually send anything: once enough peers are already
// mid-sync and the node is still catching up, there is no point
// opening more locator round trips.
func (s *SyncEngine) ShouldDispatchGetHeaders() bool {
	return s.global.NSync() == 0 || !s.global.IsInitialBlockDownload()
}

// BuildGetHeaders constructs the GetHeaders request to send to peer,
// from the current header-chain tip, and marks peer as syncing.
func (s *SyncEngine) BuildGetHeaders(peer PeerID) (*payload.GetHeaders, error) {
	s.global.IncNSync()
	tip := s.view.CurrentHeaderHash()
	locator, err := s.view.Locator(tip)
	if err != nil {
		s.global.DecNSync()
		return nil, err
	}
	return &payload.GetHeaders{
		Version:            0,
		BlockLocatorHashes: locator,
		HashStop:           util.Uint256{},
	}, nil
}

// HandleGetHeaders answers a peer's locator with up to
// Config.MaxHeadersPerMessage headers following the first locator
// entry it recognizes locally (or following genesis when it recognizes
// none), stopping early at HashStop if given.
func (s *SyncEngine) HandleGetHeaders(peer PeerID, msg *payload.GetHeaders) (*payload.Headers, error) {
	var start *block.Header
	for _, h := range msg.BlockLocatorHashes {
		if hdr, err := s.view.GetHeader(h); err == nil {
			start = hdr
			break
		}
	}
	if start == nil {
		s.log.Debug("getheaders locator matched nothing known locally", zap.Uint64("peer", uint64(peer)))
		genesis, err := s.view.GetHeader(s.view.GetHeaderHash(0))
		if err != nil {
			return &payload.Headers{}, nil
		}
		start = genesis
	}

	headers := make([]*block.Header, 0, s.cfg.MaxHeadersPerMessage)
	height := start.Index + 1
	for len(headers) < s.cfg.MaxHeadersPerMessage {
		hash := s.view.GetHeaderHash(height)
		if hash.IsZero() {
			break
		}
		hdr, err := s.view.GetHeader(hash)
		if err != nil {
			break
		}
		headers = append(headers, hdr)
		if !msg.HashStop.IsZero() && hash.Equals(msg.HashStop) {
			break
		}
		height++
	}
	return &payload.Headers{Headers: headers}, nil
}

// HandleHeaders validates and indexes a Headers batch from peer. It
// enforces the one invariant that can never be relaxed: the batch must
// be internally contiguous and its first header's parent must already
// be known locally, or the whole batch is rejected and the peer's
// misbehavior score is raised. The caller is responsible for actually
// bumping MisbehaviorScore and requesting disconnection once the
// threshold is crossed; HandleHeaders only reports what happened.
func (s *SyncEngine) HandleHeaders(peer PeerID, msg *payload.Headers) (accepted int, err error) {
	s.global.DecNSync()

	headers := msg.Headers
	if len(headers) == 0 {
		return 0, nil
	}

	if !s.view.HasHeader(headers[0].PrevHash) && headers[0].Index != 0 {
		return 0, errOrphanHeaderBatch
	}
	for i := 1; i < len(headers); i++ {
		if headers[i].PrevHash != headers[i-1].Hash() || headers[i].Index != headers[i-1].Index+1 {
			return 0, errHeaderNotContiguous
		}
	}
	for _, h := range headers {
		if !block.ValidateIntegrity(h, s.cfg.MinPoWLeadingZeroBits) {
			return 0, errBadHeader
		}
	}

	if err := s.view.AddHeaders(headers...); err != nil {
		return 0, err
	}

	last := headers[len(headers)-1]
	s.global.UpdateBestKnownHeader(HeaderDescriptor{Hash: last.Hash(), Height: last.Index})
	s.peers.WithState(peer, func(st *PeerState) {
		st.BestKnownHeader = &HeaderDescriptor{Hash: last.Hash(), Height: last.Index}
	})

	if len(headers) == s.cfg.MaxHeadersPerMessage {
		s.global.IncNSync()
	}
	return len(headers), nil
}
