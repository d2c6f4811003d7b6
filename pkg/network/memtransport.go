package network

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemTransport is a reference, in-process Transporter used by tests and
// by embedders that don't yet have a real peer connection substrate
// wired up: sends land in a per-peer outbox instead of going over a
// socket. Session identity is a generated UUID truncated to a PeerID,
// standing in for whatever identifier a real transport would assign a
// freshly accepted connection.
type MemTransport struct {
	mu        sync.Mutex
	sessions  map[PeerID]*memSession
	outbox    map[PeerID][]any
	timers    map[TimerToken]time.Duration
	disconnects []PeerID
}

type memSession struct {
	addr string
}

// RemoteAddr implements Session.
func (s *memSession) RemoteAddr() string { return s.addr }

// NewMemTransport creates an empty in-memory transport.
func NewMemTransport() *MemTransport {
	return &MemTransport{
		sessions: make(map[PeerID]*memSession),
		outbox:   make(map[PeerID][]any),
		timers:   make(map[TimerToken]time.Duration),
	}
}

// NewSyntheticPeerID mints a fresh PeerID from a random UUID, the way a
// test substrate assigns an identity to a newly accepted connection
// before a real handshake exists to derive one from.
func NewSyntheticPeerID() PeerID {
	id := uuid.New()
	return PeerID(binary.LittleEndian.Uint64(id[:8]))
}

// AddPeer registers a synthetic session for peer, so Sessions resolves
// it.
func (t *MemTransport) AddPeer(peer PeerID, addr string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[peer] = &memSession{addr: addr}
}

// SendPayload implements Transporter by appending to peer's outbox.
func (t *MemTransport) SendPayload(peer PeerID, payload any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.outbox[peer] = append(t.outbox[peer], payload)
	return nil
}

// RespondPayload implements Transporter identically to SendPayload —
// a real substrate distinguishes "reply to the frame being handled"
// from "send anew", but both resolve to the same peer here.
func (t *MemTransport) RespondPayload(peer PeerID, payload any) error {
	return t.SendPayload(peer, payload)
}

// Sessions implements Transporter.
func (t *MemTransport) Sessions(peers []PeerID) []PeerSession {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]PeerSession, 0, len(peers))
	for _, p := range peers {
		if s, ok := t.sessions[p]; ok {
			out = append(out, PeerSession{Peer: p, Session: s})
		}
	}
	return out
}

// RegisterTimer implements Transporter by recording the interval for
// inspection in tests; MemTransport does not fire timers itself.
func (t *MemTransport) RegisterTimer(token TimerToken, interval time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timers[token] = interval
}

// RequestDisconnect implements Transporter by recording the request;
// tests assert against Disconnects.
func (t *MemTransport) RequestDisconnect(peer PeerID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disconnects = append(t.disconnects, peer)
}

// Outbox returns everything sent to peer so far.
func (t *MemTransport) Outbox(peer PeerID) []any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]any(nil), t.outbox[peer]...)
}

// Disconnects returns every peer RequestDisconnect was called with, in
// order.
func (t *MemTransport) Disconnects() []PeerID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]PeerID(nil), t.disconnects...)
}
