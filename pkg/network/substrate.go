package network

import "time"

// TimerToken identifies a registered periodic timer.
type TimerToken int

// Recognized timer tokens.
const (
	TokenSendGetHeaders TimerToken = iota + 1
	TokenBlockFetch
)

// Session is an opaque per-peer transport session handle, returned
// alongside a PeerID by Transporter.Sessions.
type Session interface {
	// RemoteAddr identifies the session for logging purposes.
	RemoteAddr() string
}

// Transporter is the peer connection substrate this core consumes:
// session lifetime, framing, and byte transport are its job, not ours.
// All methods are non-blocking best effort — the substrate's read path
// must never block.
type Transporter interface {
	// SendPayload sends payload to peer, best effort.
	SendPayload(peer PeerID, payload any) error
	// RespondPayload replies on the frame currently being handled
	// — used by handlers that process a request and want to
	// reply to its originator without re-resolving the peer.
	RespondPayload(peer PeerID, payload any) error
	// Sessions resolves peer IDs to their live sessions, filtering out
	// any that are no longer connected.
	Sessions(peers []PeerID) []PeerSession
	// RegisterTimer asks the substrate to fire Handler.Timeout(token)
	// every interval.
	RegisterTimer(token TimerToken, interval time.Duration)
	// RequestDisconnect asks the substrate to drop peer, used by
	// SyncHandler.bumpMisbehavior once a peer's MisbehaviorScore
	// reaches Config.MisbehaviorBanThreshold.
	RequestDisconnect(peer PeerID)
}

// PeerSession pairs a PeerID with its live Session, as returned by
// Transporter.Sessions.
type PeerSession struct {
	Peer    PeerID
	Session Session
}
