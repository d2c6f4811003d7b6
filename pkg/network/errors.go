package network

import "errors"

// Sentinel errors, package-level vars in the style of
// errAlreadyConnected/errIdenticalID elsewhere in this codebase.
var (
	errQueueFull           = errors.New("network: task queue full")
	errUnknownPeer         = errors.New("network: unknown peer")
	errHeaderNotContiguous = errors.New("network: headers batch is not contiguous")
	errBadHeader           = errors.New("network: header failed integrity/PoW check")
	errOrphanHeaderBatch   = errors.New("network: first header's parent is not known locally")
)
