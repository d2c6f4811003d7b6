// Package util provides the fixed-size Uint256 hash type and hashing
// helpers shared by the block, transaction, and network packages.
package util

import (
	"crypto/sha256"
	"encoding/binary"
)

// Sha256 computes the single SHA256 hash of b.
func Sha256(b []byte) Uint256 {
	return sha256.Sum256(b)
}

// DoubleSha256 computes SHA256(SHA256(b)).
func DoubleSha256(b []byte) Uint256 {
	first := sha256.Sum256(b)
	return sha256.Sum256(first[:])
}

// Checksum returns the first 4 bytes of DoubleSha256(b) as a
// little-endian uint32, used to validate message framing.
func Checksum(b []byte) uint32 {
	sum := DoubleSha256(b)
	return binary.LittleEndian.Uint32(sum[:4])
}
