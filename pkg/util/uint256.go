package util

import (
	"encoding/hex"
	"fmt"
)

// Uint256Size is the size of Uint256 in bytes.
const Uint256Size = 32

// Uint256 is a 32 byte long unsigned integer, typically used to hold a
// SHA256 hash.
type Uint256 [Uint256Size]byte

// Uint256DecodeBytesBE converts a big-endian byte slice into a Uint256.
func Uint256DecodeBytesBE(b []byte) (u Uint256, err error) {
	if len(b) != Uint256Size {
		return u, fmt.Errorf("expected byte length of %d got %d", Uint256Size, len(b))
	}
	copy(u[:], b)
	return u, nil
}

// Uint256DecodeStringBE converts a hex string (big-endian) to a Uint256.
func Uint256DecodeStringBE(s string) (u Uint256, err error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return u, err
	}
	return Uint256DecodeBytesBE(b)
}

// BytesBE returns a big-endian byte representation of u.
func (u Uint256) BytesBE() []byte {
	b := make([]byte, Uint256Size)
	copy(b, u[:])
	return b
}

// BytesLE returns a little-endian byte representation of u.
func (u Uint256) BytesLE() []byte {
	b := u.BytesBE()
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return b
}

// Equals returns true if both Uint256 values are identical.
func (u Uint256) Equals(other Uint256) bool {
	return u == other
}

// Less reports whether u precedes other in byte order, giving Uint256 a
// total order so it can be used as a sorted map key.
func (u Uint256) Less(other Uint256) bool {
	for i := range u {
		if u[i] != other[i] {
			return u[i] < other[i]
		}
	}
	return false
}

// IsZero returns true when u is the zero hash.
func (u Uint256) IsZero() bool {
	return u == Uint256{}
}

// String implements the fmt.Stringer interface.
func (u Uint256) String() string {
	return hex.EncodeToString(u.BytesBE())
}
