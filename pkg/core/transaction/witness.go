package transaction

// Witness contains the invocation and verification scripts authorizing
// a transaction or block header.
type Witness struct {
	InvocationScript   []byte
	VerificationScript []byte
}

// IsEmpty reports whether both scripts are empty, used by header
// integrity checks that require a non-trivial witness.
func (w Witness) IsEmpty() bool {
	return len(w.InvocationScript) == 0 && len(w.VerificationScript) == 0
}
