package transaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransactionHashDeterministic(t *testing.T) {
	tx := &Transaction{Nonce: 1, Script: []byte("abc")}
	other := &Transaction{Nonce: 1, Script: []byte("abc")}
	assert.Equal(t, tx.Hash(), other.Hash())
}

func TestTransactionHashDistinguishesNonce(t *testing.T) {
	tx := &Transaction{Nonce: 1, Script: []byte("abc")}
	other := &Transaction{Nonce: 2, Script: []byte("abc")}
	assert.NotEqual(t, tx.Hash(), other.Hash())
}

func TestWitnessIsEmpty(t *testing.T) {
	var w Witness
	assert.True(t, w.IsEmpty())

	w.InvocationScript = []byte{1}
	assert.False(t, w.IsEmpty())
}
