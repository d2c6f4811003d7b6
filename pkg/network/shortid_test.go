package network

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blockrelay/corenode/pkg/core/block"
	"github.com/blockrelay/corenode/pkg/core/transaction"
)

func TestShortIDDeterministic(t *testing.T) {
	h := &block.Header{Index: 201}
	k0, k1 := shortIDKeys(0xDEADBEEF, h)
	tx := &transaction.Transaction{Nonce: 7}

	s1 := computeShortID(k0, k1, tx.Hash())
	s2 := computeShortID(k0, k1, tx.Hash())
	assert.Equal(t, s1, s2)
}

func TestShortIDDependsOnlyOnTxHash(t *testing.T) {
	h := &block.Header{Index: 201}
	k0, k1 := shortIDKeys(42, h)

	txA := &transaction.Transaction{Nonce: 1}
	txB := &transaction.Transaction{Nonce: 1}
	assert.Equal(t, txA.Hash(), txB.Hash())
	assert.Equal(t, computeShortID(k0, k1, txA.Hash()), computeShortID(k0, k1, txB.Hash()))
}

func TestShortIDKeysVaryByNonce(t *testing.T) {
	h := &block.Header{Index: 201}
	k0a, k1a := shortIDKeys(1, h)
	k0b, k1b := shortIDKeys(2, h)
	assert.False(t, k0a == k0b && k1a == k1b, "different nonces must yield different key pairs")
}
