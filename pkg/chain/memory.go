package chain

import (
	"sync"

	"github.com/blockrelay/corenode/pkg/core/block"
	"github.com/blockrelay/corenode/pkg/util"
)

// Memory is a reference, non-persistent View used by tests and by nodes
// that don't need real validation. It accepts any header/block handed to
// it without consensus checks — the sync engine is responsible for
// validating contiguity and PoW before calling AddHeaders/AddBlock (spec
// §4.2, §4.3).
type Memory struct {
	mu sync.RWMutex

	headers     map[util.Uint256]*block.Header
	headerByIdx map[uint32]util.Uint256
	blocks      map[util.Uint256]*block.Block
	headerTip   uint32
	blockTip    uint32
}

// NewMemory creates a Memory chain seeded with a genesis header at
// height 0.
func NewMemory(genesis *block.Header) *Memory {
	m := &Memory{
		headers:     make(map[util.Uint256]*block.Header),
		headerByIdx: make(map[uint32]util.Uint256),
		blocks:      make(map[util.Uint256]*block.Block),
	}
	h := genesis.Hash()
	m.headers[h] = genesis
	m.headerByIdx[0] = h
	m.blocks[h] = block.NewBlock(*genesis, nil)
	return m
}

// BlockHeight implements View.
func (m *Memory) BlockHeight() uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.blockTip
}

// HeaderHeight implements View.
func (m *Memory) HeaderHeight() uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.headerTip
}

// CurrentHeaderHash implements View.
func (m *Memory) CurrentHeaderHash() util.Uint256 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.headerByIdx[m.headerTip]
}

// GetHeaderHash implements View.
func (m *Memory) GetHeaderHash(height uint32) util.Uint256 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.headerByIdx[height]
}

// GetHeader implements View.
func (m *Memory) GetHeader(hash util.Uint256) (*block.Header, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.headers[hash]
	if !ok {
		return nil, ErrNotFound
	}
	return h, nil
}

// GetBlock implements View.
func (m *Memory) GetBlock(hash util.Uint256) (*block.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blocks[hash]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

// GetAncestor implements View by walking PrevHash links back from hash.
func (m *Memory) GetAncestor(hash util.Uint256, height uint32) (*block.Header, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.headers[hash]
	if !ok {
		return nil, ErrNotFound
	}
	for h.Index > height {
		parent, ok := m.headers[h.PrevHash]
		if !ok {
			return nil, ErrNotFound
		}
		h = parent
	}
	if h.Index != height {
		return nil, ErrNotFound
	}
	return h, nil
}

// HasBlock implements View.
func (m *Memory) HasBlock(hash util.Uint256) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.blocks[hash]
	return ok
}

// HasHeader implements View.
func (m *Memory) HasHeader(hash util.Uint256) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.headers[hash]
	return ok
}

// Locator builds a sparse descending ancestor list from tip: the 10
// consecutive ancestors by hash, then doubling the step at each
// subsequent entry until genesis.
func (m *Memory) Locator(tip util.Uint256) ([]util.Uint256, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	start, ok := m.headers[tip]
	if !ok {
		return nil, ErrNotFound
	}

	var locator []util.Uint256
	step := uint32(1)
	height := start.Index
	h := start
	for {
		locator = append(locator, h.Hash())
		if height == 0 {
			break
		}
		if len(locator) >= 10 {
			step *= 2
		}
		if step > height {
			height = 0
		} else {
			height -= step
		}
		hash, ok := m.headerByIdx[height]
		if !ok {
			break
		}
		h, ok = m.headers[hash]
		if !ok {
			break
		}
	}
	return locator, nil
}

// AddHeaders implements View. Headers are assumed already validated for
// contiguity and proof of work by the caller, the sync engine.
func (m *Memory) AddHeaders(headers ...*block.Header) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range headers {
		hash := h.Hash()
		m.headers[hash] = h
		m.headerByIdx[h.Index] = hash
		if h.Index > m.headerTip {
			m.headerTip = h.Index
		}
	}
	return nil
}

// AddBlock implements View. Accepts the block unconditionally (no
// consensus/fork-choice here, that's the chain engine's job) and
// advances the tip only if it extends the current chain linearly.
func (m *Memory) AddBlock(b *block.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	hash := b.Hash()
	m.blocks[hash] = b
	if _, ok := m.headers[hash]; !ok {
		m.headers[hash] = &b.Header
		m.headerByIdx[b.Index] = hash
		if b.Index > m.headerTip {
			m.headerTip = b.Index
		}
	}
	if b.Index == m.blockTip+1 {
		m.blockTip = b.Index
	}
	return nil
}
