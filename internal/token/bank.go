package token

import (
	"sync"

	"frizo/stablecoin_engine/internal/common"
)

// Bank is a Registry backed by a map.
type Bank struct {
	tokens map[common.Address]Token
	mu     sync.RWMutex
}

var _ Registry = (*Bank)(nil)

func NewBank() *Bank {
	return &Bank{tokens: make(map[common.Address]Token)}
}

// Register binds asset to t, replacing any previous binding.
func (b *Bank) Register(asset common.Address, t Token) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[asset] = t
}

func (b *Bank) Token(asset common.Address) (Token, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	t, ok := b.tokens[asset]
	return t, ok
}
