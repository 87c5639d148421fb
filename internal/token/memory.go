package token

import (
	"context"
	"fmt"
	"sync"

	"github.com/holiman/uint256"

	"frizo/stablecoin_engine/internal/common"
)

type allowanceKey struct {
	owner   common.Address
	spender common.Address
}

// Memory is an in-memory token ledger.
type Memory struct {
	symbol string

	balances   map[common.Address]*uint256.Int
	allowances map[allowanceKey]*uint256.Int
	supply     *uint256.Int

	mu sync.RWMutex
}

var _ Token = (*Memory)(nil)

func NewMemory(symbol string) *Memory {
	return &Memory{
		symbol:     symbol,
		balances:   make(map[common.Address]*uint256.Int),
		allowances: make(map[allowanceKey]*uint256.Int),
		supply:     common.Zero(),
	}
}

func (m *Memory) Symbol() string {
	return m.symbol
}

func (m *Memory) TotalSupply() *uint256.Int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.supply.Clone()
}

func (m *Memory) BalanceOf(owner common.Address) *uint256.Int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balanceOf(owner).Clone()
}

func (m *Memory) Allowance(owner, spender common.Address) *uint256.Int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.allowances[allowanceKey{owner, spender}]; ok {
		return v.Clone()
	}
	return common.Zero()
}

func (m *Memory) Approve(_ context.Context, owner, spender common.Address, amount *uint256.Int) error {
	if owner.IsZero() || spender.IsZero() {
		return ErrZeroAddress
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allowances[allowanceKey{owner, spender}] = amount.Clone()
	return nil
}

func (m *Memory) Transfer(_ context.Context, from, to common.Address, amount *uint256.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transfer(from, to, amount)
}

func (m *Memory) TransferFrom(_ context.Context, spender, from, to common.Address, amount *uint256.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if spender != from {
		if err := m.spendAllowance(from, spender, amount); err != nil {
			return err
		}
	}
	return m.transfer(from, to, amount)
}

// Fund creates amount out of thin air for to. Test and simulation faucet.
func (m *Memory) Fund(to common.Address, amount *uint256.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mint(to, amount)
}

// --------------------------------------------------------------------------------------------
// private func, callers hold mu
// --------------------------------------------------------------------------------------------

func (m *Memory) balanceOf(owner common.Address) *uint256.Int {
	if v, ok := m.balances[owner]; ok {
		return v
	}
	return common.Zero()
}

func (m *Memory) transfer(from, to common.Address, amount *uint256.Int) error {
	if from.IsZero() || to.IsZero() {
		return ErrZeroAddress
	}
	fromBalance := m.balanceOf(from)
	if fromBalance.Lt(amount) {
		return fmt.Errorf("%w: %s has %s %s, needs %s", ErrInsufficientBalance,
			from, common.FormatAmount(fromBalance), m.symbol, common.FormatAmount(amount))
	}
	m.balances[from] = new(uint256.Int).Sub(fromBalance, amount)
	m.balances[to] = new(uint256.Int).Add(m.balanceOf(to), amount)
	return nil
}

func (m *Memory) spendAllowance(owner, spender common.Address, amount *uint256.Int) error {
	key := allowanceKey{owner, spender}
	current, ok := m.allowances[key]
	if !ok || current.Lt(amount) {
		return fmt.Errorf("%w: %s may spend less than %s %s of %s", ErrInsufficientAllowance,
			spender, common.FormatAmount(amount), m.symbol, owner)
	}
	m.allowances[key] = new(uint256.Int).Sub(current, amount)
	return nil
}

func (m *Memory) mint(to common.Address, amount *uint256.Int) error {
	if to.IsZero() {
		return ErrZeroAddress
	}
	supply, err := common.Add(m.supply, amount)
	if err != nil {
		return err
	}
	m.supply = supply
	m.balances[to] = new(uint256.Int).Add(m.balanceOf(to), amount)
	return nil
}

func (m *Memory) burn(from common.Address, amount *uint256.Int) error {
	balance := m.balanceOf(from)
	if balance.Lt(amount) {
		return fmt.Errorf("%w: %s has %s %s, burning %s", ErrInsufficientBalance,
			from, common.FormatAmount(balance), m.symbol, common.FormatAmount(amount))
	}
	m.balances[from] = new(uint256.Int).Sub(balance, amount)
	m.supply = new(uint256.Int).Sub(m.supply, amount)
	return nil
}
