package token

import (
	"context"

	"github.com/holiman/uint256"

	"frizo/stablecoin_engine/internal/common"
)

// Stablecoin is the debt asset. Only its owner, the engine, may mint or burn.
type Stablecoin struct {
	*Memory
	owner common.Address
}

var _ DebtToken = (*Stablecoin)(nil)

func NewStablecoin(symbol string, owner common.Address) *Stablecoin {
	return &Stablecoin{
		Memory: NewMemory(symbol),
		owner:  owner,
	}
}

func (s *Stablecoin) Owner() common.Address {
	return s.owner
}

func (s *Stablecoin) Mint(_ context.Context, caller, to common.Address, amount *uint256.Int) error {
	if caller != s.owner {
		return ErrNotOwner
	}
	if amount.IsZero() {
		return ErrZeroAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mint(to, amount)
}

// Burn destroys amount held by from. Burning someone else's balance consumes
// the allowance from granted to the owner.
func (s *Stablecoin) Burn(_ context.Context, caller, from common.Address, amount *uint256.Int) error {
	if caller != s.owner {
		return ErrNotOwner
	}
	if amount.IsZero() {
		return ErrZeroAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if from != caller {
		if err := s.spendAllowance(from, caller, amount); err != nil {
			return err
		}
	}
	return s.burn(from, amount)
}

// Fund is not available on the debt asset; supply only comes from Mint.
func (s *Stablecoin) Fund(common.Address, *uint256.Int) error {
	return ErrNotOwner
}
