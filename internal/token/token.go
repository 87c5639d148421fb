// Package token defines the fungible-token collaborators of the engine and
// ships in-memory implementations of them.
package token

import (
	"context"
	"errors"

	"github.com/holiman/uint256"

	"frizo/stablecoin_engine/internal/common"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrNotOwner              = errors.New("caller is not the token owner")
	ErrZeroAddress           = errors.New("zero address")
	ErrZeroAmount            = errors.New("amount must be greater than zero")
)

// Token is a fungible asset with ERC20 transfer and allowance semantics.
type Token interface {
	Symbol() string
	TotalSupply() *uint256.Int
	BalanceOf(owner common.Address) *uint256.Int
	Allowance(owner, spender common.Address) *uint256.Int
	Approve(ctx context.Context, owner, spender common.Address, amount *uint256.Int) error
	Transfer(ctx context.Context, from, to common.Address, amount *uint256.Int) error
	TransferFrom(ctx context.Context, spender, from, to common.Address, amount *uint256.Int) error
}

// DebtToken is the pegged asset issued against collateral. Mint and Burn are
// restricted to the token owner.
type DebtToken interface {
	Token
	Mint(ctx context.Context, caller, to common.Address, amount *uint256.Int) error
	Burn(ctx context.Context, caller, from common.Address, amount *uint256.Int) error
}

// Registry resolves a collateral asset address to its token.
type Registry interface {
	Token(asset common.Address) (Token, bool)
}
