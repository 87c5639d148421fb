package engine

import (
	"context"

	"github.com/holiman/uint256"

	"frizo/stablecoin_engine/internal/common"
	"frizo/stablecoin_engine/internal/oracle"
	"frizo/stablecoin_engine/pkg/utils"
)

// AssetBalance is the collateral an account holds in one asset.
type AssetBalance struct {
	Asset  common.Address
	Amount *uint256.Int
}

// AccountSummary is the full position of one account.
type AccountSummary struct {
	Account       common.Address
	Debt          *uint256.Int
	Collateral    []AssetBalance // every registered asset, registration order
	CollateralUsd *uint256.Int
	Health        HealthFactor
}

// Address is the address the engine holds tokens under.
func (e *Engine) Address() common.Address {
	return e.self
}

func (e *Engine) DebtAsset() common.Address {
	return e.debtAsset
}

// CollateralAssets lists the allowed collateral in registration order.
func (e *Engine) CollateralAssets() []common.Address {
	return e.registry.Assets()
}

// PriceFeed returns the feed that prices asset.
func (e *Engine) PriceFeed(asset common.Address) (oracle.FeedID, bool) {
	return e.registry.Feed(asset)
}

// =====================================================
// ledger reads
// =====================================================

func (e *Engine) CollateralBalance(ctx context.Context, user, asset common.Address) *uint256.Int {
	_, unlock := e.view(ctx)
	defer unlock()
	return e.ledger.collateralOf(asset, user)
}

func (e *Engine) Debt(ctx context.Context, user common.Address) *uint256.Int {
	_, unlock := e.view(ctx)
	defer unlock()
	return e.ledger.debtOf(user)
}

// TotalDebt is the sum of all recorded debt. It always equals the supply of
// the debt token minted through this engine.
func (e *Engine) TotalDebt(ctx context.Context) *uint256.Int {
	_, unlock := e.view(ctx)
	defer unlock()
	return e.ledger.totalDebt()
}

func (e *Engine) TotalCollateral(ctx context.Context, asset common.Address) *uint256.Int {
	_, unlock := e.view(ctx)
	defer unlock()
	return e.ledger.totalCollateral(asset)
}

// Accounts lists every account with collateral or debt, sorted.
func (e *Engine) Accounts(ctx context.Context) []common.Address {
	_, unlock := e.view(ctx)
	defer unlock()
	return e.ledger.owners()
}

// LiquidatableAccounts lists the accounts whose health factor is below
// MinHealthFactor at current prices.
func (e *Engine) LiquidatableAccounts(ctx context.Context) ([]common.Address, error) {
	ctx, unlock := e.view(ctx)
	defer unlock()

	owners := e.ledger.owners()
	factors := make(map[common.Address]HealthFactor, len(owners))
	for _, owner := range owners {
		hf, err := e.healthFactor(ctx, owner)
		if err != nil {
			return nil, err
		}
		factors[owner] = hf
	}
	return utils.Filter(owners, func(owner common.Address) bool {
		return factors[owner].IsLiquidatable()
	}), nil
}

func (e *Engine) AccountSummary(ctx context.Context, user common.Address) (AccountSummary, error) {
	ctx, unlock := e.view(ctx)
	defer unlock()

	debt, collateralUsd, err := e.accountInformation(ctx, user)
	if err != nil {
		return AccountSummary{}, err
	}
	health, err := CalculateHealthFactor(debt, collateralUsd)
	if err != nil {
		return AccountSummary{}, err
	}
	return AccountSummary{
		Account: user,
		Debt:    debt,
		Collateral: utils.Map(e.registry.Assets(), func(asset common.Address) AssetBalance {
			return AssetBalance{Asset: asset, Amount: e.ledger.collateralOf(asset, user)}
		}),
		CollateralUsd: collateralUsd,
		Health:        health,
	}, nil
}
