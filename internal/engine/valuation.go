package engine

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"frizo/stablecoin_engine/internal/common"
)

// =====================================================
// price conversion, callers hold mu
// =====================================================

func (e *Engine) price(ctx context.Context, asset common.Address) (*uint256.Int, error) {
	feed, ok := e.registry.Feed(asset)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotAllowedToken, asset)
	}
	quote, err := e.prices.LatestPrice(ctx, feed)
	if err != nil {
		return nil, fmt.Errorf("price of %s: %w", asset, err)
	}
	return quote.Scaled()
}

// usdValue is price * amount / 1e18.
func (e *Engine) usdValue(ctx context.Context, asset common.Address, amount *uint256.Int) (*uint256.Int, error) {
	price, err := e.price(ctx, asset)
	if err != nil {
		return nil, err
	}
	return common.MulDiv(price, amount, common.Precision())
}

// tokenAmount is usd * 1e18 / price, rounded down.
func (e *Engine) tokenAmount(ctx context.Context, asset common.Address, usd *uint256.Int) (*uint256.Int, error) {
	price, err := e.price(ctx, asset)
	if err != nil {
		return nil, err
	}
	return common.MulDiv(usd, common.Precision(), price)
}

// collateralValue prices every registered asset, held or not, so a stale feed
// fails the valuation of every account.
func (e *Engine) collateralValue(ctx context.Context, user common.Address) (*uint256.Int, error) {
	total := common.Zero()
	for _, asset := range e.registry.Assets() {
		value, err := e.usdValue(ctx, asset, e.ledger.collateralOf(asset, user))
		if err != nil {
			return nil, err
		}
		if total, err = common.Add(total, value); err != nil {
			return nil, err
		}
	}
	return total, nil
}

func (e *Engine) accountInformation(ctx context.Context, user common.Address) (debt, collateralUsd *uint256.Int, err error) {
	collateralUsd, err = e.collateralValue(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return e.ledger.debtOf(user), collateralUsd, nil
}

func (e *Engine) healthFactor(ctx context.Context, user common.Address) (HealthFactor, error) {
	debt, collateralUsd, err := e.accountInformation(ctx, user)
	if err != nil {
		return HealthFactor{}, err
	}
	return CalculateHealthFactor(debt, collateralUsd)
}

// =====================================================
// valuation views
// =====================================================

// AssetAmountToUsd values amount of asset at the current oracle price.
func (e *Engine) AssetAmountToUsd(ctx context.Context, asset common.Address, amount *uint256.Int) (*uint256.Int, error) {
	ctx, unlock := e.view(ctx)
	defer unlock()
	return e.usdValue(ctx, asset, amount)
}

// UsdToAssetAmount converts a USD amount into units of asset.
func (e *Engine) UsdToAssetAmount(ctx context.Context, asset common.Address, usd *uint256.Int) (*uint256.Int, error) {
	ctx, unlock := e.view(ctx)
	defer unlock()
	return e.tokenAmount(ctx, asset, usd)
}

// AccountCollateralValue is the USD value of everything user deposited.
func (e *Engine) AccountCollateralValue(ctx context.Context, user common.Address) (*uint256.Int, error) {
	ctx, unlock := e.view(ctx)
	defer unlock()
	return e.collateralValue(ctx, user)
}

// AccountInformation returns the debt and collateral value of user.
func (e *Engine) AccountInformation(ctx context.Context, user common.Address) (debt, collateralUsd *uint256.Int, err error) {
	ctx, unlock := e.view(ctx)
	defer unlock()
	return e.accountInformation(ctx, user)
}

// HealthFactor returns the current health factor of user.
func (e *Engine) HealthFactor(ctx context.Context, user common.Address) (HealthFactor, error) {
	ctx, unlock := e.view(ctx)
	defer unlock()
	return e.healthFactor(ctx, user)
}
