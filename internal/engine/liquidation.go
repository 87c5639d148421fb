package engine

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"frizo/stablecoin_engine/internal/common"
)

// LiquidationResult reports what one liquidation moved.
type LiquidationResult struct {
	Target      common.Address
	Liquidator  common.Address
	Asset       common.Address
	DebtCovered *uint256.Int

	// Seized is the collateral the liquidator received, Bonus included.
	Seized *uint256.Int
	Bonus  *uint256.Int

	HealthBefore HealthFactor
	HealthAfter  HealthFactor
}

// Liquidate lets liquidator repay debtToCover of target's debt and take the
// same value of target's asset collateral plus LiquidationBonus percent.
// target must be below MinHealthFactor and must end strictly healthier.
func (e *Engine) Liquidate(ctx context.Context, liquidator, asset, target common.Address, debtToCover *uint256.Int) (*LiquidationResult, error) {
	var result *LiquidationResult
	err := e.execute(ctx, opLiquidate, func(tx *txn) error {
		r, err := tx.liquidate(liquidator, asset, target, debtToCover)
		result = r
		return err
	})
	if err != nil {
		return nil, err
	}
	e.metrics.IncLiquidations()
	return result, nil
}

func (tx *txn) liquidate(liquidator, asset, target common.Address, debtToCover *uint256.Int) (*LiquidationResult, error) {
	if err := requirePositive(debtToCover); err != nil {
		return nil, err
	}
	if _, err := tx.engine.collateralToken(asset); err != nil {
		return nil, err
	}
	e := tx.engine

	before, err := e.healthFactor(tx.ctx, target)
	if err != nil {
		return nil, err
	}
	if !before.IsLiquidatable() {
		return nil, fmt.Errorf("%w: account %s health factor %s", ErrHealthFactorOkay, target, before)
	}

	covered, err := e.tokenAmount(tx.ctx, asset, debtToCover)
	if err != nil {
		return nil, err
	}
	bonus, err := common.MulDiv(covered, uint256.NewInt(LiquidationBonus), uint256.NewInt(LiquidationPrecision))
	if err != nil {
		return nil, err
	}
	seized, err := common.Add(covered, bonus)
	if err != nil {
		return nil, err
	}

	if held := e.ledger.collateralOf(asset, target); held.Lt(seized) {
		return nil, fmt.Errorf("%w: %s holds %s of %s, liquidation seizes %s", ErrInsufficientCollateral,
			target, common.FormatAmount(held), asset, common.FormatAmount(seized))
	}

	// the debt is pulled and burned before the collateral leaves the engine
	if err := tx.burnDebt(target, liquidator, debtToCover); err != nil {
		return nil, err
	}
	if err := tx.redeemCollateral(asset, target, liquidator, seized); err != nil {
		return nil, err
	}

	after, err := e.healthFactor(tx.ctx, target)
	if err != nil {
		return nil, err
	}
	if after.Cmp(before) <= 0 {
		return nil, fmt.Errorf("%w: account %s went from %s to %s", ErrHealthFactorNotImproved, target, before, after)
	}
	if err := tx.requireHealthy(liquidator); err != nil {
		return nil, err
	}

	tx.emit(EventLiquidated, target, liquidator, asset, debtToCover)
	return &LiquidationResult{
		Target:       target,
		Liquidator:   liquidator,
		Asset:        asset,
		DebtCovered:  debtToCover.Clone(),
		Seized:       seized,
		Bonus:        bonus,
		HealthBefore: before,
		HealthAfter:  after,
	}, nil
}
