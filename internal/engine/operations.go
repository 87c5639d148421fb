package engine

import (
	"context"

	"github.com/holiman/uint256"

	"frizo/stablecoin_engine/internal/common"
)

const (
	opDepositCollateral            = "deposit_collateral"
	opMintDebt                     = "mint_debt"
	opBurnDebt                     = "burn_debt"
	opRedeemCollateral             = "redeem_collateral"
	opDepositCollateralAndMintDebt = "deposit_collateral_and_mint_debt"
	opRedeemCollateralForDebt      = "redeem_collateral_for_debt"
	opLiquidate                    = "liquidate"
)

// DepositCollateral pulls amount of asset from user into the engine and
// credits it as collateral. user must have approved the engine.
func (e *Engine) DepositCollateral(ctx context.Context, user, asset common.Address, amount *uint256.Int) error {
	return e.execute(ctx, opDepositCollateral, func(tx *txn) error {
		return tx.depositCollateral(user, asset, amount)
	})
}

// MintDebt issues amount of the debt token to user against its collateral.
func (e *Engine) MintDebt(ctx context.Context, user common.Address, amount *uint256.Int) error {
	return e.execute(ctx, opMintDebt, func(tx *txn) error {
		return tx.mintDebt(user, amount)
	})
}

// BurnDebt takes amount of the debt token from user, destroys it and reduces
// user's debt by the same amount.
func (e *Engine) BurnDebt(ctx context.Context, user common.Address, amount *uint256.Int) error {
	return e.execute(ctx, opBurnDebt, func(tx *txn) error {
		if err := tx.burnDebt(user, user, amount); err != nil {
			return err
		}
		return tx.requireHealthy(user)
	})
}

// RedeemCollateral returns amount of asset to user as long as its remaining
// collateral still covers its debt.
func (e *Engine) RedeemCollateral(ctx context.Context, user, asset common.Address, amount *uint256.Int) error {
	return e.execute(ctx, opRedeemCollateral, func(tx *txn) error {
		if err := tx.redeemCollateral(asset, user, user, amount); err != nil {
			return err
		}
		return tx.requireHealthy(user)
	})
}

// DepositCollateralAndMintDebt deposits and mints in one step with a single
// health check after both.
func (e *Engine) DepositCollateralAndMintDebt(ctx context.Context, user, asset common.Address, collateralAmount, debtAmount *uint256.Int) error {
	return e.execute(ctx, opDepositCollateralAndMintDebt, func(tx *txn) error {
		if err := tx.depositCollateral(user, asset, collateralAmount); err != nil {
			return err
		}
		return tx.mintDebt(user, debtAmount)
	})
}

// RedeemCollateralForDebt burns debtToBurn and redeems collateralAmount of
// asset in one step.
func (e *Engine) RedeemCollateralForDebt(ctx context.Context, user, asset common.Address, collateralAmount, debtToBurn *uint256.Int) error {
	return e.execute(ctx, opRedeemCollateralForDebt, func(tx *txn) error {
		if err := tx.burnDebt(user, user, debtToBurn); err != nil {
			return err
		}
		if err := tx.redeemCollateral(asset, user, user, collateralAmount); err != nil {
			return err
		}
		return tx.requireHealthy(user)
	})
}

// =====================================================
// steps, all run inside execute
// =====================================================
//
// Each step validates, writes the ledger and queues its collaborator calls.
// Queued calls run in order once the whole operation passed its checks. Mints
// and outgoing transfers are always queued last, so they carry no undo.

func (tx *txn) depositCollateral(user, asset common.Address, amount *uint256.Int) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	tok, err := tx.engine.collateralToken(asset)
	if err != nil {
		return err
	}
	amount = amount.Clone()
	self := tx.engine.self

	if err := tx.journal.addCollateral(asset, user, amount); err != nil {
		return err
	}
	tx.queue(ErrTransferFailed, "pull "+asset.String()+" from "+user.String(),
		func(ctx context.Context) error { return tok.TransferFrom(ctx, self, user, self, amount) },
		func(ctx context.Context) error { return tok.Transfer(ctx, self, user, amount) },
	)
	tx.emit(EventCollateralDeposited, user, self, asset, amount)
	return nil
}

func (tx *txn) mintDebt(user common.Address, amount *uint256.Int) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	amount = amount.Clone()
	e := tx.engine

	if err := tx.journal.addDebt(user, amount); err != nil {
		return err
	}
	if err := tx.requireHealthy(user); err != nil {
		return err
	}
	tx.queue(ErrMintFailed, "mint to "+user.String(),
		func(ctx context.Context) error { return e.debt.Mint(ctx, e.self, user, amount) },
		nil,
	)
	tx.emit(EventDebtMinted, user, user, e.debtAsset, amount)
	return nil
}

// burnDebt reduces onBehalfOf's debt by amount, paid with payer's tokens.
func (tx *txn) burnDebt(onBehalfOf, payer common.Address, amount *uint256.Int) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	amount = amount.Clone()
	e := tx.engine

	if err := tx.journal.subDebt(onBehalfOf, amount); err != nil {
		return err
	}
	tx.queue(ErrTransferFailed, "pull debt from "+payer.String(),
		func(ctx context.Context) error { return e.debt.TransferFrom(ctx, e.self, payer, e.self, amount) },
		func(ctx context.Context) error { return e.debt.Transfer(ctx, e.self, payer, amount) },
	)
	tx.queue(ErrTransferFailed, "burn debt",
		func(ctx context.Context) error { return e.debt.Burn(ctx, e.self, e.self, amount) },
		func(ctx context.Context) error { return e.debt.Mint(ctx, e.self, e.self, amount) },
	)
	tx.emit(EventDebtBurned, onBehalfOf, payer, e.debtAsset, amount)
	return nil
}

// redeemCollateral moves amount of asset out of from's collateral to to.
func (tx *txn) redeemCollateral(asset, from, to common.Address, amount *uint256.Int) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	tok, err := tx.engine.collateralToken(asset)
	if err != nil {
		return err
	}
	amount = amount.Clone()
	self := tx.engine.self

	if err := tx.journal.subCollateral(asset, from, amount); err != nil {
		return err
	}
	tx.queue(ErrTransferFailed, "send "+asset.String()+" to "+to.String(),
		func(ctx context.Context) error { return tok.Transfer(ctx, self, to, amount) },
		nil,
	)
	tx.emit(EventCollateralRedeemed, from, to, asset, amount)
	return nil
}
