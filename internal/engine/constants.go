package engine

import (
	"github.com/holiman/uint256"

	"frizo/stablecoin_engine/internal/common"
)

// Liquidation parameters. They are fixed for every collateral asset.
const (
	LiquidationThreshold = 50 // percent of collateral value that may back debt (200% overcollateralized)
	LiquidationBonus     = 10 // percent of the covered debt paid on top to the liquidator
	LiquidationPrecision = 100
)

var minHealthFactor = common.Precision()

// MinHealthFactor is 1.0 in 18-decimal fixed point.
func MinHealthFactor() *uint256.Int {
	return minHealthFactor.Clone()
}

// Precision is the fixed-point scale of every amount, price and ratio.
func Precision() *uint256.Int {
	return common.Precision()
}
