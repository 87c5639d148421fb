package engine

import (
	"errors"

	"github.com/holiman/uint256"

	"frizo/stablecoin_engine/internal/common"
)

// HealthFactor is either Unbounded (no debt) or an 18-decimal ratio.
type HealthFactor struct {
	ratio *uint256.Int // nil when unbounded
}

func Unbounded() HealthFactor {
	return HealthFactor{}
}

func Ratio(v *uint256.Int) HealthFactor {
	return HealthFactor{ratio: v.Clone()}
}

func (h HealthFactor) IsUnbounded() bool {
	return h.ratio == nil
}

// Value returns the ratio, or the max uint256 sentinel when unbounded.
func (h HealthFactor) Value() *uint256.Int {
	if h.IsUnbounded() {
		return common.MaxUint256()
	}
	return h.ratio.Clone()
}

// Cmp orders health factors; Unbounded is greater than every ratio.
func (h HealthFactor) Cmp(other HealthFactor) int {
	switch {
	case h.IsUnbounded() && other.IsUnbounded():
		return 0
	case h.IsUnbounded():
		return 1
	case other.IsUnbounded():
		return -1
	default:
		return h.ratio.Cmp(other.ratio)
	}
}

// Below reports whether the factor is strictly below threshold.
func (h HealthFactor) Below(threshold *uint256.Int) bool {
	return !h.IsUnbounded() && h.ratio.Lt(threshold)
}

// IsLiquidatable reports whether the factor is under MinHealthFactor.
func (h HealthFactor) IsLiquidatable() bool {
	return h.Below(minHealthFactor)
}

func (h HealthFactor) String() string {
	if h.IsUnbounded() {
		return "unbounded"
	}
	return common.FormatAmount(h.ratio)
}

// CalculateHealthFactor derives the factor from a debt and a collateral value,
// both 18-decimal: collateral * threshold / precision * 1e18 / debt.
func CalculateHealthFactor(totalDebt, collateralValueUsd *uint256.Int) (HealthFactor, error) {
	if totalDebt.IsZero() {
		return Unbounded(), nil
	}
	adjusted, err := common.MulDiv(collateralValueUsd, uint256.NewInt(LiquidationThreshold), uint256.NewInt(LiquidationPrecision))
	if err != nil {
		return HealthFactor{}, err
	}
	ratio, err := common.MulDiv(adjusted, common.Precision(), totalDebt)
	if errors.Is(err, common.ErrOverflow) {
		// dust debt against huge collateral; saturate rather than fail
		return Ratio(common.MaxUint256()), nil
	}
	if err != nil {
		return HealthFactor{}, err
	}
	return Ratio(ratio), nil
}
