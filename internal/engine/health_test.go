package engine

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frizo/stablecoin_engine/internal/common"
	"frizo/stablecoin_engine/internal/oracle"
)

func TestCalculateHealthFactor(t *testing.T) {
	tests := []struct {
		name       string
		debt       *uint256.Int
		collateral *uint256.Int
		want       HealthFactor
	}{
		{"NoDebt", common.Zero(), common.Units(100), Unbounded()},
		{"NoDebtNoCollateral", common.Zero(), common.Zero(), Unbounded()},
		{"AtThreshold", common.Units(100), common.Units(200), Ratio(common.Units(1))},
		{"Underwater", common.Units(15000), common.Units(20000), Ratio(amount("666666666666666666"))},
		{"NoCollateral", common.Units(1), common.Zero(), Ratio(common.Zero())},
		{"Saturates", uint256.NewInt(1), common.MaxUint256(), Ratio(common.MaxUint256())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateHealthFactor(tt.debt, tt.collateral)
			require.NoError(t, err)
			assert.Equal(t, 0, got.Cmp(tt.want), "got %s, want %s", got, tt.want)
			assert.Equal(t, tt.want.IsUnbounded(), got.IsUnbounded())
		})
	}
}

func TestHealthFactor(t *testing.T) {
	one := Ratio(MinHealthFactor())
	below := Ratio(amount("999999999999999999"))

	assert.True(t, Unbounded().Value().Eq(common.MaxUint256()))
	assert.Equal(t, "unbounded", Unbounded().String())
	assert.Equal(t, "1", one.String())

	assert.False(t, Unbounded().IsLiquidatable())
	assert.False(t, one.IsLiquidatable())
	assert.True(t, below.IsLiquidatable())

	assert.Equal(t, 1, Unbounded().Cmp(Ratio(common.MaxUint256())))
	assert.Equal(t, -1, below.Cmp(one))
	assert.Equal(t, 0, Unbounded().Cmp(Unbounded()))

	// Value hands out copies
	one.Value().Clear()
	assert.True(t, one.Value().Eq(MinHealthFactor()))
}

func TestRegistry(t *testing.T) {
	r, err := NewRegistry([]common.Address{weth, wbtc}, []oracle.FeedID{ethFeed, btcFeed})
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())
	assert.True(t, r.IsAllowed(weth))
	assert.False(t, r.IsAllowed("doge"))
	assert.ErrorIs(t, r.requireAllowed("doge"), ErrNotAllowedToken)

	assets := r.Assets()
	assets[0] = "mutated"
	assert.Equal(t, []common.Address{weth, wbtc}, r.Assets())

	_, err = NewRegistry([]common.Address{weth, ""}, []oracle.FeedID{ethFeed, btcFeed})
	assert.ErrorIs(t, err, ErrNotAllowedToken)
	_, err = NewRegistry([]common.Address{weth}, []oracle.FeedID{ethFeed, btcFeed})
	assert.ErrorIs(t, err, ErrTokenAddressesAndPriceFeedAddressesMustBeSameLength)
}

func TestJournal(t *testing.T) {
	l := newLedger()
	j := journal{ledger: l}

	require.NoError(t, j.addCollateral(weth, alice, common.Units(5)))
	require.NoError(t, j.addDebt(alice, common.Units(2)))
	require.NoError(t, j.subCollateral(weth, alice, common.Units(5)))
	assert.ErrorIs(t, j.subCollateral(weth, alice, uint256.NewInt(1)), ErrInsufficientCollateral)
	assert.ErrorIs(t, j.subDebt(alice, common.Units(3)), ErrBurnAmountExceedsDebt)

	// zero entries are dropped
	_, ok := l.collateral[collateralKey{weth, alice}]
	assert.False(t, ok)
	assert.Equal(t, []common.Address{alice}, l.owners())

	j.revert()
	assert.Empty(t, l.collateral)
	assert.Empty(t, l.debt)
	assert.Empty(t, l.owners())
}
