package common

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnits(t *testing.T) {
	assert.Equal(t, "10000000000000000000", Units(10).Dec())
	assert.True(t, Units(0).IsZero())
	assert.Equal(t, 0, Precision().Cmp(Units(1)))
}

func TestPow10(t *testing.T) {
	assert.Equal(t, uint64(1), Pow10(0).Uint64())
	assert.Equal(t, uint64(100000000), Pow10(8).Uint64())
	assert.Equal(t, 0, Pow10(18).Cmp(Precision()))
}

func TestMulDiv(t *testing.T) {
	t.Run("Exact", func(t *testing.T) {
		z, err := MulDiv(Units(10), uint256.NewInt(2000), uint256.NewInt(1))
		require.NoError(t, err)
		assert.Equal(t, 0, z.Cmp(Units(20000)))
	})

	t.Run("WideIntermediate", func(t *testing.T) {
		// max * 2 / 2 overflows 256 bits in the middle but not in the result
		z, err := MulDiv(MaxUint256(), uint256.NewInt(2), uint256.NewInt(2))
		require.NoError(t, err)
		assert.Equal(t, 0, z.Cmp(MaxUint256()))
	})

	t.Run("Overflow", func(t *testing.T) {
		_, err := MulDiv(MaxUint256(), uint256.NewInt(2), uint256.NewInt(1))
		assert.ErrorIs(t, err, ErrOverflow)
	})

	t.Run("DivideByZero", func(t *testing.T) {
		_, err := MulDiv(Units(1), Units(1), Zero())
		assert.ErrorIs(t, err, ErrDivideByZero)
	})
}

func TestAddSub(t *testing.T) {
	sum, err := Add(Units(1), Units(2))
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Cmp(Units(3)))

	_, err = Add(MaxUint256(), uint256.NewInt(1))
	assert.ErrorIs(t, err, ErrOverflow)

	diff, err := Sub(Units(3), Units(1))
	require.NoError(t, err)
	assert.Equal(t, 0, diff.Cmp(Units(2)))

	_, err = Sub(Units(1), Units(3))
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestParseAmount(t *testing.T) {
	t.Run("Whole", func(t *testing.T) {
		v, err := ParseAmount("10")
		require.NoError(t, err)
		assert.Equal(t, 0, v.Cmp(Units(10)))
	})

	t.Run("Fraction", func(t *testing.T) {
		v, err := ParseAmount(" 0.5 ")
		require.NoError(t, err)
		assert.Equal(t, "500000000000000000", v.Dec())
	})

	t.Run("SmallestUnit", func(t *testing.T) {
		v, err := ParseAmount("0.000000000000000001")
		require.NoError(t, err)
		assert.Equal(t, uint64(1), v.Uint64())
	})

	t.Run("TooPrecise", func(t *testing.T) {
		_, err := ParseAmount("0.0000000000000000001")
		assert.ErrorIs(t, err, ErrTooPrecise)
	})

	t.Run("Negative", func(t *testing.T) {
		_, err := ParseAmount("-1")
		assert.ErrorIs(t, err, ErrNegativeAmount)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := ParseAmount("ten")
		assert.Error(t, err)
	})
}

func TestToDecimal(t *testing.T) {
	assert.True(t, decimal.RequireFromString("12.25").Equal(ToDecimal(uint256.MustFromDecimal("12250000000000000000"))))
	assert.True(t, ToDecimal(nil).IsZero())
	assert.Equal(t, "20000", FormatAmount(Units(20000)))
}
