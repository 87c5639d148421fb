package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"frizo/stablecoin_engine/internal/common"
)

func BenchmarkDepositCollateral(b *testing.B) {
	f := newFixture(b)
	require.NoError(b, f.weth.Fund(alice, common.Units(uint64(b.N))))
	require.NoError(b, f.weth.Approve(f.ctx, alice, self, common.MaxUint256()))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := f.engine.DepositCollateral(f.ctx, alice, weth, common.Units(1)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMintDebt(b *testing.B) {
	f := newFixture(b)
	require.NoError(b, f.weth.Fund(alice, common.Units(uint64(b.N))))
	f.deposit(b, alice, weth, f.weth, common.Units(uint64(b.N)+1))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := f.engine.MintDebt(f.ctx, alice, common.Units(1)); err != nil {
			b.Fatal(err)
		}
	}
}

// Health factor scan over many accounts (critical hot path for keepers)
func BenchmarkLiquidatableAccounts(b *testing.B) {
	for _, accounts := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("Accounts_%d", accounts), func(b *testing.B) {
			f := newFixture(b)
			for i := 0; i < accounts; i++ {
				user := common.Address(fmt.Sprintf("user_%d", i))
				require.NoError(b, f.weth.Fund(user, common.Units(1)))
				f.deposit(b, user, weth, f.weth, common.Units(1))
				require.NoError(b, f.engine.MintDebt(f.ctx, user, common.Units(500)))
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := f.engine.LiquidatableAccounts(f.ctx); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkCalculateHealthFactor(b *testing.B) {
	debt := common.Units(10000)
	collateral := common.Units(25000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = CalculateHealthFactor(debt, collateral)
	}
}
