package oracle

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frizo/stablecoin_engine/internal/common"
	"frizo/stablecoin_engine/internal/logger"
	"frizo/stablecoin_engine/internal/metrics"
)

const ethFeed FeedID = "ETH/USD"

var start = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// 2000 USD with 8 feed decimals
func ethPrice() *big.Int {
	return big.NewInt(2000_00000000)
}

func newTestAdapter(now *time.Time) (*Adapter, *ManualFeed) {
	feed := NewManualFeed()
	feed.SetPrice(ethFeed, ethPrice(), 8, start)
	adapter := NewAdapter(feed,
		WithClock(func() time.Time { return *now }),
		WithLogger(logger.Discard()),
	)
	return adapter, feed
}

func TestLatestPrice(t *testing.T) {
	t.Run("Fresh", func(t *testing.T) {
		now := start.Add(time.Minute)
		adapter, _ := newTestAdapter(&now)

		quote, err := adapter.LatestPrice(context.Background(), ethFeed)
		require.NoError(t, err)
		assert.Equal(t, 0, quote.Price.Cmp(ethPrice()))
		assert.Equal(t, uint8(8), quote.Decimals)
		assert.Equal(t, start, quote.UpdatedAt)
		assert.Equal(t, uint64(1), quote.RoundID)
	})

	t.Run("ExactlyAtTimeout", func(t *testing.T) {
		now := start.Add(StaleTimeout)
		adapter, _ := newTestAdapter(&now)

		_, err := adapter.LatestPrice(context.Background(), ethFeed)
		require.NoError(t, err)
	})

	t.Run("Stale", func(t *testing.T) {
		now := start.Add(StaleTimeout + time.Second)
		adapter, _ := newTestAdapter(&now)

		_, err := adapter.LatestPrice(context.Background(), ethFeed)
		require.ErrorIs(t, err, ErrStalePrice)
	})

	t.Run("RecoversAfterUpdate", func(t *testing.T) {
		now := start.Add(4 * time.Hour)
		adapter, feed := newTestAdapter(&now)

		_, err := adapter.LatestPrice(context.Background(), ethFeed)
		require.ErrorIs(t, err, ErrStalePrice)

		require.NoError(t, feed.UpdateAnswer(ethFeed, big.NewInt(1900_00000000), now))
		quote, err := adapter.LatestPrice(context.Background(), ethFeed)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), quote.RoundID)
	})

	t.Run("NonPositive", func(t *testing.T) {
		now := start
		adapter, feed := newTestAdapter(&now)
		feed.SetPrice(ethFeed, big.NewInt(0), 8, start)

		_, err := adapter.LatestPrice(context.Background(), ethFeed)
		require.ErrorIs(t, err, ErrInvalidPrice)

		feed.SetPrice(ethFeed, big.NewInt(-1), 8, start)
		_, err = adapter.LatestPrice(context.Background(), ethFeed)
		require.ErrorIs(t, err, ErrInvalidPrice)
	})

	t.Run("UnknownFeed", func(t *testing.T) {
		now := start
		adapter, _ := newTestAdapter(&now)

		_, err := adapter.LatestPrice(context.Background(), "DOGE/USD")
		require.ErrorIs(t, err, ErrUnknownFeed)
	})
}

type failingFeed struct{ err error }

func (f failingFeed) LatestRoundData(context.Context, FeedID) (RoundData, error) {
	return RoundData{}, f.err
}

func (f failingFeed) Decimals(context.Context, FeedID) (uint8, error) {
	return 0, f.err
}

func TestLatestPriceFeedError(t *testing.T) {
	boom := errors.New("rpc down")
	adapter := NewAdapter(failingFeed{err: boom}, WithLogger(logger.Discard()))

	_, err := adapter.LatestPrice(context.Background(), ethFeed)
	require.ErrorIs(t, err, boom)
}

func TestStaleMetric(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := metrics.New(registry)
	require.NoError(t, err)

	now := start.Add(5 * time.Hour)
	feed := NewManualFeed()
	feed.SetPrice(ethFeed, ethPrice(), 8, start)
	adapter := NewAdapter(feed,
		WithClock(func() time.Time { return now }),
		WithLogger(logger.Discard()),
		WithMetrics(m),
	)

	_, err = adapter.LatestPrice(context.Background(), ethFeed)
	require.ErrorIs(t, err, ErrStalePrice)

	count, err := testutil.GatherAndCount(registry, "stablecoin_engine_oracle_stale_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestQuoteScaled(t *testing.T) {
	t.Run("EightDecimals", func(t *testing.T) {
		q := Quote{Price: ethPrice(), Decimals: 8}
		scaled, err := q.Scaled()
		require.NoError(t, err)
		assert.Equal(t, 0, scaled.Cmp(common.Units(2000)))
	})

	t.Run("EighteenDecimals", func(t *testing.T) {
		q := Quote{Price: common.Units(2000).ToBig(), Decimals: 18}
		scaled, err := q.Scaled()
		require.NoError(t, err)
		assert.Equal(t, 0, scaled.Cmp(common.Units(2000)))
	})

	t.Run("TwentyDecimals", func(t *testing.T) {
		price := new(big.Int).Mul(common.Units(2000).ToBig(), big.NewInt(100))
		q := Quote{Price: price, Decimals: 20}
		scaled, err := q.Scaled()
		require.NoError(t, err)
		assert.Equal(t, 0, scaled.Cmp(common.Units(2000)))
	})

	t.Run("RoundsToZero", func(t *testing.T) {
		q := Quote{Price: big.NewInt(1), Decimals: 20}
		_, err := q.Scaled()
		require.ErrorIs(t, err, ErrInvalidPrice)
	})

	t.Run("TooManyDecimals", func(t *testing.T) {
		price := new(big.Int).Exp(big.NewInt(10), big.NewInt(76), nil)
		for _, decimals := range []uint8{96, 120, 255} {
			q := Quote{Price: price, Decimals: decimals}
			_, err := q.Scaled()
			require.ErrorIs(t, err, ErrInvalidPrice, "decimals %d", decimals)
			assert.Contains(t, err.Error(), "decimals")
		}
	})
}
