// Package oracle wraps external price feeds behind a fail-closed adapter.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/holiman/uint256"

	"frizo/stablecoin_engine/internal/common"
	"frizo/stablecoin_engine/internal/logger"
	"frizo/stablecoin_engine/internal/metrics"
)

// StaleTimeout is the maximum age of a quote before it is rejected.
const StaleTimeout = 3 * time.Hour

var (
	ErrStalePrice   = errors.New("stale price")
	ErrInvalidPrice = errors.New("invalid price")
	ErrUnknownFeed  = errors.New("unknown price feed")
)

// FeedID identifies a price feed.
type FeedID string

// RoundData is one answer of a price feed.
type RoundData struct {
	RoundID         uint64
	Answer          *big.Int // signed, feed decimals
	StartedAt       time.Time
	UpdatedAt       time.Time
	AnsweredInRound uint64
}

// PriceFeed is the upstream price source.
type PriceFeed interface {
	LatestRoundData(ctx context.Context, feed FeedID) (RoundData, error)
	Decimals(ctx context.Context, feed FeedID) (uint8, error)
}

// Quote is a validated, fresh price.
type Quote struct {
	Feed      FeedID
	Price     *big.Int
	Decimals  uint8
	UpdatedAt time.Time
	RoundID   uint64
}

// Scaled returns the price normalized to 18 decimals.
func (q Quote) Scaled() (*uint256.Int, error) {
	if q.Price == nil || q.Price.Sign() <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrice, q.Price)
	}
	price, overflow := uint256.FromBig(q.Price)
	if overflow {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPrice, q.Price)
	}
	switch {
	case q.Decimals < common.Decimals:
		return common.MulDiv(price, common.Pow10(common.Decimals-q.Decimals), uint256.NewInt(1))
	case q.Decimals > common.Decimals:
		// 10^77 is the largest power of ten a uint256 holds
		if q.Decimals-common.Decimals > 77 {
			return nil, fmt.Errorf("%w: %d decimals", ErrInvalidPrice, q.Decimals)
		}
		scaled := new(uint256.Int).Div(price, common.Pow10(q.Decimals-common.Decimals))
		if scaled.IsZero() {
			return nil, fmt.Errorf("%w: %s rounds to zero at 18 decimals", ErrInvalidPrice, q.Price)
		}
		return scaled, nil
	default:
		return price, nil
	}
}

// Adapter reads a PriceFeed and refuses quotes older than StaleTimeout.
type Adapter struct {
	feed    PriceFeed
	clock   func() time.Time
	log     *logger.Logger
	metrics *metrics.Metrics
}

type Option func(*Adapter)

// WithClock sets the source of the current time.
func WithClock(clock func() time.Time) Option {
	return func(a *Adapter) {
		a.clock = clock
	}
}

func WithLogger(log *logger.Logger) Option {
	return func(a *Adapter) {
		a.log = log
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Adapter) {
		a.metrics = m
	}
}

func NewAdapter(feed PriceFeed, opts ...Option) *Adapter {
	a := &Adapter{
		feed:  feed,
		clock: time.Now,
		log:   logger.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.WithComponent("oracle")
	return a
}

// LatestPrice returns the latest quote for feed, or ErrStalePrice when the feed
// has not updated within StaleTimeout of now.
func (a *Adapter) LatestPrice(ctx context.Context, feed FeedID) (Quote, error) {
	round, err := a.feed.LatestRoundData(ctx, feed)
	if err != nil {
		return Quote{}, fmt.Errorf("latest round for %s: %w", feed, err)
	}

	now := a.clock()
	if age := now.Sub(round.UpdatedAt); age > StaleTimeout {
		a.metrics.IncOracleStale()
		a.log.Warn("rejecting stale price", "feed", feed, "updated_at", round.UpdatedAt, "age", age)
		return Quote{}, fmt.Errorf("%w: feed %s last updated %s ago", ErrStalePrice, feed, age.Truncate(time.Second))
	}

	if round.Answer == nil || round.Answer.Sign() <= 0 {
		a.log.Warn("rejecting non-positive price", "feed", feed, "answer", round.Answer)
		return Quote{}, fmt.Errorf("%w: feed %s answered %v", ErrInvalidPrice, feed, round.Answer)
	}

	decimals, err := a.feed.Decimals(ctx, feed)
	if err != nil {
		return Quote{}, fmt.Errorf("decimals for %s: %w", feed, err)
	}

	return Quote{
		Feed:      feed,
		Price:     new(big.Int).Set(round.Answer),
		Decimals:  decimals,
		UpdatedAt: round.UpdatedAt,
		RoundID:   round.RoundID,
	}, nil
}

// Now returns the adapter clock reading.
func (a *Adapter) Now() time.Time {
	return a.clock()
}
