package oracle

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"
)

// ManualFeed is an in-memory PriceFeed whose answers are pushed by the caller.
type ManualFeed struct {
	mu       sync.RWMutex
	rounds   map[FeedID]RoundData
	decimals map[FeedID]uint8
}

func NewManualFeed() *ManualFeed {
	return &ManualFeed{
		rounds:   make(map[FeedID]RoundData),
		decimals: make(map[FeedID]uint8),
	}
}

// SetPrice records a new round for feed, answered at the given time.
func (m *ManualFeed) SetPrice(feed FeedID, answer *big.Int, decimals uint8, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.rounds[feed].RoundID + 1
	m.rounds[feed] = RoundData{
		RoundID:         next,
		Answer:          new(big.Int).Set(answer),
		StartedAt:       at,
		UpdatedAt:       at,
		AnsweredInRound: next,
	}
	m.decimals[feed] = decimals
}

// UpdateAnswer pushes a new answer keeping the feed's decimals.
func (m *ManualFeed) UpdateAnswer(feed FeedID, answer *big.Int, at time.Time) error {
	m.mu.RLock()
	decimals, ok := m.decimals[feed]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFeed, feed)
	}
	m.SetPrice(feed, answer, decimals, at)
	return nil
}

func (m *ManualFeed) LatestRoundData(_ context.Context, feed FeedID) (RoundData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	round, ok := m.rounds[feed]
	if !ok {
		return RoundData{}, fmt.Errorf("%w: %s", ErrUnknownFeed, feed)
	}
	round.Answer = new(big.Int).Set(round.Answer)
	return round, nil
}

func (m *ManualFeed) Decimals(_ context.Context, feed FeedID) (uint8, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	decimals, ok := m.decimals[feed]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownFeed, feed)
	}
	return decimals, nil
}
