package engine

import (
	"fmt"

	"frizo/stablecoin_engine/internal/common"
	"frizo/stablecoin_engine/internal/oracle"
)

// Registry maps every allowed collateral asset to exactly one price feed. It
// is immutable once built.
type Registry struct {
	feeds  map[common.Address]oracle.FeedID
	assets []common.Address // registration order
}

// NewRegistry validates the parallel asset/feed lists before building anything.
func NewRegistry(assets []common.Address, feeds []oracle.FeedID) (*Registry, error) {
	if len(assets) != len(feeds) {
		return nil, fmt.Errorf("%w: %d assets, %d feeds",
			ErrTokenAddressesAndPriceFeedAddressesMustBeSameLength, len(assets), len(feeds))
	}

	r := &Registry{
		feeds:  make(map[common.Address]oracle.FeedID, len(assets)),
		assets: make([]common.Address, 0, len(assets)),
	}
	for i, asset := range assets {
		if asset.IsZero() || feeds[i] == "" {
			return nil, fmt.Errorf("%w: entry %d has an empty asset or feed", ErrNotAllowedToken, i)
		}
		if _, exists := r.feeds[asset]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAsset, asset)
		}
		r.feeds[asset] = feeds[i]
		r.assets = append(r.assets, asset)
	}
	return r, nil
}

// Feed returns the price feed of asset.
func (r *Registry) Feed(asset common.Address) (oracle.FeedID, bool) {
	feed, ok := r.feeds[asset]
	return feed, ok
}

func (r *Registry) IsAllowed(asset common.Address) bool {
	_, ok := r.feeds[asset]
	return ok
}

// Assets returns a copy of the registered assets in registration order.
func (r *Registry) Assets() []common.Address {
	return append([]common.Address(nil), r.assets...)
}

func (r *Registry) Len() int {
	return len(r.assets)
}

func (r *Registry) requireAllowed(asset common.Address) error {
	if !r.IsAllowed(asset) {
		return fmt.Errorf("%w: %s", ErrNotAllowedToken, asset)
	}
	return nil
}
