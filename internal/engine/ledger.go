package engine

import (
	"fmt"
	"sort"

	"github.com/holiman/uint256"

	"frizo/stablecoin_engine/internal/common"
)

type collateralKey struct {
	asset common.Address
	owner common.Address
}

// ledger is the sparse collateral/debt book. Absent entries read as zero and
// entries that drop to zero are removed.
type ledger struct {
	collateral map[collateralKey]*uint256.Int
	debt       map[common.Address]*uint256.Int
}

func newLedger() *ledger {
	return &ledger{
		collateral: make(map[collateralKey]*uint256.Int),
		debt:       make(map[common.Address]*uint256.Int),
	}
}

func (l *ledger) collateralOf(asset, owner common.Address) *uint256.Int {
	if v, ok := l.collateral[collateralKey{asset, owner}]; ok {
		return v.Clone()
	}
	return common.Zero()
}

func (l *ledger) debtOf(owner common.Address) *uint256.Int {
	if v, ok := l.debt[owner]; ok {
		return v.Clone()
	}
	return common.Zero()
}

func (l *ledger) setCollateral(asset, owner common.Address, v *uint256.Int) {
	key := collateralKey{asset, owner}
	if v.IsZero() {
		delete(l.collateral, key)
		return
	}
	l.collateral[key] = v.Clone()
}

func (l *ledger) setDebt(owner common.Address, v *uint256.Int) {
	if v.IsZero() {
		delete(l.debt, owner)
		return
	}
	l.debt[owner] = v.Clone()
}

func (l *ledger) totalDebt() *uint256.Int {
	total := common.Zero()
	for _, v := range l.debt {
		total.Add(total, v)
	}
	return total
}

func (l *ledger) totalCollateral(asset common.Address) *uint256.Int {
	total := common.Zero()
	for key, v := range l.collateral {
		if key.asset == asset {
			total.Add(total, v)
		}
	}
	return total
}

// owners lists every address with a ledger entry, sorted.
func (l *ledger) owners() []common.Address {
	seen := make(map[common.Address]struct{})
	for key := range l.collateral {
		seen[key.owner] = struct{}{}
	}
	for owner := range l.debt {
		seen[owner] = struct{}{}
	}
	owners := make([]common.Address, 0, len(seen))
	for owner := range seen {
		owners = append(owners, owner)
	}
	sort.Slice(owners, func(i, j int) bool { return owners[i] < owners[j] })
	return owners
}

// ========================================================

// journal applies ledger writes and remembers how to undo them.
type journal struct {
	ledger *ledger
	undo   []func()
}

func (j *journal) addCollateral(asset, owner common.Address, amount *uint256.Int) error {
	old := j.ledger.collateralOf(asset, owner)
	next, err := common.Add(old, amount)
	if err != nil {
		return fmt.Errorf("collateral of %s in %s: %w", owner, asset, err)
	}
	j.record(func() { j.ledger.setCollateral(asset, owner, old) })
	j.ledger.setCollateral(asset, owner, next)
	return nil
}

func (j *journal) subCollateral(asset, owner common.Address, amount *uint256.Int) error {
	old := j.ledger.collateralOf(asset, owner)
	if old.Lt(amount) {
		return fmt.Errorf("%w: %s holds %s of %s, needs %s", ErrInsufficientCollateral,
			owner, common.FormatAmount(old), asset, common.FormatAmount(amount))
	}
	j.record(func() { j.ledger.setCollateral(asset, owner, old) })
	j.ledger.setCollateral(asset, owner, new(uint256.Int).Sub(old, amount))
	return nil
}

func (j *journal) addDebt(owner common.Address, amount *uint256.Int) error {
	old := j.ledger.debtOf(owner)
	next, err := common.Add(old, amount)
	if err != nil {
		return fmt.Errorf("debt of %s: %w", owner, err)
	}
	j.record(func() { j.ledger.setDebt(owner, old) })
	j.ledger.setDebt(owner, next)
	return nil
}

func (j *journal) subDebt(owner common.Address, amount *uint256.Int) error {
	old := j.ledger.debtOf(owner)
	if old.Lt(amount) {
		return fmt.Errorf("%w: %s owes %s, burning %s", ErrBurnAmountExceedsDebt,
			owner, common.FormatAmount(old), common.FormatAmount(amount))
	}
	j.record(func() { j.ledger.setDebt(owner, old) })
	j.ledger.setDebt(owner, new(uint256.Int).Sub(old, amount))
	return nil
}

func (j *journal) record(undo func()) {
	j.undo = append(j.undo, undo)
}

// revert restores every touched entry, newest first.
func (j *journal) revert() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}
