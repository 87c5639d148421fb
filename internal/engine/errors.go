package engine

import (
	"errors"
	"fmt"

	"frizo/stablecoin_engine/internal/common"
)

var (
	// input validation
	ErrNeedsMoreThanZero = errors.New("amount must be more than zero")
	ErrNotAllowedToken   = errors.New("token is not an allowed collateral")

	// construction
	ErrTokenAddressesAndPriceFeedAddressesMustBeSameLength = errors.New("token addresses and price feed addresses must be the same length")
	ErrDuplicateAsset                                      = errors.New("collateral asset registered twice")
	ErrMissingDependency                                   = errors.New("missing engine dependency")

	// invariants
	ErrBreaksHealthFactor      = errors.New("breaks health factor")
	ErrHealthFactorOkay        = errors.New("health factor is okay")
	ErrHealthFactorNotImproved = errors.New("health factor not improved")
	ErrInsufficientCollateral  = errors.New("insufficient collateral")
	ErrBurnAmountExceedsDebt   = errors.New("burn amount exceeds debt")

	// collaborators
	ErrTransferFailed = errors.New("transfer failed")
	ErrMintFailed     = errors.New("mint failed")

	ErrReentrantCall = errors.New("reentrant call")
)

// BreaksHealthFactorError carries the factor an operation would have left the
// account with. It matches ErrBreaksHealthFactor with errors.Is.
type BreaksHealthFactorError struct {
	Account common.Address
	Factor  HealthFactor
}

func (e *BreaksHealthFactorError) Error() string {
	return fmt.Sprintf("%s: account %s health factor %s", ErrBreaksHealthFactor, e.Account, e.Factor)
}

func (e *BreaksHealthFactorError) Is(target error) bool {
	return target == ErrBreaksHealthFactor
}
