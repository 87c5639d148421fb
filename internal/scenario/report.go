package scenario

import (
	"fmt"
	"io"

	"github.com/holiman/uint256"

	"frizo/stablecoin_engine/internal/common"
	"frizo/stablecoin_engine/internal/engine"
)

// Report is the outcome of one scenario run.
type Report struct {
	Name     string
	Steps    []StepResult
	Events   []engine.Event
	Accounts []AccountReport

	// Failures counts steps whose outcome did not match their expectation.
	Failures int
}

type StepResult struct {
	Index  int
	Action string
	Expect string
	Err    error
	OK     bool
}

// AccountReport is the closing position of one account. Summary is only
// valid when Err is nil; valuation fails while a feed is stale.
type AccountReport struct {
	Account common.Address
	Debt    *uint256.Int
	Summary engine.AccountSummary
	Err     error
}

func (r *Report) Passed() bool {
	return r.Failures == 0
}

// Print writes a human readable summary of the run to w.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "Scenario %q: %d steps, %d unexpected, %d events\n", r.Name, len(r.Steps), r.Failures, len(r.Events))
	for _, step := range r.Steps {
		status := "ok"
		if !step.OK {
			status = "UNEXPECTED"
		}
		outcome := "success"
		if step.Err != nil {
			outcome = step.Err.Error()
		}
		fmt.Fprintf(w, "  [%02d] %-18s %-10s %s\n", step.Index, step.Action, status, outcome)
	}

	fmt.Fprintln(w, "Accounts:")
	for _, account := range r.Accounts {
		if account.Err != nil {
			fmt.Fprintf(w, "  %-12s debt=%s valuation unavailable: %v\n", account.Account, common.FormatAmount(account.Debt), account.Err)
			continue
		}
		s := account.Summary
		fmt.Fprintf(w, "  %-12s debt=%s collateral_usd=%s health=%s\n",
			s.Account,
			common.ToDecimal(s.Debt).StringFixed(2),
			common.ToDecimal(s.CollateralUsd).StringFixed(2),
			s.Health,
		)
		for _, balance := range s.Collateral {
			if balance.Amount.IsZero() {
				continue
			}
			fmt.Fprintf(w, "      %-10s %s\n", balance.Asset, common.FormatAmount(balance.Amount))
		}
	}
}
