// Package scenario wires a deployment with in-memory tokens and a manual
// price feed, then replays scenario steps against the engine.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"frizo/stablecoin_engine/internal/common"
	"frizo/stablecoin_engine/internal/config"
	"frizo/stablecoin_engine/internal/engine"
	"frizo/stablecoin_engine/internal/logger"
	"frizo/stablecoin_engine/internal/metrics"
	"frizo/stablecoin_engine/internal/oracle"
	"frizo/stablecoin_engine/internal/token"
)

var ErrInvalidStep = errors.New("invalid scenario step")

// expectations maps the names a scenario may use in expect_error.
var expectations = map[string]error{
	"needs_more_than_zero":       engine.ErrNeedsMoreThanZero,
	"not_allowed_token":          engine.ErrNotAllowedToken,
	"breaks_health_factor":       engine.ErrBreaksHealthFactor,
	"health_factor_okay":         engine.ErrHealthFactorOkay,
	"health_factor_not_improved": engine.ErrHealthFactorNotImproved,
	"insufficient_collateral":    engine.ErrInsufficientCollateral,
	"burn_amount_exceeds_debt":   engine.ErrBurnAmountExceedsDebt,
	"transfer_failed":            engine.ErrTransferFailed,
	"mint_failed":                engine.ErrMintFailed,
	"stale_price":                oracle.ErrStalePrice,
	"invalid_price":              oracle.ErrInvalidPrice,
}

type collateral struct {
	token    *token.Memory
	feed     oracle.FeedID
	decimals uint8
}

// Runner owns one fully wired engine and the clock its oracle reads.
type Runner struct {
	now        time.Time
	feed       *oracle.ManualFeed
	collateral map[common.Address]collateral
	debt       *token.Stablecoin
	debtAsset  common.Address

	engine   *engine.Engine
	recorder *engine.Recorder

	log     *logger.Logger
	metrics *metrics.Metrics
}

type Option func(*Runner)

func WithLogger(log *logger.Logger) Option {
	return func(r *Runner) {
		r.log = log
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// New builds the tokens, feeds and engine of d, publishes the initial prices
// and funds the users.
func New(d *config.Deployment, opts ...Option) (*Runner, error) {
	r := &Runner{
		now:        d.StartTime,
		feed:       oracle.NewManualFeed(),
		collateral: make(map[common.Address]collateral, len(d.Collateral)),
		debtAsset:  common.Address(d.DebtToken.Address),
		recorder:   engine.NewRecorder(),
		log:        logger.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.now.IsZero() {
		r.now = time.Now().UTC()
	}
	r.log = r.log.WithComponent("scenario")

	self := common.Address(d.Engine)
	r.debt = token.NewStablecoin(d.DebtToken.Symbol, self)

	bank := token.NewBank()
	assets := make([]common.Address, 0, len(d.Collateral))
	feeds := make([]oracle.FeedID, 0, len(d.Collateral))
	for _, c := range d.Collateral {
		asset := common.Address(c.Address)
		entry := collateral{
			token:    token.NewMemory(c.Symbol),
			feed:     oracle.FeedID(c.Feed),
			decimals: c.Decimals,
		}
		r.collateral[asset] = entry
		bank.Register(asset, entry.token)
		assets = append(assets, asset)
		feeds = append(feeds, entry.feed)

		if err := r.setPrice(asset, c.Price); err != nil {
			return nil, err
		}
	}

	prices := oracle.NewAdapter(r.feed,
		oracle.WithClock(func() time.Time { return r.now }),
		oracle.WithLogger(r.log),
		oracle.WithMetrics(r.metrics),
	)
	var err error
	r.engine, err = engine.New(
		engine.Config{Self: self, Assets: assets, Feeds: feeds, DebtAsset: r.debtAsset},
		engine.Dependencies{Tokens: bank, Debt: r.debt, Prices: prices},
		engine.WithLogger(r.log),
		engine.WithMetrics(r.metrics),
		engine.WithEventSink(r.recorder),
	)
	if err != nil {
		return nil, err
	}

	for _, user := range d.Users {
		for asset, balance := range user.Balances {
			c, ok := r.collateral[common.Address(asset)]
			if !ok {
				return nil, fmt.Errorf("%w: user %s funded with unknown asset %s", ErrInvalidStep, user.Address, asset)
			}
			amount, err := common.ParseAmount(balance)
			if err != nil {
				return nil, err
			}
			if err := c.token.Fund(common.Address(user.Address), amount); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

func (r *Runner) Engine() *engine.Engine {
	return r.engine
}

// Now is the time the oracle currently sees.
func (r *Runner) Now() time.Time {
	return r.now
}

// Token returns the collateral or debt token at asset.
func (r *Runner) Token(asset common.Address) (token.Token, bool) {
	if asset == r.debtAsset {
		return r.debt, true
	}
	c, ok := r.collateral[asset]
	if !ok {
		return nil, false
	}
	return c.token, true
}

// Run replays s step by step. A step whose outcome differs from its
// expect_error is reported, not fatal; a malformed step aborts the run.
func (r *Runner) Run(ctx context.Context, s *config.Scenario) (*Report, error) {
	report := &Report{Name: s.Name}
	for i, step := range s.Steps {
		err := r.apply(ctx, step)
		if errors.Is(err, ErrInvalidStep) {
			return report, fmt.Errorf("step %d (%s): %w", i, step.Action, err)
		}

		result := StepResult{
			Index:  i,
			Action: step.Action,
			Expect: step.ExpectError,
			Err:    err,
			OK:     matches(step.ExpectError, err),
		}
		if result.OK {
			r.log.Info("step done", "index", i, "action", step.Action, "error", err)
		} else {
			report.Failures++
			r.log.Error("step outcome unexpected", "index", i, "action", step.Action, "expected", step.ExpectError, "error", err)
		}
		report.Steps = append(report.Steps, result)
	}

	report.Events = r.recorder.Events()
	for _, account := range r.engine.Accounts(ctx) {
		summary, err := r.engine.AccountSummary(ctx, account)
		report.Accounts = append(report.Accounts, AccountReport{
			Account: account,
			Debt:    r.engine.Debt(ctx, account),
			Summary: summary,
			Err:     err,
		})
	}
	return report, nil
}

func matches(expect string, err error) bool {
	if expect == "" {
		return err == nil
	}
	if err == nil {
		return false
	}
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(expect)), " ", "_")
	if target, ok := expectations[name]; ok {
		return errors.Is(err, target)
	}
	return strings.Contains(err.Error(), expect)
}

// =====================================================
// steps
// =====================================================

func (r *Runner) apply(ctx context.Context, step config.Step) error {
	user := common.Address(step.User)
	asset := common.Address(step.Asset)
	e := r.engine

	switch step.Action {
	case "set_price":
		return r.setPrice(asset, step.Price)

	case "advance_time":
		if step.Duration <= 0 {
			return fmt.Errorf("%w: advance_time needs a positive duration", ErrInvalidStep)
		}
		r.now = r.now.Add(step.Duration)
		return nil

	case "approve":
		amount, err := parse(step.Amount)
		if err != nil {
			return err
		}
		tok, ok := r.Token(asset)
		if !ok {
			return fmt.Errorf("%w: unknown token %s", ErrInvalidStep, asset)
		}
		spender := common.Address(step.Spender)
		if spender.IsZero() {
			spender = e.Address()
		}
		return tok.Approve(ctx, user, spender, amount)

	case "deposit":
		amount, err := parse(step.Amount)
		if err != nil {
			return err
		}
		return r.withApproval(ctx, step, asset, amount, func() error {
			return e.DepositCollateral(ctx, user, asset, amount)
		})

	case "mint":
		amount, err := parse(step.Amount)
		if err != nil {
			return err
		}
		return e.MintDebt(ctx, user, amount)

	case "deposit_and_mint":
		amount, err := parse(step.Amount)
		if err != nil {
			return err
		}
		debt, err := parse(step.DebtAmount)
		if err != nil {
			return err
		}
		return r.withApproval(ctx, step, asset, amount, func() error {
			return e.DepositCollateralAndMintDebt(ctx, user, asset, amount, debt)
		})

	case "burn":
		amount, err := parse(step.Amount)
		if err != nil {
			return err
		}
		return r.withApproval(ctx, step, r.debtAsset, amount, func() error {
			return e.BurnDebt(ctx, user, amount)
		})

	case "redeem":
		amount, err := parse(step.Amount)
		if err != nil {
			return err
		}
		return e.RedeemCollateral(ctx, user, asset, amount)

	case "redeem_for_debt":
		amount, err := parse(step.Amount)
		if err != nil {
			return err
		}
		debt, err := parse(step.DebtAmount)
		if err != nil {
			return err
		}
		return r.withApproval(ctx, step, r.debtAsset, debt, func() error {
			return e.RedeemCollateralForDebt(ctx, user, asset, amount, debt)
		})

	case "liquidate":
		amount, err := parse(step.Amount)
		if err != nil {
			return err
		}
		var result *engine.LiquidationResult
		err = r.withApproval(ctx, step, r.debtAsset, amount, func() (err error) {
			result, err = e.Liquidate(ctx, user, asset, common.Address(step.Target), amount)
			return err
		})
		if err != nil {
			return err
		}
		r.log.Info("liquidated",
			"target", result.Target,
			"seized", common.FormatAmount(result.Seized),
			"bonus", common.FormatAmount(result.Bonus),
			"health_before", result.HealthBefore,
			"health_after", result.HealthAfter,
		)
		return nil

	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidStep, step.Action)
	}
}

// withApproval lets the engine pull amount of asset from the step's user while
// call runs, unless the step opted out. The grant is added to what is already
// approved and taken back when call fails.
func (r *Runner) withApproval(ctx context.Context, step config.Step, asset common.Address, amount *uint256.Int, call func() error) error {
	if step.NoApprove {
		return call()
	}
	tok, ok := r.Token(asset)
	if !ok {
		// unknown assets are left for the engine to reject
		return call()
	}
	user := common.Address(step.User)
	spender := r.engine.Address()
	before := tok.Allowance(user, spender)
	allowance, err := common.Add(before, amount)
	if err != nil {
		return err
	}
	if err := tok.Approve(ctx, user, spender, allowance); err != nil {
		return err
	}

	if err := call(); err != nil {
		if resetErr := tok.Approve(ctx, user, spender, before); resetErr != nil {
			return errors.Join(err, resetErr)
		}
		return err
	}
	return nil
}

// setPrice publishes a human price for asset at the current time.
func (r *Runner) setPrice(asset common.Address, price string) error {
	c, ok := r.collateral[asset]
	if !ok {
		return fmt.Errorf("%w: no feed for %s", ErrInvalidStep, asset)
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return fmt.Errorf("%w: price %q: %v", ErrInvalidStep, price, err)
	}
	answer := d.Shift(int32(c.decimals)).Truncate(0).BigInt()
	r.feed.SetPrice(c.feed, answer, c.decimals, r.now)
	return nil
}

func parse(amount string) (*uint256.Int, error) {
	v, err := common.ParseAmount(amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStep, err)
	}
	return v, nil
}
