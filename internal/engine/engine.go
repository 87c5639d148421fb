// Package engine keeps the collateral and debt ledger of an overcollateralized
// stablecoin and enforces its solvency rules.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/holiman/uint256"

	"frizo/stablecoin_engine/internal/common"
	"frizo/stablecoin_engine/internal/logger"
	"frizo/stablecoin_engine/internal/metrics"
	"frizo/stablecoin_engine/internal/oracle"
	"frizo/stablecoin_engine/internal/token"
)

// Config describes one deployment of the engine.
type Config struct {
	Self      common.Address   // address the engine holds collateral and debt tokens under
	Assets    []common.Address // allowed collateral, parallel to Feeds
	Feeds     []oracle.FeedID
	DebtAsset common.Address // label of the debt token, defaults to its symbol
}

// Dependencies are the external collaborators the engine calls into.
type Dependencies struct {
	Tokens token.Registry
	Debt   token.DebtToken
	Prices *oracle.Adapter
}

// Engine is the collateral and debt ledger. Mutations are serialized.
type Engine struct {
	self      common.Address
	debtAsset common.Address

	registry *Registry
	tokens   map[common.Address]token.Token // asset -> collateral token
	debt     token.DebtToken
	prices   *oracle.Adapter

	ledger *ledger

	log     *logger.Logger
	metrics *metrics.Metrics
	sinks   multiSink

	mu sync.RWMutex

	// calling is set while collaborator calls of the writer run. Views that
	// read without mu in that window hold peek.
	calling atomic.Bool
	peek    sync.RWMutex
}

type Option func(*Engine)

func WithLogger(log *logger.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithEventSink adds a sink next to the default log sink.
func WithEventSink(sink EventSink) Option {
	return func(e *Engine) {
		e.sinks = append(e.sinks, sink)
	}
}

// New validates cfg against deps and returns an engine with an empty ledger.
func New(cfg Config, deps Dependencies, opts ...Option) (*Engine, error) {
	registry, err := NewRegistry(cfg.Assets, cfg.Feeds)
	if err != nil {
		return nil, err
	}

	switch {
	case cfg.Self.IsZero():
		return nil, fmt.Errorf("%w: engine address", ErrMissingDependency)
	case deps.Tokens == nil:
		return nil, fmt.Errorf("%w: token registry", ErrMissingDependency)
	case deps.Debt == nil:
		return nil, fmt.Errorf("%w: debt token", ErrMissingDependency)
	case deps.Prices == nil:
		return nil, fmt.Errorf("%w: price oracle", ErrMissingDependency)
	}

	tokens := make(map[common.Address]token.Token, registry.Len())
	for _, asset := range registry.Assets() {
		t, ok := deps.Tokens.Token(asset)
		if !ok {
			return nil, fmt.Errorf("%w: no token registered for %s", ErrNotAllowedToken, asset)
		}
		tokens[asset] = t
	}

	debtAsset := cfg.DebtAsset
	if debtAsset.IsZero() {
		debtAsset = common.Address(deps.Debt.Symbol())
	}

	e := &Engine{
		self:      cfg.Self,
		debtAsset: debtAsset,
		registry:  registry,
		tokens:    tokens,
		debt:      deps.Debt,
		prices:    deps.Prices,
		ledger:    newLedger(),
		log:       logger.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.sinks = append(multiSink{NewLogSink(e.log)}, e.sinks...)
	e.log = e.log.WithComponent("engine")

	e.log.Info("engine created",
		"address", e.self,
		"debt_asset", e.debtAsset,
		"collateral", registry.Assets(),
	)
	return e, nil
}

// =====================================================
// reentrancy
// =====================================================

type inFlightKey struct{}

// inFlight marks a context as derived from a running engine operation.
type inFlight struct {
	engine *Engine
	parent *inFlight
}

func (e *Engine) entered(ctx context.Context) bool {
	f, _ := ctx.Value(inFlightKey{}).(*inFlight)
	for ; f != nil; f = f.parent {
		if f.engine == e {
			return true
		}
	}
	return false
}

func (e *Engine) enter(ctx context.Context) context.Context {
	parent, _ := ctx.Value(inFlightKey{}).(*inFlight)
	return context.WithValue(ctx, inFlightKey{}, &inFlight{engine: e, parent: parent})
}

// view takes the read lock unless ctx already runs inside this engine, where
// the write lock is held by the caller. While the writer is calling out the
// ledger is not written, so views read it under peek instead of waiting on mu.
func (e *Engine) view(ctx context.Context) (context.Context, func()) {
	if e.entered(ctx) {
		return ctx, func() {}
	}
	e.peek.RLock()
	if e.calling.Load() {
		return e.enter(ctx), e.peek.RUnlock
	}
	e.peek.RUnlock()

	e.mu.RLock()
	return e.enter(ctx), e.mu.RUnlock
}

// =====================================================
// transactions
// =====================================================

// interaction is a queued collaborator call. undo reverses a completed do.
type interaction struct {
	kind error
	name string
	do   func(ctx context.Context) error
	undo func(ctx context.Context) error
}

// txn is one mutating call. Ledger writes go through the journal, collaborator
// calls wait until every check passed and events wait for the commit.
type txn struct {
	ctx    context.Context
	engine *Engine

	journal journal
	pending []interaction
	done    []interaction
	events  []Event
}

// execute runs fn under the write lock and either commits everything it did
// or restores the ledger and compensates its collaborator calls.
func (e *Engine) execute(ctx context.Context, op string, fn func(tx *txn) error) error {
	events, err := e.run(ctx, op, fn)
	e.metrics.ObserveOperation(op, err)
	if err != nil {
		e.log.Debug("operation rejected", "op", op, "error", err)
		return err
	}

	for _, ev := range events {
		e.sinks.Emit(ev)
	}
	return nil
}

// run refuses to start while another call of this engine is calling out, as
// a collaborator may be calling back without the engine's context.
func (e *Engine) run(ctx context.Context, op string, fn func(tx *txn) error) ([]Event, error) {
	if e.entered(ctx) || e.calling.Load() {
		return nil, fmt.Errorf("%w: %s", ErrReentrantCall, op)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	tx := &txn{
		ctx:     e.enter(ctx),
		engine:  e,
		journal: journal{ledger: e.ledger},
	}
	if err := fn(tx); err != nil {
		return nil, tx.rollback(err)
	}
	if err := e.callOut(tx); err != nil {
		return nil, err
	}

	totalDebt := e.ledger.totalDebt()
	e.metrics.SetTotalDebt(common.ToDecimal(totalDebt).InexactFloat64())
	e.log.Info("operation committed", "op", op, "events", len(tx.events), "total_debt", common.FormatAmount(totalDebt))
	return tx.events, nil
}

func (tx *txn) queue(kind error, name string, do, undo func(ctx context.Context) error) {
	tx.pending = append(tx.pending, interaction{kind: kind, name: name, do: do, undo: undo})
}

// interact runs the queued calls in order. A failure is wrapped under the
// kind of the failing call.
func (tx *txn) interact() error {
	for _, call := range tx.pending {
		if err := call.do(tx.ctx); err != nil {
			return fmt.Errorf("%w: %s: %w", call.kind, call.name, err)
		}
		tx.done = append(tx.done, call)
	}
	tx.pending = nil
	return nil
}

// callOut runs the queued calls, and their compensations on failure, with the
// engine marked as calling. The ledger is restored only after views that read
// during the calls are done.
func (e *Engine) callOut(tx *txn) (err error) {
	e.calling.Store(true)
	defer func() {
		e.calling.Store(false)
		e.peek.Lock()
		e.peek.Unlock()
		if err != nil {
			tx.discard()
		}
	}()

	if err = tx.interact(); err != nil {
		err = tx.compensate(err)
	}
	return err
}

// rollback undoes completed calls newest first, then restores the ledger.
func (tx *txn) rollback(cause error) error {
	err := tx.compensate(cause)
	tx.discard()
	return err
}

func (tx *txn) compensate(cause error) error {
	ctx := context.WithoutCancel(tx.ctx)
	errs := []error{cause}
	for i := len(tx.done) - 1; i >= 0; i-- {
		call := tx.done[i]
		if call.undo == nil {
			continue
		}
		if err := call.undo(ctx); err != nil {
			tx.engine.log.Error("compensation failed", "step", call.name, "error", err)
			errs = append(errs, fmt.Errorf("compensate %s: %w", call.name, err))
		}
	}
	if len(errs) == 1 {
		return cause
	}
	return errors.Join(errs...)
}

func (tx *txn) discard() {
	tx.pending, tx.done, tx.events = nil, nil, nil
	tx.journal.revert()
}

// requireHealthy fails with a *BreaksHealthFactorError when user has debt that
// its collateral no longer covers.
func (tx *txn) requireHealthy(user common.Address) error {
	hf, err := tx.engine.healthFactor(tx.ctx, user)
	if err != nil {
		return err
	}
	if hf.IsLiquidatable() {
		return &BreaksHealthFactorError{Account: user, Factor: hf}
	}
	return nil
}

func (tx *txn) emit(kind EventKind, from, to, asset common.Address, amount *uint256.Int) {
	tx.events = append(tx.events, Event{
		ID:     common.GenerateEventID(),
		Kind:   kind,
		At:     tx.engine.prices.Now(),
		From:   from,
		To:     to,
		Asset:  asset,
		Amount: amount.Clone(),
	})
}

// collateralToken returns the token of an allowed asset.
func (e *Engine) collateralToken(asset common.Address) (token.Token, error) {
	if err := e.registry.requireAllowed(asset); err != nil {
		return nil, err
	}
	return e.tokens[asset], nil
}

func requirePositive(amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return ErrNeedsMoreThanZero
	}
	return nil
}
