package engine

import (
	"sync"
	"time"

	"github.com/holiman/uint256"

	"frizo/stablecoin_engine/internal/common"
	"frizo/stablecoin_engine/internal/logger"
)

type EventKind string

const (
	EventCollateralDeposited EventKind = "collateral_deposited"
	EventCollateralRedeemed  EventKind = "collateral_redeemed"
	EventDebtMinted          EventKind = "debt_minted"
	EventDebtBurned          EventKind = "debt_burned"
	EventLiquidated          EventKind = "liquidated"
)

// Event describes one committed ledger change.
//
//	CollateralDeposited: From deposited Amount of Asset
//	CollateralRedeemed:  Amount of Asset left From's collateral for To
//	DebtMinted:          From's debt grew by Amount
//	DebtBurned:          From's debt shrank by Amount, paid by To
//	Liquidated:          To covered Amount of From's debt against Asset
type Event struct {
	ID     string
	Kind   EventKind
	At     time.Time
	From   common.Address
	To     common.Address
	Asset  common.Address
	Amount *uint256.Int
}

// EventSink receives events after their operation commits.
type EventSink interface {
	Emit(Event)
}

// LogSink writes every event to a logger.
type LogSink struct {
	log *logger.Logger
}

func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{log: log.WithComponent("events")}
}

func (s *LogSink) Emit(ev Event) {
	s.log.Info(string(ev.Kind),
		"event_id", ev.ID,
		"from", ev.From,
		"to", ev.To,
		"asset", ev.Asset,
		"amount", common.FormatAmount(ev.Amount),
	)
}

// Recorder keeps events in memory.
type Recorder struct {
	events []Event
	mu     sync.Mutex
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Emit(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Kinds lists the recorded event kinds in order.
func (r *Recorder) Kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]EventKind, len(r.events))
	for i, ev := range r.events {
		kinds[i] = ev.Kind
	}
	return kinds
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// multiSink fans an event out to several sinks.
type multiSink []EventSink

func (m multiSink) Emit(ev Event) {
	for _, s := range m {
		s.Emit(ev)
	}
}
