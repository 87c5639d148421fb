// Package metrics exposes prometheus collectors for the engine. A nil *Metrics
// is valid and records nothing.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "stablecoin_engine"

const (
	ResultOK    = "ok"
	ResultError = "error"
)

type Metrics struct {
	operations   *prometheus.CounterVec
	liquidations prometheus.Counter
	oracleStale  prometheus.Counter
	totalDebt    prometheus.Gauge
}

// New creates the collectors and registers them on registerer.
func New(registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Number of engine operations by operation and result",
		}, []string{"op", "result"}),
		liquidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "liquidations_total",
			Help:      "Number of successful liquidations",
		}),
		oracleStale: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_stale_total",
			Help:      "Number of price reads rejected as stale",
		}),
		totalDebt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "total_debt",
			Help:      "Outstanding debt recorded by the ledger, in whole units",
		}),
	}

	err := errors.Join(
		registerer.Register(m.operations),
		registerer.Register(m.liquidations),
		registerer.Register(m.oracleStale),
		registerer.Register(m.totalDebt),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ObserveOperation counts one call of op; err decides the result label.
func (m *Metrics) ObserveOperation(op string, err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.operations.WithLabelValues(op, result).Inc()
}

func (m *Metrics) IncLiquidations() {
	if m == nil {
		return
	}
	m.liquidations.Inc()
}

func (m *Metrics) IncOracleStale() {
	if m == nil {
		return
	}
	m.oracleStale.Inc()
}

func (m *Metrics) SetTotalDebt(units float64) {
	if m == nil {
		return
	}
	m.totalDebt.Set(units)
}
