// Package observability exposes prometheus collectors describing protocol
// state and operation outcomes.
package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"stablecore/native/stable"
)

type stableMetrics struct {
	collateralRatio prometheus.Gauge
	tier            prometheus.Gauge
	reserve         prometheus.Gauge
	liabilitySupply prometheus.Gauge
	equitySupply    prometheus.Gauge
	equityNAV       prometheus.Gauge
	obligationTotal prometheus.Gauge
	poolTotal       prometheus.Gauge
	scaleFactor     prometheus.Gauge
	obligationIndex prometheus.Gauge

	operations *prometheus.CounterVec
	burned     prometheus.Counter
	claimed    prometheus.Counter
}

var (
	stableMetricsOnce sync.Once
	stableRegistry    *stableMetrics
)

// Stable returns the lazily-initialised protocol metrics registry.
func Stable() *stableMetrics {
	stableMetricsOnce.Do(func() {
		gauge := func(name, help string) prometheus.Gauge {
			return prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "stablecore",
				Subsystem: "protocol",
				Name:      name,
				Help:      help,
			})
		}
		stableRegistry = &stableMetrics{
			collateralRatio: gauge("collateral_ratio", "Net reserve value over outstanding liability value."),
			tier:            gauge("tier", "Current collateral ratio response tier (1-5)."),
			reserve:         gauge("reserve_units", "Custodied reserve in reserve-asset units."),
			liabilitySupply: gauge("liability_supply", "Outstanding liability token supply."),
			equitySupply:    gauge("equity_supply", "Outstanding equity token supply."),
			equityNAV:       gauge("equity_nav_usd", "Implied equity token NAV in USD."),
			obligationTotal: gauge("obligation_total_units", "Reserve units promised to pool depositors but unpaid."),
			poolTotal:       gauge("pool_total_liability", "Liability tokens held by the stability pool."),
			scaleFactor:     gauge("pool_scale_factor", "Global scaled-share multiplier (non-increasing)."),
			obligationIndex: gauge("pool_obligation_index", "Cumulative reserve units owed per scaled share."),
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "stablecore",
				Subsystem: "protocol",
				Name:      "operations_total",
				Help:      "Engine operations segmented by operation and outcome.",
			}, []string{"operation", "outcome"}),
			burned: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "stablecore",
				Subsystem: "protocol",
				Name:      "rebalance_burned_total",
				Help:      "Cumulative liability burned by the rebalance controller.",
			}),
			claimed: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "stablecore",
				Subsystem: "protocol",
				Name:      "claims_settled_total",
				Help:      "Cumulative reserve units paid out through pool claims.",
			}),
		}
		prometheus.MustRegister(
			stableRegistry.collateralRatio,
			stableRegistry.tier,
			stableRegistry.reserve,
			stableRegistry.liabilitySupply,
			stableRegistry.equitySupply,
			stableRegistry.equityNAV,
			stableRegistry.obligationTotal,
			stableRegistry.poolTotal,
			stableRegistry.scaleFactor,
			stableRegistry.obligationIndex,
			stableRegistry.operations,
			stableRegistry.burned,
			stableRegistry.claimed,
		)
	})
	return stableRegistry
}

// RecordState publishes the protocol state gauges from a snapshot.
func (m *stableMetrics) RecordState(s *stable.State, collateralRatio decimal.Decimal, tier int) {
	if m == nil || s == nil {
		return
	}
	m.collateralRatio.Set(collateralRatio.InexactFloat64())
	m.tier.Set(float64(tier))
	m.reserve.Set(s.Reserve.Balance.InexactFloat64())
	m.liabilitySupply.Set(s.Supply.Liability.InexactFloat64())
	m.equitySupply.Set(s.Supply.Equity.InexactFloat64())
	m.equityNAV.Set(s.Supply.EquityNAV.InexactFloat64())
	m.obligationTotal.Set(s.Obligation.Total.InexactFloat64())
	m.poolTotal.Set(s.Pool.ScaledTotal.Mul(s.Pool.ScaleFactor).InexactFloat64())
	m.scaleFactor.Set(s.Pool.ScaleFactor.InexactFloat64())
	m.obligationIndex.Set(s.Pool.ObligationIndex.InexactFloat64())
}

// RecordOperation counts one engine operation with its outcome.
func (m *stableMetrics) RecordOperation(operation string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	operation = strings.TrimSpace(strings.ToLower(operation))
	if operation == "" {
		operation = "unknown"
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
}

// RecordBurn adds to the cumulative rebalance burn counter.
func (m *stableMetrics) RecordBurn(amount decimal.Decimal) {
	if m == nil || amount.Sign() <= 0 {
		return
	}
	m.burned.Add(amount.InexactFloat64())
}

// RecordClaim adds to the cumulative claim settlement counter.
func (m *stableMetrics) RecordClaim(amount decimal.Decimal) {
	if m == nil || amount.Sign() <= 0 {
		return
	}
	m.claimed.Add(amount.InexactFloat64())
}
