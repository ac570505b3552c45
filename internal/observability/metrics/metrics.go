// Package metrics exposes Prometheus instruments for the billing batch.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the batch-level instruments. A nil *Metrics is safe to call;
// every method no-ops, so services can take it as an optional dependency.
type Metrics struct {
	recordsRated     *prometheus.CounterVec
	zeroCostRecords  prometheus.Counter
	ruleFailures     prometheus.Counter
	balanceSnapshots prometheus.Counter
	accountFailures  prometheus.Counter
	batchDuration    prometheus.Histogram
}

// New registers the batch instruments on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		recordsRated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quotaledger_records_rated_total",
			Help: "Usage records rated, by usage type.",
		}, []string{"usage_type"}),
		zeroCostRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quotaledger_zero_cost_records_total",
			Help: "Usage records whose aggregated tariff value was zero.",
		}),
		ruleFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quotaledger_rule_failures_total",
			Help: "Activation rule executions that failed or timed out.",
		}),
		balanceSnapshots: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quotaledger_balance_snapshots_total",
			Help: "Balance snapshots appended to the ledger.",
		}),
		accountFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quotaledger_account_failures_total",
			Help: "Accounts whose reconciliation failed and was skipped.",
		}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quotaledger_batch_duration_seconds",
			Help:    "Duration of full billing batch runs.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}

	reg.MustRegister(
		m.recordsRated,
		m.zeroCostRecords,
		m.ruleFailures,
		m.balanceSnapshots,
		m.accountFailures,
		m.batchDuration,
	)
	return m
}

// NewDefault registers on the default Prometheus registry.
func NewDefault() *Metrics {
	return New(prometheus.DefaultRegisterer)
}

func (m *Metrics) IncRecordRated(usageType int) {
	if m == nil {
		return
	}
	m.recordsRated.WithLabelValues(strconv.Itoa(usageType)).Inc()
}

func (m *Metrics) IncZeroCostRecord() {
	if m == nil {
		return
	}
	m.zeroCostRecords.Inc()
}

func (m *Metrics) IncRuleFailure() {
	if m == nil {
		return
	}
	m.ruleFailures.Inc()
}

func (m *Metrics) IncBalanceSnapshot() {
	if m == nil {
		return
	}
	m.balanceSnapshots.Inc()
}

func (m *Metrics) IncAccountFailure() {
	if m == nil {
		return
	}
	m.accountFailures.Inc()
}

func (m *Metrics) ObserveBatchDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.batchDuration.Observe(d.Seconds())
}
