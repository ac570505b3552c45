package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IncRecordRated(1)
	m.IncRecordRated(1)
	m.IncRecordRated(6)
	m.IncZeroCostRecord()
	m.IncBalanceSnapshot()
	m.ObserveBatchDuration(250 * time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.recordsRated.WithLabelValues("1")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.recordsRated.WithLabelValues("6")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.zeroCostRecords))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.balanceSnapshots))
}

func TestMetrics_NilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncRecordRated(1)
		m.IncZeroCostRecord()
		m.IncRuleFailure()
		m.IncBalanceSnapshot()
		m.IncAccountFailure()
		m.ObserveBatchDuration(time.Second)
	})
}
