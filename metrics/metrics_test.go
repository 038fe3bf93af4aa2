package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.CycleFinished(false, time.Second)
	m.CycleFinished(true, time.Second)
	m.CycleFinished(false, time.Second)
	m.Probe(true)
	m.Probe(false)
	m.Decision("NOTIFY")
	m.Notification(true)
	m.LatestVersion("7.10.0")
	m.LatestVersion("7.11.0")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.cyclesTotal.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.cyclesTotal.WithLabelValues("failure")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.probesTotal.WithLabelValues("failure")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.decisionsTotal.WithLabelValues("NOTIFY")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.notificationsTotal.WithLabelValues("success")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.latestVersion), "only the newest release is exported")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.CycleFinished(true, time.Second)
	m.Probe(true)
	m.Decision("UP_TO_DATE")
	m.Notification(false)
	m.LatestVersion("1.0.0")
}
