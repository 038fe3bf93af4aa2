package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "update_notifier"

type Metrics struct {
	cyclesTotal        *prometheus.CounterVec
	cycleDuration      prometheus.Histogram
	lastCycleTimestamp prometheus.Gauge
	probesTotal        *prometheus.CounterVec
	decisionsTotal     *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	latestVersion      *prometheus.GaugeVec
}

func New(reg prometheus.Registerer) *Metrics {
	promFactory := promauto.With(reg)
	return &Metrics{
		cyclesTotal: promFactory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Completed polling cycles labelled by result",
		}, []string{"result"}),
		cycleDuration: promFactory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a full polling cycle",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		lastCycleTimestamp: promFactory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_cycle_timestamp_seconds",
			Help:      "Unix time at which the last cycle finished",
		}),
		probesTotal: promFactory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probes_total",
			Help:      "Instance version probes labelled by result",
		}, []string{"result"}),
		decisionsTotal: promFactory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Notification gate decisions labelled by decision",
		}, []string{"decision"}),
		notificationsTotal: promFactory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Webhook notifications labelled by result",
		}, []string{"result"}),
		latestVersion: promFactory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "latest_version_info",
			Help:      "Latest published release, value is always 1",
		}, []string{"version"}),
	}
}

func (m *Metrics) CycleFinished(failed bool, duration time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if failed {
		result = "failure"
	}
	m.cyclesTotal.WithLabelValues(result).Inc()
	m.cycleDuration.Observe(duration.Seconds())
	m.lastCycleTimestamp.SetToCurrentTime()
}

func (m *Metrics) Probe(ok bool) {
	if m == nil {
		return
	}
	m.probesTotal.WithLabelValues(result(ok)).Inc()
}

func (m *Metrics) Decision(decision string) {
	if m == nil {
		return
	}
	m.decisionsTotal.WithLabelValues(decision).Inc()
}

func (m *Metrics) Notification(ok bool) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(result(ok)).Inc()
}

// LatestVersion keeps a single series for the most recently seen release.
func (m *Metrics) LatestVersion(version string) {
	if m == nil {
		return
	}
	m.latestVersion.Reset()
	m.latestVersion.WithLabelValues(version).Set(1)
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
