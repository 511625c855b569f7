package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes cache internals as Prometheus collectors. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	resident    prometheus.Gauge
	entries     prometheus.Gauge
	rejected    prometheus.Counter
	demotions   prometheus.Counter
	reloads     prometheus.Counter
	passes      prometheus.Counter
	exhausted   prometheus.Counter
	storeErrors *prometheus.CounterVec
}

// NewMetrics creates the cache collectors and registers them with reg.
// A nil reg creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		resident: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "rawrcache",
			Name:      "resident_bytes",
			Help:      "Bytes of entry payload currently held in memory.",
		}),
		entries: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "rawrcache",
			Name:      "entries",
			Help:      "Number of entries in the index, resident or not.",
		}),
		rejected: f.NewCounter(prometheus.CounterOpts{
			Namespace: "rawrcache",
			Name:      "puts_rejected_total",
			Help:      "Puts refused because resident memory was at capacity.",
		}),
		demotions: f.NewCounter(prometheus.CounterOpts{
			Namespace: "rawrcache",
			Name:      "demotions_total",
			Help:      "Entries whose in-memory copy was released to the backing store.",
		}),
		reloads: f.NewCounter(prometheus.CounterOpts{
			Namespace: "rawrcache",
			Name:      "reloads_total",
			Help:      "Entries read back from the backing store.",
		}),
		passes: f.NewCounter(prometheus.CounterOpts{
			Namespace: "rawrcache",
			Name:      "eviction_passes_total",
			Help:      "Eviction passes run.",
		}),
		exhausted: f.NewCounter(prometheus.CounterOpts{
			Namespace: "rawrcache",
			Name:      "eviction_exhausted_total",
			Help:      "Eviction passes that ran out of candidates above the target.",
		}),
		storeErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rawrcache",
			Name:      "store_errors_total",
			Help:      "Backing store operations that failed.",
		}, []string{"op"}),
	}
}

func (m *Metrics) observeResident(n int64) {
	if m != nil {
		m.resident.Set(float64(n))
	}
}

func (m *Metrics) observeEntries(n int) {
	if m != nil {
		m.entries.Set(float64(n))
	}
}

func (m *Metrics) rejectedPut() {
	if m != nil {
		m.rejected.Inc()
	}
}

func (m *Metrics) demoted() {
	if m != nil {
		m.demotions.Inc()
	}
}

func (m *Metrics) reloaded() {
	if m != nil {
		m.reloads.Inc()
	}
}

func (m *Metrics) pass(exhausted bool) {
	if m == nil {
		return
	}
	m.passes.Inc()
	if exhausted {
		m.exhausted.Inc()
	}
}

func (m *Metrics) storeError(op string) {
	if m != nil {
		m.storeErrors.WithLabelValues(op).Inc()
	}
}
