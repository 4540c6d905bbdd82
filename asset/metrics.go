package asset

// metrics.go mirrors the teacher's pkg/metrics.go dual noop/prom
// implementation shape: Server holds a metricsSink interface, using a
// Prometheus-backed implementation when WithMetrics supplies a registry and
// a no-op otherwise so the hot dereference path never pays for metric
// updates it can't observe.

import "github.com/prometheus/client_golang/prometheus"

type metricsSink interface {
	incLoaded(packID string)
	incIncompatible(packID string)
	incHotReload(packID string)
	incLoadError(packID string)
	setActivePacks(n int)
}

type noopMetrics struct{}

func (noopMetrics) incLoaded(string)       {}
func (noopMetrics) incIncompatible(string) {}
func (noopMetrics) incHotReload(string)    {}
func (noopMetrics) incLoadError(string)    {}
func (noopMetrics) setActivePacks(int)     {}

type promMetrics struct {
	loaded       *prometheus.CounterVec
	incompatible *prometheus.CounterVec
	hotReloads   *prometheus.CounterVec
	loadErrors   *prometheus.CounterVec
	activePacks  prometheus.Gauge
}

func newPromMetrics(reg *prometheus.Registry) *promMetrics {
	label := []string{"pack"}
	m := &promMetrics{
		loaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bones_asset",
			Name:      "loaded_total",
			Help:      "Number of assets successfully loaded.",
		}, label),
		incompatible: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bones_asset",
			Name:      "incompatible_total",
			Help:      "Number of packs rejected for version incompatibility.",
		}, label),
		hotReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bones_asset",
			Name:      "hot_reloads_total",
			Help:      "Number of hot-reload propagations.",
		}, label),
		loadErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bones_asset",
			Name:      "load_errors_total",
			Help:      "Number of asset load failures.",
		}, label),
		activePacks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bones_asset",
			Name:      "active_packs",
			Help:      "Number of packs currently active (version-compatible).",
		}),
	}
	reg.MustRegister(m.loaded, m.incompatible, m.hotReloads, m.loadErrors, m.activePacks)
	return m
}

func (m *promMetrics) incLoaded(packID string)       { m.loaded.WithLabelValues(packID).Inc() }
func (m *promMetrics) incIncompatible(packID string) { m.incompatible.WithLabelValues(packID).Inc() }
func (m *promMetrics) incHotReload(packID string)    { m.hotReloads.WithLabelValues(packID).Inc() }
func (m *promMetrics) incLoadError(packID string)    { m.loadErrors.WithLabelValues(packID).Inc() }
func (m *promMetrics) setActivePacks(n int)          { m.activePacks.Set(float64(n)) }

func newMetricsSink(reg *prometheus.Registry) metricsSink {
	if reg == nil {
		return noopMetrics{}
	}
	return newPromMetrics(reg)
}
