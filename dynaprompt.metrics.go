package dynaprompt

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records expansion outcomes. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry     *prometheus.Registry
	expansions   *prometheus.CounterVec
	rejections   *prometheus.CounterVec
	outputs      prometheus.Histogram
	enhancements *prometheus.CounterVec
	storeReloads *prometheus.CounterVec
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		expansions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "expansions_total",
			Help:      "Total expansions by mode.",
		}, []string{MetricLabelMode}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "rejections_total",
			Help:      "Total rejected expansions by error kind.",
		}, []string{MetricLabelKind}),
		outputs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "prompts_per_expansion",
			Help:      "Number of prompts produced by a valid expansion.",
			Buckets:   []float64{1, 2, 3, 5, 10, 20},
		}),
		enhancements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "enhancer",
			Name:      "cache_lookups_total",
			Help:      "Enhancement cache lookups by result.",
		}, []string{"result"}),
		storeReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "store",
			Name:      "reloads_total",
			Help:      "Wildcard store reloads by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(m.expansions, m.rejections, m.outputs, m.enhancements, m.storeReloads)
	return m
}

// Registry exposes the registry for additional collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeExpansion(result *ExpansionResult) {
	if m == nil {
		return
	}
	mode := result.Mode
	if mode == "" {
		mode = ModeNamePlain
	}
	m.expansions.WithLabelValues(mode).Inc()
	if !result.IsValid {
		m.rejections.WithLabelValues(result.Kind.String()).Inc()
		return
	}
	m.outputs.Observe(float64(result.TotalCount))
}

func (m *Metrics) observeEnhancement(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.enhancements.WithLabelValues("hit").Inc()
		return
	}
	m.enhancements.WithLabelValues("miss").Inc()
}

func (m *Metrics) observeStoreReload(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.storeReloads.WithLabelValues("error").Inc()
		return
	}
	m.storeReloads.WithLabelValues("ok").Inc()
}
