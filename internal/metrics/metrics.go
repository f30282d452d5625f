// Package metrics exposes Prometheus counters for menu rendering and integrity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/treemenu/treemenu-server/internal/menu"
)

const namespace = "treemenu"

// Metrics holds every counter the server reports. It satisfies menu.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	renders            *prometheus.CounterVec
	resolutionFailures prometheus.Counter
	validationRejected *prometheus.CounterVec
	corruptChains      prometheus.Counter
	httpRequests       *prometheus.CounterVec
}

var _ menu.Recorder = (*Metrics)(nil)

// New registers counters on a fresh registry, alongside the Go and process collectors.
func New() *Metrics {
	return NewWithRegistry(prometheus.NewRegistry(), true)
}

// NewWithRegistry registers counters on reg. Runtime collectors are optional
// so tests can compare exact output.
func NewWithRegistry(reg *prometheus.Registry, runtimeCollectors bool) *Metrics {
	m := &Metrics{
		registry: reg,
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Menus rendered, by menu name.",
		}, []string{"menu"}),
		resolutionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "url_resolution_failures_total",
			Help:      "Named routes that failed to resolve while rendering.",
		}),
		validationRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_rejections_total",
			Help:      "Item writes rejected by validation, by field.",
		}, []string{"field"}),
		corruptChains: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "corrupt_chains_total",
			Help:      "Pre-existing parent loops met while validating a save.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by method and status code.",
		}, []string{"method", "code"}),
	}

	reg.MustRegister(m.renders, m.resolutionFailures, m.validationRejected, m.corruptChains, m.httpRequests)
	if runtimeCollectors {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	return m
}

// MenuRendered counts one render of menuName.
func (m *Metrics) MenuRendered(menuName string) {
	m.renders.WithLabelValues(menuName).Inc()
}

// URLResolutionFailed counts a named route that did not reverse.
// The route name goes to the warning log only, since it comes from stored data.
func (m *Metrics) URLResolutionFailed(string) {
	m.resolutionFailures.Inc()
}

// CorruptChain counts a loop found above an item being saved.
func (m *Metrics) CorruptChain(int64) {
	m.corruptChains.Inc()
}

// ValidationRejected counts a rejected write. Empty field means a non-field error.
func (m *Metrics) ValidationRejected(field string) {
	if field == "" {
		field = "_"
	}
	m.validationRejected.WithLabelValues(field).Inc()
}

// InstrumentHandler counts requests passing through next.
func (m *Metrics) InstrumentHandler(next http.Handler) http.Handler {
	return promhttp.InstrumentHandlerCounter(m.httpRequests, next)
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
