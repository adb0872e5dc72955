// Package metrics exports Prometheus counters for searches, probes and
// session housekeeping.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "linkaudit"

// Metrics holds every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Search metrics
	Searches        *prometheus.CounterVec
	PagesFetched    prometheus.Counter
	RecordsFetched  prometheus.Counter
	SessionsCreated prometheus.Counter

	// Probe metrics
	Probes        *prometheus.CounterVec
	ProbeDuration prometheus.Histogram

	// Housekeeping
	SessionsSwept     prometheus.Counter
	CredentialReloads *prometheus.CounterVec
}

// New registers all collectors on a fresh registry, along with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	f := promauto.With(reg)
	m := &Metrics{registry: reg}

	m.Searches = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "searches_total",
		Help:      "Completed searches by termination kind",
	}, []string{"termination"})

	m.PagesFetched = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pages_fetched_total",
		Help:      "Result pages returned by the search provider",
	})

	m.RecordsFetched = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_fetched_total",
		Help:      "Result records returned by the search provider",
	})

	m.SessionsCreated = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_created_total",
		Help:      "Sessions created from non-empty searches",
	})

	m.Probes = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "probes_total",
		Help:      "URL probes by classification kind",
	}, []string{"kind"})

	m.ProbeDuration = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "probe_duration_seconds",
		Help:      "Time to probe a single URL",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	m.SessionsSwept = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_swept_total",
		Help:      "Expired sessions removed by the sweeper",
	})

	m.CredentialReloads = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "credential_reloads_total",
		Help:      "Secrets file reloads by result",
	}, []string{"result"})

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveSearch records a finished search.
func (m *Metrics) ObserveSearch(termination string, pages, records int) {
	if m == nil {
		return
	}
	m.Searches.WithLabelValues(termination).Inc()
	m.PagesFetched.Add(float64(pages))
	m.RecordsFetched.Add(float64(records))
}

// ObserveSessionCreated counts a new session.
func (m *Metrics) ObserveSessionCreated() {
	if m == nil {
		return
	}
	m.SessionsCreated.Inc()
}

// ObserveProbe records one probe.
func (m *Metrics) ObserveProbe(kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.Probes.WithLabelValues(kind).Inc()
	m.ProbeDuration.Observe(d.Seconds())
}

// ObserveSweep records how many sessions a sweep removed.
func (m *Metrics) ObserveSweep(removed int) {
	if m == nil {
		return
	}
	m.SessionsSwept.Add(float64(removed))
}

// ObserveReload records a secrets reload.
func (m *Metrics) ObserveReload(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.CredentialReloads.WithLabelValues(result).Inc()
}
