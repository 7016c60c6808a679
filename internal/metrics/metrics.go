// Package metrics records upstream call outcomes and fallbacks with Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Endpoint labels.
const (
	EndpointRepos    = "github_repos"
	EndpointMembers  = "github_members"
	EndpointGraphQL  = "github_graphql"
	EndpointPackages = "hex_packages"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics holds the collectors for a single run. A nil *Metrics discards everything.
type Metrics struct {
	registry *prometheus.Registry

	UpstreamRequestsTotal   *prometheus.CounterVec
	UpstreamRequestDuration *prometheus.HistogramVec
	FallbacksTotal          *prometheus.CounterVec
	Projects                prometheus.Gauge
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		UpstreamRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orgsite_upstream_requests_total",
				Help: "Total number of requests to upstream APIs",
			},
			[]string{"endpoint", "outcome"},
		),
		UpstreamRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "orgsite_upstream_request_duration_seconds",
				Help:    "Upstream request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		FallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orgsite_fallbacks_total",
				Help: "Number of times static fallback data replaced live data",
			},
			[]string{"source"},
		),
		Projects: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "orgsite_projects",
				Help: "Number of projects in the last snapshot",
			},
		),
	}
	m.registry.MustRegister(
		m.UpstreamRequestsTotal,
		m.UpstreamRequestDuration,
		m.FallbacksTotal,
		m.Projects,
	)
	return m
}

// ObserveRequest records one upstream call.
func (m *Metrics) ObserveRequest(endpoint string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.UpstreamRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	m.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

// RecordFallback counts one substitution of static data for the given source.
func (m *Metrics) RecordFallback(source string) {
	if m == nil {
		return
	}
	m.FallbacksTotal.WithLabelValues(source).Inc()
}

// SetProjects records the size of the project list.
func (m *Metrics) SetProjects(n int) {
	if m == nil {
		return
	}
	m.Projects.Set(float64(n))
}

// WriteTextfile writes all metrics in the text exposition format, for the node exporter
// textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
