// Package metrics exposes Prometheus counters for a locate run. A run is a
// batch job, so metrics live on a private registry and are pushed to a
// Pushgateway when the run ends.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/rotisserie/eris"
)

const namespace = "locations"

// Candidate outcomes.
const (
	OutcomeAccepted          = "accepted"
	OutcomeFuzzyMismatch     = "fuzzy_mismatch"
	OutcomeDetailsFailed     = "details_failed"
	OutcomeClosed            = "permanently_closed"
	OutcomeIrrelevant        = "irrelevant_type"
	OutcomeDuplicateLocation = "duplicate_location"
	OutcomeDuplicateResult   = "duplicate_result"
)

// Metrics holds all collectors for one run.
type Metrics struct {
	Registry *prometheus.Registry

	Candidates           *prometheus.CounterVec
	APIRequests          *prometheus.CounterVec
	Retries              *prometheus.CounterVec
	PairFailures         prometheus.Counter
	PairDuration         prometheus.Histogram
	CompaniesWithResults prometheus.Gauge
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		Candidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_total",
			Help:      "Places candidates processed, by outcome",
		}, []string{"outcome"}),

		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Places API requests, by endpoint and status",
		}, []string{"endpoint", "status"}),

		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_retries_total",
			Help:      "Places API requests retried after a transient failure",
		}, []string{"endpoint"}),

		PairFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pair_failures_total",
			Help:      "Company/city searches that failed unexpectedly",
		}),

		PairDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pair_duration_seconds",
			Help:      "Duration of one company/city search",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),

		CompaniesWithResults: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "companies_with_results",
			Help:      "Companies with at least one located result",
		}),
	}

	m.Registry.MustRegister(
		m.Candidates,
		m.APIRequests,
		m.Retries,
		m.PairFailures,
		m.PairDuration,
		m.CompaniesWithResults,
	)
	return m
}

// Candidate counts one candidate outcome.
func (m *Metrics) Candidate(outcome string) {
	m.Candidates.WithLabelValues(outcome).Inc()
}

// APIRequest counts one Places request.
func (m *Metrics) APIRequest(endpoint, status string) {
	m.APIRequests.WithLabelValues(endpoint, status).Inc()
}

// Push sends the registry to a Pushgateway under the given job name.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if url == "" {
		return nil
	}
	if err := push.New(url, job).Gatherer(m.Registry).PushContext(ctx); err != nil {
		return eris.Wrapf(err, "metrics: push to %s", url)
	}
	return nil
}
