package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"listing-parser/services"
)

// Metrics holds the Prometheus collectors for listing ingestion. Each Metrics
// owns its registry so several servers can coexist in one process (tests).
//
// Metrics:
//   - listings_ingested_total - records stored
//   - listing_fields_extracted_total{field,rule} - fields found, by winning rule
//   - listing_ingest_errors_total{reason} - rejected or failed ingestions
//   - listing_ingest_duration_seconds - parse + store latency
type Metrics struct {
	registry *prometheus.Registry

	IngestedTotal   prometheus.Counter
	FieldsExtracted *prometheus.CounterVec
	IngestErrors    *prometheus.CounterVec
	IngestDuration  prometheus.Histogram
}

// NewMetrics creates and registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		IngestedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "listings_ingested_total",
			Help: "Total number of listing records stored",
		}),
		FieldsExtracted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "listing_fields_extracted_total",
				Help: "Fields extracted from ingested listings, by field and winning rule",
			},
			[]string{"field", "rule"},
		),
		IngestErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "listing_ingest_errors_total",
				Help: "Ingestion requests that did not produce a record",
			},
			[]string{"reason"}, // "bad_request", "too_large", "fetch", "storage"
		),
		IngestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "listing_ingest_duration_seconds",
			Help:    "Time to parse and store one listing",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveIngest records a successful ingestion.
func (m *Metrics) ObserveIngest(res *services.IngestResult, d time.Duration) {
	m.IngestedTotal.Inc()
	m.IngestDuration.Observe(d.Seconds())
	for _, match := range res.Matches {
		m.FieldsExtracted.WithLabelValues(match.Field, match.Rule).Inc()
	}
}

// ObserveError counts a failed ingestion by reason.
func (m *Metrics) ObserveError(reason string) {
	m.IngestErrors.WithLabelValues(reason).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
