// Package metrics exposes conversion counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "invoicesheet"

// Metrics holds the collectors for one registry. Each instance owns its
// registry so tests can create as many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	Conversions *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
	Files       prometheus.Counter
	Pages       prometheus.Counter
	Tables      prometheus.Counter
	Suppressed  *prometheus.CounterVec
	RuleHits    *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		Conversions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversions_total",
			Help:      "Conversion requests by variant and outcome.",
		}, []string{"variant", "outcome"}),
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conversion_duration_seconds",
			Help:      "Time from upload to finished workbook.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"variant"}),
		Files: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "PDF files processed.",
		}),
		Pages: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_total",
			Help:      "PDF pages scanned for tables.",
		}),
		Tables: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tables_total",
			Help:      "Page tables found.",
		}),
		Suppressed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suppressed_total",
			Help:      "Rows and columns removed as sensitive.",
		}, []string{"axis"}),
		RuleHits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_hits_total",
			Help:      "Suppressions by the rule that triggered them.",
		}, []string{"rule"}),
	}
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
