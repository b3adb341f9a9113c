package metrics

import (
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	r                 *prometheus.Registry
	Suggestions       *prometheus.CounterVec
	Classifications   *prometheus.CounterVec
	ClassifierLatency *prometheus.HistogramVec
}

func New() *Metrics {
	r := prometheus.NewRegistry()

	m := &Metrics{
		r: r,
		Suggestions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oncall_suggestions_total",
				Help: "count of on-call suggestions by zone and outcome",
			},
			[]string{"zone", "outcome"},
		),
		Classifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oncall_classifications_total",
				Help: "count of text classifier calls",
			},
			[]string{"kind", "outcome"},
		),
		ClassifierLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oncall_classifier_duration_seconds",
				Help:    "text classifier latency",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 8),
			},
			[]string{"kind"},
		),
	}

	r.MustRegister(m.Suggestions, m.Classifications, m.ClassifierLatency)
	r.MustRegister(collectors.NewGoCollector())

	return m
}

func (m *Metrics) Registry() prometheus.Registerer {
	return m.r
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.r, promhttp.HandlerOpts{
		ErrorLog:          log.New(os.Stderr, "prom http: ", log.LstdFlags),
		Registry:          m.r,
		EnableOpenMetrics: true,
	})
}
