package server

import (
	"net/http"
	"time"

	"github.com/KaramelBytes/plmview-cli/internal/plm"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Upload outcomes.
const (
	outcomeSuccess     = "success"
	outcomeLoadFailure = "load_failure"
	outcomeRejected    = "rejected"
)

// metrics lives on a private registry so several servers can coexist in one process.
type metrics struct {
	registry *prometheus.Registry
	uploads  *prometheus.CounterVec
	duration prometheus.Histogram
	rows     *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plmview",
			Name:      "uploads_total",
			Help:      "Uploaded workbooks by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "plmview",
			Name:      "upload_duration_seconds",
			Help:      "Time spent loading and summarising an uploaded workbook.",
			Buckets:   prometheus.DefBuckets,
		}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plmview",
			Name:      "rows_classified_total",
			Help:      "Rows assigned to each category across successful uploads.",
		}, []string{"category"}),
	}
	for _, o := range []string{outcomeSuccess, outcomeLoadFailure, outcomeRejected} {
		m.uploads.WithLabelValues(o)
	}
	m.registry.MustRegister(
		m.uploads,
		m.duration,
		m.rows,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *metrics) upload(outcome string) { m.uploads.WithLabelValues(outcome).Inc() }

func (m *metrics) observe(d time.Duration) { m.duration.Observe(d.Seconds()) }

func (m *metrics) classified(s plm.Summary) {
	for _, c := range plm.Categories {
		m.rows.WithLabelValues(string(c)).Add(float64(s.Sizes[c]))
	}
}
