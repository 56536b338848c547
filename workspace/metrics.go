package workspace

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Fetch results recorded by the fetch counter.
const (
	resultOK     = "ok"
	resultError  = "error"
	resultCached = "cached"
)

// metrics tracks resource loading.
//
// Metrics:
//   - apigraph_workspace_fetches_total: resource fetches by result
//   - apigraph_workspace_fetch_duration_seconds: time spent opening, reading
//     and parsing a resource
//   - apigraph_workspace_documents: resources currently registered
//
// A nil *metrics records nothing.
type metrics struct {
	fetches   *prometheus.CounterVec
	duration  prometheus.Histogram
	documents prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		return nil
	}
	m := &metrics{
		fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "apigraph",
				Subsystem: "workspace",
				Name:      "fetches_total",
				Help:      "Total number of resource fetches by result",
			},
			[]string{"result"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "apigraph",
				Subsystem: "workspace",
				Name:      "fetch_duration_seconds",
				Help:      "Time spent loading and parsing a resource",
				Buckets:   prometheus.DefBuckets,
			},
		),
		documents: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "apigraph",
				Subsystem: "workspace",
				Name:      "documents",
				Help:      "Number of resources registered in the workspace",
			},
		),
	}
	reg.MustRegister(m.fetches, m.duration, m.documents)
	return m
}

func (m *metrics) recordFetch(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(result).Inc()
	if result != resultCached {
		m.duration.Observe(elapsed.Seconds())
	}
}

func (m *metrics) setDocuments(n int) {
	if m == nil {
		return
	}
	m.documents.Set(float64(n))
}
