package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus collectors.
//
// Collectors are created per Metrics value and registered on the registry
// passed to NewMetrics, so several engines can run in one process.
type Metrics struct {
	intervals       prometheus.Counter
	nodes           prometheus.Gauge
	edges           prometheus.Gauge
	removedKeywords prometheus.Counter
	iterations      prometheus.Histogram
	notConverged    prometheus.Counter
	duration        prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg.
// A nil registry leaves the collectors unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		intervals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dec",
			Name:      "intervals_processed_total",
			Help:      "Number of intervals processed by the engine.",
		}),
		nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dec",
			Name:      "graph_nodes",
			Help:      "Keyword nodes in the co-occurrence graph after the last interval.",
		}),
		edges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dec",
			Name:      "graph_edges",
			Help:      "Co-occurrence edges in the graph after the last interval.",
		}),
		removedKeywords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dec",
			Name:      "keywords_decayed_total",
			Help:      "Keywords removed from the graph by bucket decay.",
		}),
		iterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dec",
			Name:      "centrality_iterations",
			Help:      "Power iterations needed per interval.",
			Buckets:   []float64{5, 10, 20, 50, 100, 200, 300},
		}),
		notConverged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dec",
			Name:      "centrality_not_converged_total",
			Help:      "Intervals whose centrality computation did not converge.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dec",
			Name:      "interval_duration_seconds",
			Help:      "Wall time spent processing one interval.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.intervals, m.nodes, m.edges, m.removedKeywords,
			m.iterations, m.notConverged, m.duration,
		)
	}
	return m
}

func (m *Metrics) observe(result *IntervalResult, seconds float64) {
	if m == nil {
		return
	}
	m.intervals.Inc()
	m.nodes.Set(float64(result.Nodes))
	m.edges.Set(float64(result.Edges))
	m.removedKeywords.Add(float64(len(result.Removed)))
	if result.Converged {
		m.iterations.Observe(float64(result.Iterations))
	} else {
		m.notConverged.Inc()
	}
	m.duration.Observe(seconds)
}
