package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/totegamma/kycgraph/internal/domain"
)

// Metrics tracks edge writes, optimistic-concurrency conflicts and query
// latency of the relationship layer.
type Metrics struct {
	EdgesCreated  *prometheus.CounterVec
	Conflicts     *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
}

// New registers the collectors with reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EdgesCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kycgraph_edges_created_total",
			Help: "Total number of relationship and association rows created",
		}, []string{"kind"}),
		Conflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kycgraph_edge_conflicts_total",
			Help: "Writes rejected as duplicate or concurrently modified",
		}, []string{"kind"}),
		QueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kycgraph_query_duration_seconds",
			Help:    "Duration of filtered queries and ownership aggregates",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"query"}),
	}
}

func (m *Metrics) EdgeCreated(kind domain.EdgeKind) {
	m.EdgesCreated.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) Conflict(kind domain.EdgeKind) {
	m.Conflicts.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) ObserveQuery(name string, elapsed time.Duration) {
	m.QueryDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}
