// Package metrics exports the runtime's Prometheus collectors (spec.md
// §9's observability design note): pending completion counters, the
// configured tree shape, and per-collective call counts and latency,
// grounded on aistore's stats package convention of a handful of package-
// level prometheus.* vars registered once at process start.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	PendingPuts = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "goshmem",
		Name:      "pending_puts",
		Help:      "Puts and atomics issued by this PE not yet observed complete.",
	})
	PendingGets = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "goshmem",
		Name:      "pending_gets",
		Help:      "Gets, fetch-atomics, and swaps issued by this PE not yet observed complete.",
	})
	TreeRadix = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "goshmem",
		Name:      "tree_radix",
		Help:      "Configured branching factor of the collectives tree.",
	})
	TreeCrossover = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "goshmem",
		Name:      "tree_crossover",
		Help:      "PE count below which collectives use the flat algorithm.",
	})

	CollectiveCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "goshmem",
		Name:      "collective_calls_total",
		Help:      "Collective invocations by kind.",
	}, []string{"kind"})

	CollectiveLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "goshmem",
		Name:      "collective_latency_seconds",
		Help:      "Wall-clock latency of collective calls by kind.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind"})
)

// Register adds every collector above to reg. Call once at process
// start; a nil reg is a no-op, matching the "metrics are optional"
// posture of spec.md §9.
func Register(reg prometheus.Registerer) {
	if reg == nil {
		return
	}
	reg.MustRegister(PendingPuts, PendingGets, TreeRadix, TreeCrossover, CollectiveCalls, CollectiveLatency)
}

// ObserveCollective records one call of the named collective, timing the
// work done in fn.
func ObserveCollective(kind string, fn func() error) error {
	start := time.Now()
	err := fn()
	CollectiveCalls.WithLabelValues(kind).Inc()
	CollectiveLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	return err
}
