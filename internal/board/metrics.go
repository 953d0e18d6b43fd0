package board

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// topologyBuildsTotal counts topology builds by result
	topologyBuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hexfleet_topology_builds_total",
		Help: "Total topology builds by result",
	}, []string{"result"})

	// topologyBuildDuration tracks successful build latency
	topologyBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hexfleet_topology_build_duration_seconds",
		Help:    "Topology build duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	})
)
