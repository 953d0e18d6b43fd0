package validity

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	validityPassesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hexfleet_validity_passes_total",
		Help: "Total validity passes by mode",
	}, []string{"mode"})

	validityPassDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hexfleet_validity_pass_duration_seconds",
		Help:    "Validity pass duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	})
)
