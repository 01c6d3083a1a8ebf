package aggregator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	treesSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "treeprof",
		Subsystem: "aggregator",
		Name:      "trees_submitted_total",
		Help:      "Number of recorded trees submitted to the aggregation manager.",
	})

	unterminatedCalls = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "treeprof",
		Subsystem: "aggregator",
		Name:      "unterminated_calls_total",
		Help:      "Number of submitted calls missing a stop timestamp; their duration is counted as zero.",
	})
)
