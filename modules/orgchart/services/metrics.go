package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	orgchartAssignmentChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orgchart",
		Subsystem: "assignment",
		Name:      "checks_total",
		Help:      "Total number of manager assignment checks broken down by outcome.",
	}, []string{"op", "result"})

	orgchartInconsistencies = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orgchart",
		Subsystem: "structure",
		Name:      "inconsistencies_total",
		Help:      "Total number of structural inconsistencies detected broken down by kind.",
	}, []string{"kind"})

	orgchartCacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orgchart",
		Subsystem: "cache",
		Name:      "requests_total",
		Help:      "Total number of snapshot cache lookups broken down by hit/miss.",
	}, []string{"result"})

	orgchartCacheInvalidate = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orgchart",
		Subsystem: "cache",
		Name:      "invalidate_total",
		Help:      "Total number of snapshot cache invalidations broken down by reason.",
	}, []string{"reason"})

	orgchartWriteConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orgchart",
		Subsystem: "write",
		Name:      "conflicts_total",
		Help:      "Total number of write conflicts broken down by kind.",
	}, []string{"kind"})

	orgchartSnapshotSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "orgchart",
		Subsystem: "snapshot",
		Name:      "employees",
		Help:      "Number of employees in the most recently loaded snapshot.",
	})
)

func recordAssignmentCheck(op string, valid bool) {
	result := "rejected"
	if valid {
		result = "accepted"
	}
	orgchartAssignmentChecks.WithLabelValues(op, result).Inc()
}

func recordInconsistency(kind string) {
	if kind == "" {
		kind = "other"
	}
	orgchartInconsistencies.WithLabelValues(kind).Inc()
}

func recordCacheRequest(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	orgchartCacheRequests.WithLabelValues(result).Inc()
}

func recordCacheInvalidate(reason string) {
	if reason == "" {
		reason = "manual"
	}
	orgchartCacheInvalidate.WithLabelValues(reason).Inc()
}

func recordWriteConflict(kind string) {
	if kind == "" {
		kind = "other"
	}
	orgchartWriteConflicts.WithLabelValues(kind).Inc()
}
