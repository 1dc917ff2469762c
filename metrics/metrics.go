// Package metrics registers the Prometheus instrumentation for the
// leave engine. Registration is idempotent; the counters are no-ops
// until Register is called.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	leaveSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leave_engine",
			Name:      "leave_submitted_total",
			Help:      "Count of leave submissions by category.",
		},
		[]string{"category"},
	)

	leaveDecision = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leave_engine",
			Name:      "leave_decision_total",
			Help:      "Count of administrative decisions by outcome.",
		},
		[]string{"decision"},
	)

	calcFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "leave_engine",
			Name:      "calc_validation_failures_total",
			Help:      "Count of hour calculations rejected by validation.",
		},
	)

	storeFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "leave_engine",
			Name:      "store_failures_total",
			Help:      "Count of storage-level failures surfaced to callers.",
		},
	)
)

// Register registers the collectors (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(leaveSubmitted, leaveDecision, calcFailures, storeFailures)
	})
}

func IncLeaveSubmitted(category string) {
	leaveSubmitted.WithLabelValues(category).Inc()
}

func IncLeaveDecision(decision string) {
	leaveDecision.WithLabelValues(decision).Inc()
}

func IncCalcFailure() {
	calcFailures.Inc()
}

func IncStoreFailure() {
	storeFailures.Inc()
}
