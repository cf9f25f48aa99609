package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Stats struct {
	PatchesApplied         prometheus.Counter
	Saves                  *prometheus.CounterVec
	ValidationRounds       *prometheus.CounterVec
	ValidationStaleDropped prometheus.Counter
	DriftTicks             prometheus.Counter
	DriftSkipped           prometheus.Counter
	DriftAdopted           prometheus.Counter
	DriftConflicts         prometheus.Counter
}

// NewStats builds the engine metric set. A nil registerer leaves the metrics
// unregistered, which tests rely on.
func NewStats(reg prometheus.Registerer) *Stats {
	factory := promauto.With(reg)

	return &Stats{
		PatchesApplied: factory.NewCounter(prometheus.CounterOpts{
			Name: "confd_patches_applied_total",
			Help: "Section patches applied to the draft",
		}),
		Saves: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "confd_saves_total",
			Help: "Save attempts by result",
		}, []string{"result"}),
		ValidationRounds: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "confd_validation_rounds_total",
			Help: "Completed validation rounds by result",
		}, []string{"result"}),
		ValidationStaleDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "confd_validation_stale_dropped_total",
			Help: "Validation results discarded for being stale",
		}),
		DriftTicks: factory.NewCounter(prometheus.CounterOpts{
			Name: "confd_drift_ticks_total",
			Help: "Drift poll ticks fired",
		}),
		DriftSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "confd_drift_skipped_total",
			Help: "Drift ticks skipped because a poll was in flight",
		}),
		DriftAdopted: factory.NewCounter(prometheus.CounterOpts{
			Name: "confd_drift_adopted_total",
			Help: "External documents adopted by the drift monitor",
		}),
		DriftConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "confd_drift_conflicts_total",
			Help: "Drift conflicts raised while the draft was dirty",
		}),
	}
}
