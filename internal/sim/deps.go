package sim

import (
	"time"

	"ballpit/bridge/internal/telemetry"
)

const (
	metricTicks            = "loop_ticks"
	metricUpdateOperations = "loop_update_operations"
	metricSubmitChunks     = "submit_chunks"
	metricSubmitOperations = "submit_operations"
	metricSubmitFailures   = "submit_failures"
	metricTeardownRemovals = "teardown_removals"
	metricTeardownFailures = "teardown_failures"
)

// Deps carries shared infrastructure dependencies required by the
// replication loop and its collaborators.
type Deps struct {
	Logger  telemetry.Logger
	Metrics telemetry.Metrics
	Clock   telemetry.Clock
	Sleep   func(time.Duration)
}

func (d Deps) normalized() Deps {
	if d.Clock == nil {
		d.Clock = telemetry.ClockFunc(time.Now)
	}
	if d.Sleep == nil {
		d.Sleep = time.Sleep
	}
	return d
}
