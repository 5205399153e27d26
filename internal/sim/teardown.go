package sim

import (
	"context"
	"sync"

	"ballpit/bridge/internal/registry"
	"ballpit/bridge/internal/scene"
	"ballpit/bridge/internal/telemetry"
)

// Teardown removes every slot the bridge created, exactly once, on any exit
// path. Submission failures are logged and swallowed.
type Teardown struct {
	once     sync.Once
	registry *registry.Registry
	pool     *scene.Pool
	batcher  *Batcher
	logger   telemetry.Logger
	metrics  telemetry.Metrics
}

// NewTeardown builds the sequencer over the registry, material pool and
// transport batcher.
func NewTeardown(reg *registry.Registry, pool *scene.Pool, batcher *Batcher, logger telemetry.Logger, metrics telemetry.Metrics) *Teardown {
	if batcher == nil {
		return nil
	}
	return &Teardown{
		registry: reg,
		pool:     pool,
		batcher:  batcher,
		logger:   logger,
		metrics:  metrics,
	}
}

// Run drains tracked bodies and pooled materials and submits one RemoveSlot
// per drained identifier as a single batched call. Repeat calls are no-ops.
func (t *Teardown) Run(ctx context.Context) {
	if t == nil {
		return
	}
	t.once.Do(func() { t.drainAndRemove(ctx) })
}

func (t *Teardown) drainAndRemove(ctx context.Context) {
	var slots []string
	if t.registry != nil {
		slots = append(slots, t.registry.DrainAll()...)
	}
	if t.pool != nil {
		slots = append(slots, t.pool.DrainSlots()...)
	}
	if len(slots) == 0 {
		return
	}

	operations := make([]scene.Operation, 0, len(slots))
	for _, id := range slots {
		operations = append(operations, scene.RemoveSlot(id))
	}
	if err := t.batcher.Submit(ctx, operations); err != nil {
		if t.metrics != nil {
			t.metrics.Add(metricTeardownFailures, 1)
		}
		if t.logger != nil {
			t.logger.Printf("[teardown] remote cleanup failed: %v", err)
		}
		return
	}
	if t.metrics != nil {
		t.metrics.Add(metricTeardownRemovals, uint64(len(slots)))
	}
	if t.logger != nil {
		t.logger.Printf("[teardown] removed %d slots", len(slots))
	}
}
