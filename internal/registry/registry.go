// Package registry tracks the mapping between local simulated bodies and
// their remote slot identifiers, plus the last state replicated for each.
package registry

import (
	"sync"

	"ballpit/bridge/internal/physics"
	"ballpit/bridge/internal/telemetry"
	"ballpit/bridge/internal/world"
)

const metricRejectedAfterDrain = "registry_rejected_after_drain"

// TrackedBody pairs a local body handle with its remote slot and the pose
// last written to the remote side. Owned exclusively by the registry; callers
// receive copies.
type TrackedBody struct {
	Handle       physics.Handle
	SlotID       string
	LastPosition world.Vec3
	LastRotation world.Quat
}

// Registry is append-only during the run and destructively drained exactly
// once at teardown. Registration and draining may race during shutdown, so
// every access is mutex-guarded and reads return copies.
type Registry struct {
	mu       sync.Mutex
	bodies   []TrackedBody
	index    map[string]int
	drained  bool
	rejected uint64
	metrics  telemetry.Metrics
}

// New builds an empty registry. Metrics may be nil.
func New(metrics telemetry.Metrics) *Registry {
	return &Registry{index: make(map[string]int), metrics: metrics}
}

// Register tracks a newly created body. It reports false once the registry
// has been drained: a body registered after teardown began would never be
// removed remotely, so it is refused and counted instead.
func (r *Registry) Register(handle physics.Handle, slotID string, position world.Vec3, rotation world.Quat) bool {
	r.mu.Lock()
	if r.drained {
		r.rejected++
		r.mu.Unlock()
		if r.metrics != nil {
			r.metrics.Add(metricRejectedAfterDrain, 1)
		}
		return false
	}
	r.index[slotID] = len(r.bodies)
	r.bodies = append(r.bodies, TrackedBody{
		Handle:       handle,
		SlotID:       slotID,
		LastPosition: position,
		LastRotation: rotation,
	})
	r.mu.Unlock()
	return true
}

// Tracked returns a copy of every tracked body.
func (r *Registry) Tracked() []TrackedBody {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.bodies) == 0 {
		return nil
	}
	tracked := make([]TrackedBody, len(r.bodies))
	copy(tracked, r.bodies)
	return tracked
}

// CommitPose records the pose just replicated for slotID so the next diff
// compares against it. It reports false for unknown or drained slots.
func (r *Registry) CommitPose(slotID string, position world.Vec3, rotation world.Quat) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	at, ok := r.index[slotID]
	if !ok || at >= len(r.bodies) {
		return false
	}
	r.bodies[at].LastPosition = position
	r.bodies[at].LastRotation = rotation
	return true
}

// DrainAll destructively returns the slot id of every tracked body exactly
// once and closes the registry to further registration. A second drain
// returns nothing.
func (r *Registry) DrainAll() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drained = true
	if len(r.bodies) == 0 {
		return nil
	}
	slots := make([]string, len(r.bodies))
	for i, body := range r.bodies {
		slots[i] = body.SlotID
	}
	r.bodies = r.bodies[:0]
	r.index = make(map[string]int)
	return slots
}

// Len reports the number of tracked bodies.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bodies)
}

// Rejected reports how many registrations arrived after the drain.
func (r *Registry) Rejected() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rejected
}
