package sim

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"ballpit/bridge/internal/physics"
	"ballpit/bridge/internal/registry"
	"ballpit/bridge/internal/scene"
	"ballpit/bridge/internal/world"
)

// Phase names the stage the replication loop is currently executing.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseStepping
	PhaseDiffing
	PhaseSubmitting
)

func (p Phase) String() string {
	switch p {
	case PhaseStepping:
		return "stepping"
	case PhaseDiffing:
		return "diffing"
	case PhaseSubmitting:
		return "submitting"
	default:
		return "idle"
	}
}

// World is the physics surface consumed by the loop.
type World interface {
	Step(dt float64, workers int)
	GetPose(handle physics.Handle) (world.Vec3, world.Quat)
	IsAwake(handle physics.Handle) bool
}

// LoopConfig tunes replication pacing.
type LoopConfig struct {
	TargetFrameMillis int
	MinStepMillis     int
	Workers           int
}

func (c LoopConfig) normalized() LoopConfig {
	if c.TargetFrameMillis < 1 {
		c.TargetFrameMillis = 16
	}
	if c.MinStepMillis < 1 {
		c.MinStepMillis = 8
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	return c
}

// LoopHooks lets callers observe tick completion.
type LoopHooks struct {
	AfterTick func(TickResult)
}

// TickResult summarises one completed tick.
type TickResult struct {
	Tick     uint64
	Elapsed  time.Duration
	Clamped  bool
	Updates  int
	Duration time.Duration
}

// Loop replicates simulated poses into the remote scene, one
// step/diff/submit cycle per tick.
type Loop struct {
	world    World
	registry *registry.Registry
	batcher  *Batcher
	config   LoopConfig
	hooks    LoopHooks
	deps     Deps

	lastTick time.Time
	tick     atomic.Uint64
	phase    atomic.Int32
}

// NewLoop wires the loop to its physics world, registry and transport
// batcher.
func NewLoop(world World, reg *registry.Registry, batcher *Batcher, cfg LoopConfig, hooks LoopHooks, deps Deps) *Loop {
	if world == nil || reg == nil || batcher == nil {
		return nil
	}
	return &Loop{
		world:    world,
		registry: reg,
		batcher:  batcher,
		config:   cfg.normalized(),
		hooks:    hooks,
		deps:     deps.normalized(),
	}
}

// Phase reports the stage currently executing.
func (l *Loop) Phase() Phase {
	if l == nil {
		return PhaseIdle
	}
	return Phase(l.phase.Load())
}

// Ticks reports the number of completed ticks.
func (l *Loop) Ticks() uint64 {
	if l == nil {
		return 0
	}
	return l.tick.Load()
}

// Run drives ticks until ctx is cancelled. Cancellation is observed at the
// tick boundary only: the in-progress tick, including its submission, always
// completes first.
func (l *Loop) Run(ctx context.Context) error {
	if l == nil {
		return nil
	}
	target := time.Duration(l.config.TargetFrameMillis) * time.Millisecond
	for {
		select {
		case <-ctx.Done():
			l.phase.Store(int32(PhaseIdle))
			return ctx.Err()
		default:
		}

		result, err := l.RunTick(ctx)
		if err != nil {
			return err
		}
		if l.hooks.AfterTick != nil {
			l.hooks.AfterTick(result)
		}
		if pause := target - result.Elapsed; pause > 0 {
			l.deps.Sleep(pause)
		}
	}
}

// RunTick executes one step/diff/submit cycle. The physics step advances by
// measured wall-clock time clamped from below; there is no upper clamp, a
// stalled frame is simulated at its real duration.
func (l *Loop) RunTick(ctx context.Context) (TickResult, error) {
	if l == nil {
		return TickResult{}, nil
	}
	now := l.deps.Clock.Now()
	minStep := time.Duration(l.config.MinStepMillis) * time.Millisecond
	elapsed := minStep
	clamped := true
	if !l.lastTick.IsZero() {
		if measured := now.Sub(l.lastTick); measured > minStep {
			elapsed = measured
			clamped = false
		}
	}
	l.lastTick = now

	l.phase.Store(int32(PhaseStepping))
	l.world.Step(elapsed.Seconds(), l.config.Workers)

	l.phase.Store(int32(PhaseDiffing))
	updates := l.collectUpdates()

	l.phase.Store(int32(PhaseSubmitting))
	err := l.batcher.Submit(ctx, updates)
	l.phase.Store(int32(PhaseIdle))

	tick := l.tick.Add(1)
	result := TickResult{
		Tick:     tick,
		Elapsed:  elapsed,
		Clamped:  clamped,
		Updates:  len(updates),
		Duration: l.deps.Clock.Now().Sub(now),
	}
	if err != nil {
		return result, fmt.Errorf("tick %d: %w", tick, err)
	}
	if l.deps.Metrics != nil {
		l.deps.Metrics.Add(metricTicks, 1)
		if len(updates) > 0 {
			l.deps.Metrics.Add(metricUpdateOperations, uint64(len(updates)))
		}
	}
	return result, nil
}

// collectUpdates emits one UpdateSlot per awake body whose pose changed
// since the last replicated value. Sleeping bodies and bit-identical poses
// produce nothing. Last-known poses commit as soon as the operation is
// produced.
func (l *Loop) collectUpdates() []scene.Operation {
	var updates []scene.Operation
	for _, body := range l.registry.Tracked() {
		if !l.world.IsAwake(body.Handle) {
			continue
		}
		position, rotation := l.world.GetPose(body.Handle)
		if position == body.LastPosition && rotation == body.LastRotation {
			continue
		}
		updates = append(updates, scene.UpdateSlot(body.SlotID,
			scene.VectorField(scene.FieldNamePosition, position),
			scene.QuaternionField(scene.FieldNameRotation, rotation),
		))
		l.registry.CommitPose(body.SlotID, position, rotation)
	}
	return updates
}

// Ensure the demo engine satisfies the loop's world surface.
var _ World = (*physics.Engine)(nil)
