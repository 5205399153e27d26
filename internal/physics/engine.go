package physics

import (
	"math"
	"sync"

	"ballpit/bridge/internal/world"
)

const pairIterations = 4

// Config tunes the demo engine.
type Config struct {
	Gravity       world.Vec3
	LinearDamping float64
	Restitution   float64
	SleepVelocity float64
	SleepTicks    int
}

// DefaultConfig returns the tuning used by the demo scene.
func DefaultConfig() Config {
	return Config{
		Gravity:       world.Vec3{Y: -9.81},
		LinearDamping: 0.1,
		Restitution:   0.3,
		SleepVelocity: 0.12,
		SleepTicks:    20,
	}
}

func (c Config) normalized() Config {
	if c.LinearDamping < 0 {
		c.LinearDamping = 0
	}
	if c.Restitution < 0 {
		c.Restitution = 0
	}
	if c.SleepVelocity < 0 {
		c.SleepVelocity = 0
	}
	if c.SleepTicks < 1 {
		c.SleepTicks = 1
	}
	return c
}

type dynamicBody struct {
	handle    Handle
	radius    float64
	mass      float64
	position  world.Vec3
	velocity  world.Vec3
	asleep    bool
	slowTicks int
}

type staticBody struct {
	handle Handle
	box    Box
	pose   Pose
}

// Engine steps spheres under gravity against static boxes. The bridge drives
// it from a single goroutine; Step fans its per-body phase out across the
// requested worker count internally.
type Engine struct {
	cfg        Config
	nextHandle Handle
	dynamics   []*dynamicBody
	byHandle   map[Handle]*dynamicBody
	statics    []staticBody
	staticByID map[Handle]int
}

// NewEngine builds an empty engine.
func NewEngine(cfg Config) *Engine {
	return &Engine{
		cfg:        cfg.normalized(),
		byHandle:   make(map[Handle]*dynamicBody),
		staticByID: make(map[Handle]int),
	}
}

// CreateDynamicBody adds an awake sphere at the given pose. Inertia follows
// from shape and mass; the caller derives mass from its density rule.
func (e *Engine) CreateDynamicBody(shape Sphere, mass float64, pose Pose) Handle {
	if mass <= 0 {
		mass = 1
	}
	e.nextHandle++
	body := &dynamicBody{
		handle:   e.nextHandle,
		radius:   shape.Radius,
		mass:     mass,
		position: pose.Position,
	}
	e.dynamics = append(e.dynamics, body)
	e.byHandle[body.handle] = body
	return body.handle
}

// CreateStaticBody adds an immovable box collider.
func (e *Engine) CreateStaticBody(shape Box, pose Pose) Handle {
	e.nextHandle++
	e.statics = append(e.statics, staticBody{handle: e.nextHandle, box: shape, pose: pose})
	e.staticByID[e.nextHandle] = len(e.statics) - 1
	return e.nextHandle
}

// Step advances the simulation by dt seconds. The per-body phase (gravity,
// integration, static contacts, sleep bookkeeping) is body-local and runs
// across workers goroutines; pair separation runs sequentially afterwards.
func (e *Engine) Step(dt float64, workers int) {
	if dt <= 0 || len(e.dynamics) == 0 {
		return
	}
	if workers < 1 {
		workers = 1
	}

	if workers == 1 {
		for _, body := range e.dynamics {
			e.stepBody(body, dt)
		}
	} else {
		chunk := (len(e.dynamics) + workers - 1) / workers
		var wg sync.WaitGroup
		for start := 0; start < len(e.dynamics); start += chunk {
			end := start + chunk
			if end > len(e.dynamics) {
				end = len(e.dynamics)
			}
			wg.Add(1)
			go func(bodies []*dynamicBody) {
				defer wg.Done()
				for _, body := range bodies {
					e.stepBody(body, dt)
				}
			}(e.dynamics[start:end])
		}
		wg.Wait()
	}

	e.resolvePairs()
}

// GetPose returns the current pose for a body handle. Spheres carry no spin,
// so dynamic orientations stay identity.
func (e *Engine) GetPose(handle Handle) (world.Vec3, world.Quat) {
	if body, ok := e.byHandle[handle]; ok {
		return body.position, world.Identity()
	}
	if at, ok := e.staticByID[handle]; ok {
		pose := e.statics[at].pose
		return pose.Position, pose.Rotation
	}
	return world.Vec3{}, world.Identity()
}

// IsAwake reports whether the body is currently being integrated. Static and
// unknown handles are never awake.
func (e *Engine) IsAwake(handle Handle) bool {
	body, ok := e.byHandle[handle]
	return ok && !body.asleep
}

// BodyCount reports the number of dynamic bodies.
func (e *Engine) BodyCount() int {
	return len(e.dynamics)
}

// StaticCount reports the number of static colliders.
func (e *Engine) StaticCount() int {
	return len(e.statics)
}

func (e *Engine) stepBody(body *dynamicBody, dt float64) {
	if body.asleep {
		return
	}

	body.velocity = body.velocity.Add(e.cfg.Gravity.Scale(dt))
	if e.cfg.LinearDamping > 0 {
		factor := 1 - e.cfg.LinearDamping*dt
		if factor < 0 {
			factor = 0
		}
		body.velocity = body.velocity.Scale(factor)
	}
	body.position = body.position.Add(body.velocity.Scale(dt))

	for i := range e.statics {
		e.collideWithStatic(body, &e.statics[i])
	}

	if body.velocity.Length() < e.cfg.SleepVelocity {
		body.slowTicks++
		if body.slowTicks >= e.cfg.SleepTicks {
			body.asleep = true
			body.velocity = world.Vec3{}
		}
	} else {
		body.slowTicks = 0
	}
}

// collideWithStatic resolves sphere-vs-box penetration in the box's local
// frame, then reflects the inbound velocity component off the contact
// normal.
func (e *Engine) collideWithStatic(body *dynamicBody, static *staticBody) {
	half := static.box.Size.Scale(0.5)
	inverse := static.pose.Rotation.Conjugate()
	local := inverse.Rotate(body.position.Sub(static.pose.Position))

	closest := world.Vec3{
		X: world.Clamp(local.X, -half.X, half.X),
		Y: world.Clamp(local.Y, -half.Y, half.Y),
		Z: world.Clamp(local.Z, -half.Z, half.Z),
	}
	delta := local.Sub(closest)
	distSq := delta.LengthSq()
	if distSq >= body.radius*body.radius {
		return
	}

	var normalLocal world.Vec3
	if distSq > 0 {
		dist := math.Sqrt(distSq)
		normalLocal = delta.Scale(1 / dist)
		local = closest.Add(normalLocal.Scale(body.radius))
	} else {
		// Center inside the box: exit through the nearest face.
		left := half.X + local.X
		right := half.X - local.X
		down := half.Y + local.Y
		up := half.Y - local.Y
		back := half.Z + local.Z
		front := half.Z - local.Z

		min := left
		normalLocal = world.Vec3{X: -1}
		if right < min {
			min = right
			normalLocal = world.Vec3{X: 1}
		}
		if down < min {
			min = down
			normalLocal = world.Vec3{Y: -1}
		}
		if up < min {
			min = up
			normalLocal = world.Vec3{Y: 1}
		}
		if back < min {
			min = back
			normalLocal = world.Vec3{Z: -1}
		}
		if front < min {
			normalLocal = world.Vec3{Z: 1}
		}
		switch {
		case normalLocal.X != 0:
			local.X = normalLocal.X * (half.X + body.radius)
		case normalLocal.Y != 0:
			local.Y = normalLocal.Y * (half.Y + body.radius)
		default:
			local.Z = normalLocal.Z * (half.Z + body.radius)
		}
	}

	body.position = static.pose.Position.Add(static.pose.Rotation.Rotate(local))
	normal := static.pose.Rotation.Rotate(normalLocal)
	speedIntoFace := body.velocity.Dot(normal)
	if speedIntoFace < 0 {
		body.velocity = body.velocity.Sub(normal.Scale((1 + e.cfg.Restitution) * speedIntoFace))
	}
}

// resolvePairs separates overlapping spheres and exchanges normal impulses.
// Contact wakes sleeping bodies.
func (e *Engine) resolvePairs() {
	if len(e.dynamics) < 2 {
		return
	}
	for iter := 0; iter < pairIterations; iter++ {
		adjusted := false
		for i := 0; i < len(e.dynamics); i++ {
			for j := i + 1; j < len(e.dynamics); j++ {
				a := e.dynamics[i]
				b := e.dynamics[j]
				if a.asleep && b.asleep {
					continue
				}

				offset := b.position.Sub(a.position)
				distSq := offset.LengthSq()
				minDist := a.radius + b.radius
				if distSq >= minDist*minDist {
					continue
				}

				var dist float64
				if distSq == 0 {
					offset = world.Vec3{X: 1}
					dist = 1
				} else {
					dist = math.Sqrt(distSq)
				}
				normal := offset.Scale(1 / dist)
				overlap := (minDist - dist) / 2

				a.position = a.position.Sub(normal.Scale(overlap))
				b.position = b.position.Add(normal.Scale(overlap))
				e.wake(a)
				e.wake(b)

				approach := b.velocity.Sub(a.velocity).Dot(normal)
				if approach < 0 {
					impulse := -(1 + e.cfg.Restitution) * approach / (1/a.mass + 1/b.mass)
					a.velocity = a.velocity.Sub(normal.Scale(impulse / a.mass))
					b.velocity = b.velocity.Add(normal.Scale(impulse / b.mass))
				}
				adjusted = true
			}
		}
		if !adjusted {
			break
		}
	}
}

func (e *Engine) wake(body *dynamicBody) {
	body.asleep = false
	body.slowTicks = 0
}
