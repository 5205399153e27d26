// Package physics is the local simulation collaborator: a deliberately small
// rigid-body stepper sufficient to drive the bridge demo. The bridge core
// consumes it through narrow interfaces declared at each call site.
package physics

import "ballpit/bridge/internal/world"

// Handle names one body inside the engine. Handles are never reused.
type Handle uint64

// Sphere describes a dynamic ball collider.
type Sphere struct {
	Radius float64
}

// Box describes a static box collider by full extent per axis.
type Box struct {
	Size world.Vec3
}

// Pose is a position and orientation pair.
type Pose struct {
	Position world.Vec3
	Rotation world.Quat
}
