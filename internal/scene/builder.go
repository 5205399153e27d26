package scene

import (
	"fmt"
	"math/rand"

	"ballpit/bridge/internal/ident"
	"ballpit/bridge/internal/physics"
	"ballpit/bridge/internal/world"
)

// StaticWorld is the slice of the physics collaborator the builder needs for
// local-only static geometry.
type StaticWorld interface {
	CreateStaticBody(shape physics.Box, pose physics.Pose) physics.Handle
}

// BallDescriptor carries everything the caller needs to instantiate the
// local dynamic body matching a built ball.
type BallDescriptor struct {
	SlotID   string
	Name     string
	Position world.Vec3
	Radius   float64
	Mass     float64
}

// Builder translates simulated object parameters into ordered remote-creation
// operations. Output is deterministic given inputs except for cosmetic fields
// (material choice, spring tuning) drawn from the seeded rng.
type Builder struct {
	ids     *ident.Allocator
	pool    *Pool
	statics StaticWorld
	rng     *rand.Rand
	density float64

	built int
}

// NewBuilder wires a builder to its identifier source, material pool, local
// static world, cosmetic rng, and the density constant used for mass
// derivation.
func NewBuilder(ids *ident.Allocator, pool *Pool, statics StaticWorld, rng *rand.Rand, density float64) *Builder {
	return &Builder{ids: ids, pool: pool, statics: statics, rng: rng, density: density}
}

// BuildBall emits the four operations that represent one ball remotely, in
// strict dependency order: the slot, its sphere mesh, its collider, and a
// renderer referencing the mesh and a pooled material. An empty pool omits
// the material reference and the remote side applies its default.
func (b *Builder) BuildBall(position world.Vec3, radius float64) ([]Operation, BallDescriptor) {
	name := fmt.Sprintf("ball_%d", b.built)
	b.built++

	slotID := b.ids.Allocate()
	meshID := b.ids.Allocate()
	colliderID := b.ids.Allocate()
	rendererID := b.ids.Allocate()

	mass := radius * b.density
	springFrequency := world.RandomRange(b.rng, 2, 8)
	springDamping := world.RandomRange(b.rng, 0.2, 0.8)

	rendererFields := []Field{RefField("mesh", meshID)}
	if material, ok := b.pool.PickRandom(); ok {
		rendererFields = append(rendererFields, RefListField("materials", material.MaterialID))
	}

	ops := []Operation{
		CreateSlot(slotID,
			StringField("name", name),
			VectorField(FieldNamePosition, position),
		),
		CreateComponent(meshID, slotID, ComponentSphereMesh,
			FloatField("radius", radius),
		),
		CreateComponent(colliderID, slotID, ComponentSphereCollider,
			FloatField("radius", radius),
			FloatField("mass", mass),
			BoolField("characterCollider", true),
			FloatField("springFrequency", springFrequency),
			FloatField("springDamping", springDamping),
		),
		CreateComponent(rendererID, slotID, ComponentMeshRenderer, rendererFields...),
	}

	descriptor := BallDescriptor{
		SlotID:   slotID,
		Name:     name,
		Position: position,
		Radius:   radius,
		Mass:     mass,
	}
	return ops, descriptor
}

// BuildStaticBox adds a static collidable to the local simulation only.
// Static geometry is already visualized by whatever exists remotely, so no
// operations are emitted.
func (b *Builder) BuildStaticBox(position world.Vec3, size world.Vec3, rotation world.Quat) physics.Handle {
	return b.statics.CreateStaticBody(
		physics.Box{Size: size},
		physics.Pose{Position: position, Rotation: rotation},
	)
}
