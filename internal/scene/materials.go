package scene

import (
	"fmt"
	"math/rand"
	"sync"

	"ballpit/bridge/internal/ident"
)

const metallicAmount = 0.75

// PooledMaterial names one shared remote material: the slot that hosts it and
// the material component itself, referenced by id from many renderers. Never
// mutated after creation; removed only at teardown.
type PooledMaterial struct {
	SlotID     string
	MaterialID string
}

// Pool amortizes remote object creation by sharing a small fixed set of
// materials across every ball the builder emits. The slot list is drained
// from the shutdown path while the loop may still be running, so access is
// mutex-guarded.
type Pool struct {
	ids *ident.Allocator
	rng *rand.Rand

	mu        sync.Mutex
	materials []PooledMaterial
	drained   bool
}

// NewPool builds an empty pool drawing hues from rng.
func NewPool(ids *ident.Allocator, rng *rand.Rand) *Pool {
	return &Pool{ids: ids, rng: rng}
}

// CreateMaterial allocates one shared material and returns the operations
// that create it remotely: a hosting slot, then the material component. The
// hue is sampled uniformly and converted to an opaque full-value sRGB color.
func (p *Pool) CreateMaterial(useMetallic bool) ([]Operation, PooledMaterial) {
	slotID := p.ids.Allocate()
	materialID := p.ids.Allocate()

	hue := p.rng.Float64()
	metallic := 0.0
	if useMetallic {
		metallic = metallicAmount
	}

	p.mu.Lock()
	index := len(p.materials)
	material := PooledMaterial{SlotID: slotID, MaterialID: materialID}
	p.materials = append(p.materials, material)
	p.mu.Unlock()

	ops := []Operation{
		CreateSlot(slotID, StringField("name", fmt.Sprintf("material_%d", index))),
		CreateComponent(materialID, slotID, ComponentMaterial,
			ColorField("albedo", NewHueColor(hue)),
			FloatField("metallic", metallic),
		),
	}
	return ops, material
}

// PickRandom returns one pooled material, or false when the pool is empty and
// scene building should proceed without a material reference.
func (p *Pool) PickRandom() (PooledMaterial, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.materials) == 0 {
		return PooledMaterial{}, false
	}
	return p.materials[p.rng.Intn(len(p.materials))], true
}

// Count reports the number of pooled materials.
func (p *Pool) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.materials)
}

// DrainSlots destructively returns the slot id of every pooled material
// exactly once, for teardown removal. Later calls return nothing.
func (p *Pool) DrainSlots() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.drained || len(p.materials) == 0 {
		p.drained = true
		return nil
	}
	slots := make([]string, len(p.materials))
	for i, material := range p.materials {
		slots[i] = material.SlotID
	}
	p.materials = p.materials[:0]
	p.drained = true
	return slots
}
