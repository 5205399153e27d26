package scene

import (
	"math"
	"testing"

	"ballpit/bridge/internal/ident"
	"ballpit/bridge/internal/world"
)

func newTestPool(t *testing.T, size int) *Pool {
	t.Helper()
	ids := ident.NewAllocator("bridge", "S")
	pool := NewPool(ids, world.NewDeterministicRNG("test", "materials"))
	for i := 0; i < size; i++ {
		ops, material := pool.CreateMaterial(i%2 == 0)
		if err := ValidateOrdering(ops, nil); err != nil {
			t.Fatalf("expected material ops in dependency order, got %v", err)
		}
		if len(ops) != 2 {
			t.Fatalf("expected slot and component per material, got %d ops", len(ops))
		}
		if material.SlotID == "" || material.MaterialID == "" {
			t.Fatalf("expected populated identifiers, got %+v", material)
		}
	}
	return pool
}

func TestPoolFixedSize(t *testing.T) {
	pool := newTestPool(t, 4)
	if got := pool.Count(); got != 4 {
		t.Fatalf("expected 4 pooled materials, got %d", got)
	}
}

func TestPickRandomEmptyPool(t *testing.T) {
	pool := newTestPool(t, 0)
	if _, ok := pool.PickRandom(); ok {
		t.Fatalf("expected empty pool to report no material")
	}
}

func TestPickRandomReturnsMember(t *testing.T) {
	pool := newTestPool(t, 4)
	members := make(map[string]struct{})
	pool.mu.Lock()
	for _, material := range pool.materials {
		members[material.MaterialID] = struct{}{}
	}
	pool.mu.Unlock()

	for i := 0; i < 16; i++ {
		material, ok := pool.PickRandom()
		if !ok {
			t.Fatalf("expected material from non-empty pool")
		}
		if _, known := members[material.MaterialID]; !known {
			t.Fatalf("expected pooled material, got %q", material.MaterialID)
		}
	}
}

func TestDrainSlotsExactlyOnce(t *testing.T) {
	pool := newTestPool(t, 4)
	first := pool.DrainSlots()
	if len(first) != 4 {
		t.Fatalf("expected 4 drained slots, got %d", len(first))
	}
	seen := make(map[string]struct{}, len(first))
	for _, slot := range first {
		if _, dup := seen[slot]; dup {
			t.Fatalf("expected unique drained slots, got duplicate %q", slot)
		}
		seen[slot] = struct{}{}
	}
	if second := pool.DrainSlots(); len(second) != 0 {
		t.Fatalf("expected second drain to return nothing, got %d", len(second))
	}
}

func TestHueColorContract(t *testing.T) {
	red := NewHueColor(0)
	if red.R != 1 || red.G != 0 || red.B != 0 {
		t.Fatalf("expected hue 0 to be pure red, got %+v", red)
	}
	if red.A != 1 {
		t.Fatalf("expected opaque alpha, got %v", red.A)
	}
	if red.Profile != ColorProfileSRGB {
		t.Fatalf("expected sRGB profile, got %q", red.Profile)
	}

	// Full value and saturation: the strongest channel is always 1.
	for _, hue := range []float64{0.1, 0.35, 0.52, 0.78, 0.94} {
		color := NewHueColor(hue)
		strongest := math.Max(color.R, math.Max(color.G, color.B))
		if math.Abs(strongest-1) > 1e-12 {
			t.Fatalf("expected strongest channel 1 for hue %v, got %v", hue, strongest)
		}
	}
}
