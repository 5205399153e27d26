package registry

import (
	"fmt"
	"sync"
	"testing"

	"ballpit/bridge/internal/physics"
	"ballpit/bridge/internal/world"
)

func TestRegisterAndTrackedCopies(t *testing.T) {
	reg := New(nil)
	if !reg.Register(1, "slot_a", world.Vec3{Y: 5}, world.Identity()) {
		t.Fatalf("expected registration to succeed")
	}

	tracked := reg.Tracked()
	if len(tracked) != 1 {
		t.Fatalf("expected 1 tracked body, got %d", len(tracked))
	}
	tracked[0].SlotID = "mutated"

	again := reg.Tracked()
	if again[0].SlotID != "slot_a" {
		t.Fatalf("expected registry to be isolated from caller mutation, got %q", again[0].SlotID)
	}
}

func TestCommitPoseUpdatesLastKnown(t *testing.T) {
	reg := New(nil)
	reg.Register(1, "slot_a", world.Vec3{Y: 5}, world.Identity())

	next := world.Vec3{X: 1, Y: 4.2}
	if !reg.CommitPose("slot_a", next, world.Identity()) {
		t.Fatalf("expected commit for tracked slot")
	}
	if got := reg.Tracked()[0].LastPosition; got != next {
		t.Fatalf("expected last position %v, got %v", next, got)
	}

	if reg.CommitPose("ghost", next, world.Identity()) {
		t.Fatalf("expected commit for unknown slot to be refused")
	}
}

func TestDrainAllExactlyOnce(t *testing.T) {
	reg := New(nil)
	for i := 0; i < 3; i++ {
		reg.Register(physics.Handle(i+1), fmt.Sprintf("slot_%d", i), world.Vec3{}, world.Identity())
	}

	drained := reg.DrainAll()
	if len(drained) != 3 {
		t.Fatalf("expected 3 drained slots, got %d", len(drained))
	}
	seen := make(map[string]struct{}, len(drained))
	for _, slot := range drained {
		if _, dup := seen[slot]; dup {
			t.Fatalf("expected each slot exactly once, got duplicate %q", slot)
		}
		seen[slot] = struct{}{}
	}

	if second := reg.DrainAll(); len(second) != 0 {
		t.Fatalf("expected second drain to return nothing, got %d", len(second))
	}
	if got := reg.Len(); got != 0 {
		t.Fatalf("expected empty registry after drain, got %d", got)
	}
}

func TestRegisterAfterDrainRejected(t *testing.T) {
	reg := New(nil)
	reg.DrainAll()

	if reg.Register(1, "late", world.Vec3{}, world.Identity()) {
		t.Fatalf("expected registration after drain to be refused")
	}
	if got := reg.Rejected(); got != 1 {
		t.Fatalf("expected 1 rejected registration, got %d", got)
	}
}

func TestConcurrentRegisterAndDrain(t *testing.T) {
	reg := New(nil)

	const total = 200
	accepted := make([]bool, total)
	var wg sync.WaitGroup
	for i := 0; i < total; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			accepted[n] = reg.Register(physics.Handle(n+1), fmt.Sprintf("slot_%03d", n), world.Vec3{}, world.Identity())
		}(i)
	}

	drained := reg.DrainAll()
	wg.Wait()

	acceptedCount := 0
	for _, ok := range accepted {
		if ok {
			acceptedCount++
		}
	}

	if len(drained) != acceptedCount {
		t.Fatalf("expected drain to return every accepted slot, got %d drained for %d accepted", len(drained), acceptedCount)
	}
	seen := make(map[string]struct{}, len(drained))
	for _, slot := range drained {
		if _, dup := seen[slot]; dup {
			t.Fatalf("expected no duplicated entries, got %q twice", slot)
		}
		seen[slot] = struct{}{}
	}
	if got := int(reg.Rejected()); got != total-acceptedCount {
		t.Fatalf("expected %d rejections, got %d", total-acceptedCount, got)
	}
}
