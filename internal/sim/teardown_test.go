package sim

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"ballpit/bridge/internal/ident"
	"ballpit/bridge/internal/physics"
	"ballpit/bridge/internal/registry"
	"ballpit/bridge/internal/scene"
	"ballpit/bridge/internal/telemetry"
	"ballpit/bridge/internal/world"
)

type teardownFixture struct {
	registry  *registry.Registry
	pool      *scene.Pool
	transport *scriptedTransport
	teardown  *Teardown
	logs      []string
	created   map[string]bool
}

func newTeardownFixture(t *testing.T) *teardownFixture {
	t.Helper()
	f := &teardownFixture{
		registry:  registry.New(nil),
		transport: &scriptedTransport{},
		created:   make(map[string]bool),
	}

	ids := ident.NewAllocator("game", "teardown")
	f.pool = scene.NewPool(ids, world.NewDeterministicRNG(world.DefaultSeed, "teardown"))
	for i := 0; i < 2; i++ {
		_, material := f.pool.CreateMaterial(true)
		f.created[material.SlotID] = true
	}

	for i := 0; i < 3; i++ {
		slotID := fmt.Sprintf("ball_slot_%d", i)
		f.registry.Register(physics.Handle(i+1), slotID, world.Vec3{}, world.Identity())
		f.created[slotID] = true
	}

	logger := telemetry.LoggerFunc(func(format string, args ...any) {
		f.logs = append(f.logs, fmt.Sprintf(format, args...))
	})
	f.teardown = NewTeardown(f.registry, f.pool, NewBatcher(f.transport, 50, nil, nil), logger, telemetry.NewCounters())
	if f.teardown == nil {
		t.Fatalf("expected teardown construction to succeed")
	}
	return f
}

func TestTeardownRemovesEverythingOnce(t *testing.T) {
	f := newTeardownFixture(t)

	f.teardown.Run(context.Background())
	if len(f.transport.calls) != 1 {
		t.Fatalf("expected a single batched submission, got %d", len(f.transport.calls))
	}

	removed := make(map[string]bool)
	for _, op := range f.transport.calls[0] {
		if op.Kind != scene.OpRemoveSlot {
			t.Fatalf("expected only RemoveSlot operations, got %v", op.Kind)
		}
		if removed[op.ID] {
			t.Fatalf("expected no duplicate removals, got %q twice", op.ID)
		}
		removed[op.ID] = true
	}
	if len(removed) != len(f.created) {
		t.Fatalf("expected %d removals, got %d", len(f.created), len(removed))
	}
	for id := range f.created {
		if !removed[id] {
			t.Fatalf("expected %q to be removed", id)
		}
	}

	f.teardown.Run(context.Background())
	if len(f.transport.calls) != 1 {
		t.Fatalf("expected repeat teardown to be a no-op, got %d calls", len(f.transport.calls))
	}
	if f.registry.Register(999, "late_slot", world.Vec3{}, world.Identity()) {
		t.Fatalf("expected registrations after teardown to be rejected")
	}
}

func TestTeardownSwallowsSubmissionFailure(t *testing.T) {
	f := newTeardownFixture(t)
	f.transport.failCall = 1
	f.transport.message = "session expired"

	f.teardown.Run(context.Background())
	if len(f.transport.calls) != 1 {
		t.Fatalf("expected one attempted submission, got %d", len(f.transport.calls))
	}

	joined := strings.Join(f.logs, "\n")
	if !strings.Contains(joined, "cleanup failed") {
		t.Fatalf("expected the failure to be logged, got %q", joined)
	}

	f.teardown.Run(context.Background())
	if len(f.transport.calls) != 1 {
		t.Fatalf("expected teardown to stay done after a failure, got %d calls", len(f.transport.calls))
	}
}

func TestTeardownWithNothingToRemove(t *testing.T) {
	transport := &scriptedTransport{}
	teardown := NewTeardown(registry.New(nil), nil, NewBatcher(transport, 50, nil, nil), nil, nil)

	teardown.Run(context.Background())
	if len(transport.calls) != 0 {
		t.Fatalf("expected no submission without created slots, got %d", len(transport.calls))
	}
}
