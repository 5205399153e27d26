package scenario

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ballpit/bridge/internal/world"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.lua")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestDefaultScheduleDropsThreeBalls(t *testing.T) {
	schedule := Default()
	if len(schedule.Spawns) != 3 {
		t.Fatalf("expected three spawns, got %d", len(schedule.Spawns))
	}

	wantPositions := []world.Vec3{
		{X: -1, Y: 5},
		{X: 1, Y: 5},
		{X: 3, Y: 5},
	}
	wantRadii := []float64{1.0 / 3.0, 2.0 / 3.0, 1}
	for i, spawn := range schedule.Spawns {
		if spawn.Position != wantPositions[i] {
			t.Fatalf("spawn %d: expected position %+v, got %+v", i, wantPositions[i], spawn.Position)
		}
		if math.Abs(spawn.Radius-wantRadii[i]) > 1e-12 {
			t.Fatalf("spawn %d: expected radius %v, got %v", i, wantRadii[i], spawn.Radius)
		}
	}
}

func TestScriptedScheduleReplacesDefault(t *testing.T) {
	path := writeScript(t, `
function spawn_schedule()
  return {
    name = "tower",
    balls = {
      { x = 0, y = 4, z = 0, radius = 0.5 },
      { x = 0, y = 6, z = 0, radius = 0.5 },
      { x = 0.2, y = 8, z = 0, radius = 0.25 },
    },
  }
end
`)

	schedule, err := Load(path, nil)
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}
	if schedule.Name != "tower" {
		t.Fatalf("expected schedule name tower, got %q", schedule.Name)
	}
	if len(schedule.Spawns) != 3 {
		t.Fatalf("expected three spawns, got %d", len(schedule.Spawns))
	}
	if schedule.Spawns[1].Position.Y != 6 {
		t.Fatalf("expected second ball at y=6, got %+v", schedule.Spawns[1].Position)
	}
	if schedule.Spawns[2].Radius != 0.25 {
		t.Fatalf("expected third radius 0.25, got %v", schedule.Spawns[2].Radius)
	}
}

func TestScriptedScheduleCanComputeSpawns(t *testing.T) {
	path := writeScript(t, `
function spawn_schedule()
  local balls = {}
  for i = 1, 5 do
    balls[i] = { x = i * 1.5, y = 3 + i, z = 0, radius = 0.4 }
  end
  return { name = "staircase", balls = balls }
end
`)

	schedule, err := Load(path, nil)
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}
	if len(schedule.Spawns) != 5 {
		t.Fatalf("expected five spawns, got %d", len(schedule.Spawns))
	}
	if schedule.Spawns[4].Position.X != 7.5 {
		t.Fatalf("expected last ball at x=7.5, got %+v", schedule.Spawns[4].Position)
	}
}

func TestScheduleRejectsNonPositiveRadius(t *testing.T) {
	path := writeScript(t, `
function spawn_schedule()
  return { balls = { { x = 0, y = 5, z = 0, radius = -1 } } }
end
`)

	_, err := Load(path, nil)
	if err == nil {
		t.Fatalf("expected an error for a negative radius")
	}
	if !strings.Contains(err.Error(), "radius") {
		t.Fatalf("expected a radius error, got %v", err)
	}
}

func TestScheduleRequiresSpawnFunction(t *testing.T) {
	path := writeScript(t, `answer = 42`)

	_, err := Load(path, nil)
	if err == nil {
		t.Fatalf("expected an error when spawn_schedule is missing")
	}
	if !strings.Contains(err.Error(), "spawn_schedule") {
		t.Fatalf("expected the function name in the error, got %v", err)
	}
}

func TestScheduleSurfacesScriptErrors(t *testing.T) {
	path := writeScript(t, `
function spawn_schedule()
  error("deliberate failure")
end
`)

	_, err := Load(path, nil)
	if err == nil {
		t.Fatalf("expected the script error to surface")
	}
	if !strings.Contains(err.Error(), "deliberate failure") {
		t.Fatalf("expected the script message, got %v", err)
	}
}

func TestLoadReportsMissingScript(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.lua"), nil)
	if err == nil {
		t.Fatalf("expected an error for a missing script")
	}
}
