// Package scenario produces the ball spawn schedule for a bridge run. The
// built-in schedule drops three balls onto the floor; an optional Lua script
// replaces it without rebuilding the bridge.
package scenario

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"ballpit/bridge/internal/world"
)

// Spawn is one ball to create at startup.
type Spawn struct {
	Position world.Vec3
	Radius   float64
}

// Schedule is the ordered list of balls a run starts with.
type Schedule struct {
	Name   string
	Spawns []Spawn
}

// Default returns the built-in three-ball drop.
func Default() Schedule {
	return Schedule{
		Name: "three-ball-drop",
		Spawns: []Spawn{
			{Position: world.Vec3{X: -1, Y: 5}, Radius: 1.0 / 3.0},
			{Position: world.Vec3{X: 1, Y: 5}, Radius: 2.0 / 3.0},
			{Position: world.Vec3{X: 3, Y: 5}, Radius: 1},
		},
	}
}

// Engine wraps a single gopher-lua VM holding one scenario script.
// Single-goroutine access only (startup path).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads the script at path.
func NewEngine(path string, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	if err := vm.DoFile(path); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load scenario %s: %w", path, err)
	}
	log.Debug("loaded scenario script", zap.String("file", path))
	return e, nil
}

// Close releases the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}

// SpawnSchedule calls the script's spawn_schedule function and converts its
// table into a Schedule.
func (e *Engine) SpawnSchedule() (Schedule, error) {
	fn := e.vm.GetGlobal("spawn_schedule")
	if fn == lua.LNil {
		return Schedule{}, fmt.Errorf("scenario defines no spawn_schedule function")
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}); err != nil {
		return Schedule{}, fmt.Errorf("spawn_schedule: %w", err)
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		return Schedule{}, fmt.Errorf("spawn_schedule returned %s, want table", result.Type())
	}

	schedule := Schedule{Name: lua.LVAsString(rt.RawGetString("name"))}
	if schedule.Name == "" {
		schedule.Name = "scripted"
	}

	balls, ok := rt.RawGetString("balls").(*lua.LTable)
	if !ok {
		return Schedule{}, fmt.Errorf("spawn_schedule returned no balls table")
	}
	for i := 1; i <= balls.Len(); i++ {
		entry, ok := balls.RawGetInt(i).(*lua.LTable)
		if !ok {
			return Schedule{}, fmt.Errorf("spawn %d: want table, got %s", i, balls.RawGetInt(i).Type())
		}
		radius := float64(lua.LVAsNumber(entry.RawGetString("radius")))
		if radius <= 0 {
			return Schedule{}, fmt.Errorf("spawn %d: radius must be positive", i)
		}
		schedule.Spawns = append(schedule.Spawns, Spawn{
			Position: world.Vec3{
				X: float64(lua.LVAsNumber(entry.RawGetString("x"))),
				Y: float64(lua.LVAsNumber(entry.RawGetString("y"))),
				Z: float64(lua.LVAsNumber(entry.RawGetString("z"))),
			},
			Radius: radius,
		})
	}
	if len(schedule.Spawns) == 0 {
		return Schedule{}, fmt.Errorf("spawn_schedule returned no spawns")
	}
	return schedule, nil
}

// Load runs a scenario script once and returns its schedule.
func Load(path string, log *zap.Logger) (Schedule, error) {
	engine, err := NewEngine(path, log)
	if err != nil {
		return Schedule{}, err
	}
	defer engine.Close()
	return engine.SpawnSchedule()
}
